// Package key implements the voxel and region coordinate algebra: converting
// world-space points to region/local voxel keys and back, and stepping keys
// across region boundaries.
package key

import "math"

// Vec3I is an integer triple used for region voxel dimensions (the number of
// voxels along each axis inside a single region).
type Vec3I struct {
	X, Y, Z int
}

// Point3 is a world-space coordinate in metres.
type Point3 struct {
	X, Y, Z float64
}

// RegionKey identifies a region in the region lattice. Regions tile world
// space; adjacent region keys differ by one along a single axis.
type RegionKey struct {
	X, Y, Z int16
}

// LocalKey identifies a voxel's position inside its region, in
// [0, dims.axis) along each axis.
type LocalKey struct {
	X, Y, Z uint16
}

// Key fully identifies a voxel: its region plus its local offset inside that
// region.
type Key struct {
	Region RegionKey
	Local  LocalKey
}

// Null is the sentinel key used to represent "no voxel". Region (0,0,0)
// local (0,0,0) is a legitimate key, so Null uses a distinct sentinel local
// value that FloorMod / KeyOf never produce.
var Null = Key{Local: LocalKey{X: math.MaxUint16, Y: math.MaxUint16, Z: math.MaxUint16}}

// IsNull reports whether k is the sentinel "no voxel" key.
func (k Key) IsNull() bool { return k == Null }

// FloorDiv returns the flooring integer quotient a/b for b > 0, matching the
// mathematical floor rather than truncation toward zero: FloorDiv(-1, 4) is
// -1, not 0.
func FloorDiv(a, b int) int {
	q := a / b
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		q--
	}
	return q
}

// FloorMod returns a mod b with the sign of b (Euclidean-style remainder),
// so it is always in [0, b) for positive b.
func FloorMod(a, b int) int {
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

// KeyOf maps a world point to the voxel key that contains it, given a voxel
// resolution (metres per voxel edge) and per-region voxel dimensions.
func KeyOf(p Point3, resolution float64, dims Vec3I) Key {
	vx := int(math.Floor(p.X / resolution))
	vy := int(math.Floor(p.Y / resolution))
	vz := int(math.Floor(p.Z / resolution))

	rx := FloorDiv(vx, dims.X)
	ry := FloorDiv(vy, dims.Y)
	rz := FloorDiv(vz, dims.Z)

	lx := FloorMod(vx, dims.X)
	ly := FloorMod(vy, dims.Y)
	lz := FloorMod(vz, dims.Z)

	return Key{
		Region: RegionKey{X: int16(rx), Y: int16(ry), Z: int16(rz)},
		Local:  LocalKey{X: uint16(lx), Y: uint16(ly), Z: uint16(lz)},
	}
}

// MinWorld returns the world-space coordinate of the region's minimum
// (lowest-index) corner.
func MinWorld(rk RegionKey, resolution float64, dims Vec3I) Point3 {
	return Point3{
		X: float64(int(rk.X)*dims.X) * resolution,
		Y: float64(int(rk.Y)*dims.Y) * resolution,
		Z: float64(int(rk.Z)*dims.Z) * resolution,
	}
}

// CentreWorld returns the world-space centre of the voxel identified by k.
func CentreWorld(k Key, resolution float64, dims Vec3I) Point3 {
	origin := MinWorld(k.Region, resolution, dims)
	return Point3{
		X: origin.X + (float64(k.Local.X)+0.5)*resolution,
		Y: origin.Y + (float64(k.Local.Y)+0.5)*resolution,
		Z: origin.Z + (float64(k.Local.Z)+0.5)*resolution,
	}
}

// Move steps k by (dx, dy, dz) voxels, crossing region boundaries as
// needed, and returns the resulting key.
func Move(k Key, dx, dy, dz int, dims Vec3I) Key {
	gx := int(k.Region.X)*dims.X + int(k.Local.X) + dx
	gy := int(k.Region.Y)*dims.Y + int(k.Local.Y) + dy
	gz := int(k.Region.Z)*dims.Z + int(k.Local.Z) + dz

	return Key{
		Region: RegionKey{
			X: int16(FloorDiv(gx, dims.X)),
			Y: int16(FloorDiv(gy, dims.Y)),
			Z: int16(FloorDiv(gz, dims.Z)),
		},
		Local: LocalKey{
			X: uint16(FloorMod(gx, dims.X)),
			Y: uint16(FloorMod(gy, dims.Y)),
			Z: uint16(FloorMod(gz, dims.Z)),
		},
	}
}

// IsBounded reports whether k lies within the inclusive voxel range
// [min, max], comparing at global-voxel granularity so the test is correct
// across region boundaries.
func IsBounded(k, min, max Key, dims Vec3I) bool {
	gx := int(k.Region.X)*dims.X + int(k.Local.X)
	gy := int(k.Region.Y)*dims.Y + int(k.Local.Y)
	gz := int(k.Region.Z)*dims.Z + int(k.Local.Z)

	minX := int(min.Region.X)*dims.X + int(min.Local.X)
	minY := int(min.Region.Y)*dims.Y + int(min.Local.Y)
	minZ := int(min.Region.Z)*dims.Z + int(min.Local.Z)

	maxX := int(max.Region.X)*dims.X + int(max.Local.X)
	maxY := int(max.Region.Y)*dims.Y + int(max.Local.Y)
	maxZ := int(max.Region.Z)*dims.Z + int(max.Local.Z)

	return gx >= minX && gx <= maxX &&
		gy >= minY && gy <= maxY &&
		gz >= minZ && gz <= maxZ
}

// RegionKeyOf returns the region key containing world point p.
func RegionKeyOf(p Point3, resolution float64, dims Vec3I) RegionKey {
	return KeyOf(p, resolution, dims).Region
}

// Neighbours26 returns the 26 region keys adjacent to rk (all offsets in
// {-1,0,1}^3 except the zero offset), in a fixed deterministic order.
func Neighbours26(rk RegionKey) []RegionKey {
	out := make([]RegionKey, 0, 26)
	for dz := int16(-1); dz <= 1; dz++ {
		for dy := int16(-1); dy <= 1; dy++ {
			for dx := int16(-1); dx <= 1; dx++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				out = append(out, RegionKey{X: rk.X + dx, Y: rk.Y + dy, Z: rk.Z + dz})
			}
		}
	}
	return out
}
