// Command ohmgen builds a small synthetic occupancy map — a solid cube of
// obstacle hits inside an otherwise empty volume — and runs the clearance
// process over it, printing a summary. It exists to exercise the map and
// clearance APIs end to end, the way ohmtools/OhmGen exercises the
// original C++ map in its own test and demo binaries.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/data61/ohm/key"
	"github.com/data61/ohm/occupancy"
	"github.com/data61/ohm/ohmmap"
)

var (
	resolution   = flag.Float64("resolution", 0.1, "voxel edge length in metres")
	regionVoxels = flag.Int("region-voxels", 32, "voxels per region edge")
	cubeMin      = flag.Float64("cube-min", -0.5, "solid cube min corner (metres, all axes)")
	cubeMax      = flag.Float64("cube-max", 0.5, "solid cube max corner (metres, all axes)")
	searchRadius = flag.Float64("search-radius", 2.0, "clearance search radius in metres")
	outPath      = flag.String("out", "", "if set, write the resulting map to this file")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	m, err := ohmmap.NewMap(*resolution, *regionVoxels, occupancy.DefaultParams())
	if err != nil {
		return fmt.Errorf("creating map: %w", err)
	}

	fillCubeWithHits(m, *cubeMin, *cubeMax)

	m.ClearanceProcess().SetSearchRadius(*searchRadius)
	total := m.CalculateClearanceForExtents(
		key.Point3{X: *cubeMin - *searchRadius, Y: *cubeMin - *searchRadius, Z: *cubeMin - *searchRadius},
		key.Point3{X: *cubeMax + *searchRadius, Y: *cubeMax + *searchRadius, Z: *cubeMax + *searchRadius},
		true,
	)

	fmt.Printf("map %s: %d regions instantiated, %d regions cleared\n", m.ID, m.Store().RegionCount(), total)

	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		if _, err := m.WriteTo(f); err != nil {
			return fmt.Errorf("writing map: %w", err)
		}
		fmt.Printf("wrote map to %s\n", *outPath)
	}

	return nil
}

// fillCubeWithHits marks every voxel in the key range covering
// [min, max]^3 as occupied by applying three hit updates to each voxel
// centre, walking the key range directly rather than simulating
// individual sensor rays.
func fillCubeWithHits(m *ohmmap.Map, min, max float64) {
	res := m.Resolution()
	dims := m.Dims()

	minKey := key.KeyOf(key.Point3{X: min, Y: min, Z: min}, res, dims)
	maxKey := key.KeyOf(key.Point3{X: max, Y: max, Z: max}, res, dims)

	minG := globalVoxel(minKey, dims)
	maxG := globalVoxel(maxKey, dims)

	for gx := minG.X; gx <= maxG.X; gx++ {
		for gy := minG.Y; gy <= maxG.Y; gy++ {
			for gz := minG.Z; gz <= maxG.Z; gz++ {
				k := key.Move(minKey, gx-minG.X, gy-minG.Y, gz-minG.Z, dims)
				world := key.CentreWorld(k, res, dims)
				for i := 0; i < 3; i++ {
					m.IntegrateHit(world)
				}
			}
		}
	}
}

func globalVoxel(k key.Key, dims key.Vec3I) key.Vec3I {
	return key.Vec3I{
		X: int(k.Region.X)*dims.X + int(k.Local.X),
		Y: int(k.Region.Y)*dims.Y + int(k.Local.Y),
		Z: int(k.Region.Z)*dims.Z + int(k.Local.Z),
	}
}
