package ohmmap

import "github.com/data61/ohm/key"

// HeightmapVoxel is the per-column value stored in the heightmap and
// heightmap_build layers: the surface height and its clearance above that
// surface. Layer names and this struct's fields are the full extent of
// what heightmap voxels carry here; meshing and 2.5D projection from the
// full 3D map are not implemented.
type HeightmapVoxel struct {
	Height    float32
	Clearance float32
}

// HeightmapAt returns the heightmap value at k without instantiating its
// region.
func (m *Map) HeightmapAt(k key.Key) (HeightmapVoxel, bool) {
	if !m.heightmapAccessor.SetKey(k, false) {
		return HeightmapVoxel{}, false
	}
	return m.heightmapAccessor.Read()
}

// SetHeightmapAt writes the heightmap value at k, instantiating its region
// if needed.
func (m *Map) SetHeightmapAt(k key.Key, v HeightmapVoxel) bool {
	if !m.heightmapAccessor.SetKey(k, true) {
		return false
	}
	return m.heightmapAccessor.Write(v)
}
