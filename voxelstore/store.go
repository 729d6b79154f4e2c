// Package voxelstore holds the chunked sparse map of Region key.RegionKey to
// Chunk. Regions are instantiated lazily on first write and can be expired
// or culled to bound memory use. The store is safe for concurrent readers
// while a single writer mutates it, matching how internal/lidar.BackgroundGrid
// guards its Cells slice.
package voxelstore

import (
	"sort"
	"sync"
	"time"

	"github.com/data61/ohm/key"
	"github.com/data61/ohm/layout"
)

// Chunk holds every layer's voxel data for one region.
type Chunk struct {
	Region     key.RegionKey
	SpatialMin key.Point3

	// layers[i] is the raw byte block for layout layer i, length
	// dims.X*dims.Y*dims.Z*layer.ElemSize. Allocated lazily on first touch.
	layers [][]byte

	// TouchedStamps[i] is the monotonic stamp of the last write to layer i.
	TouchedStamps []uint64

	// LastAccess supports the ExpireRegions eviction policy.
	LastAccess time.Time
}

// LayerBytes returns the raw byte block for layer i, allocating it from the
// layout default if this is the first access. Returns false if i is out of
// range for the store's layout.
func (c *Chunk) layerBytes(i int, l *layout.Layout, voxelCount int) ([]byte, bool) {
	if i < 0 || i >= len(c.layers) {
		return nil, false
	}
	if c.layers[i] == nil {
		def, ok := l.DefaultBytes(i)
		if !ok {
			return nil, false
		}
		block := make([]byte, voxelCount*len(def))
		for v := 0; v < voxelCount; v++ {
			copy(block[v*len(def):], def)
		}
		c.layers[i] = block
	}
	return c.layers[i], true
}

// Touch bumps the touched stamp for layer i to stamp if stamp is newer.
func (c *Chunk) Touch(layerIdx int, stamp uint64) {
	if layerIdx < 0 || layerIdx >= len(c.TouchedStamps) {
		return
	}
	if stamp > c.TouchedStamps[layerIdx] {
		c.TouchedStamps[layerIdx] = stamp
	}
}

// Store is the chunked sparse voxel map keyed by region.
type Store struct {
	layout     *layout.Layout
	dims       key.Vec3I
	resolution float64
	voxelCount int

	mu      sync.RWMutex
	regions map[key.RegionKey]*Chunk

	// stampCounter hands out monotonically increasing touch stamps.
	stampCounter uint64
}

// NewStore creates a Store bound to layout l, sealing l as a side effect.
// dims is the number of voxels per region along each axis; resolution is
// the voxel edge length in metres.
func NewStore(l *layout.Layout, dims key.Vec3I, resolution float64) (*Store, error) {
	if dims.X <= 0 || dims.Y <= 0 || dims.Z <= 0 {
		return nil, errInvalidDims(dims)
	}
	if resolution <= 0 {
		return nil, errInvalidResolution(resolution)
	}
	l.Seal()
	return &Store{
		layout:     l,
		dims:       dims,
		resolution: resolution,
		voxelCount: dims.X * dims.Y * dims.Z,
		regions:    make(map[key.RegionKey]*Chunk),
	}, nil
}

// Layout returns the store's sealed layout.
func (s *Store) Layout() *layout.Layout { return s.layout }

// Dims returns the per-region voxel dimensions.
func (s *Store) Dims() key.Vec3I { return s.dims }

// Resolution returns the voxel edge length in metres.
func (s *Store) Resolution() float64 { return s.resolution }

// NextStamp returns a fresh monotonically increasing touch stamp.
func (s *Store) NextStamp() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stampCounter++
	return s.stampCounter
}

// Region returns the chunk for rk. If instantiate is true and no chunk
// exists yet, one is allocated and inserted.
func (s *Store) Region(rk key.RegionKey, instantiate bool) (*Chunk, bool) {
	s.mu.RLock()
	c, ok := s.regions[rk]
	s.mu.RUnlock()
	if ok || !instantiate {
		return c, ok
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.regions[rk]; ok {
		return c, true
	}
	c = &Chunk{
		Region:        rk,
		SpatialMin:    key.MinWorld(rk, s.resolution, s.dims),
		layers:        make([][]byte, s.layout.LayerCount()),
		TouchedStamps: make([]uint64, s.layout.LayerCount()),
		LastAccess:    time.Now(),
	}
	s.regions[rk] = c
	return c, true
}

// FindRegion returns the chunk for rk without instantiating it.
func (s *Store) FindRegion(rk key.RegionKey) (*Chunk, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.regions[rk]
	return c, ok
}

// RemoveRegion deletes the chunk for rk if present, returning whether one
// was removed.
func (s *Store) RemoveRegion(rk key.RegionKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.regions[rk]; !ok {
		return false
	}
	delete(s.regions, rk)
	return true
}

// ExpireRegions removes every region whose LastAccess predates before,
// returning the number removed.
func (s *Store) ExpireRegions(before time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for rk, c := range s.regions {
		if c.LastAccess.Before(before) {
			delete(s.regions, rk)
			n++
		}
	}
	return n
}

// CullDistance removes every region whose spatial min corner is farther
// than radius from pivot, returning the number removed.
func (s *Store) CullDistance(pivot key.Point3, radius float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	r2 := radius * radius
	for rk, c := range s.regions {
		dx := c.SpatialMin.X - pivot.X
		dy := c.SpatialMin.Y - pivot.Y
		dz := c.SpatialMin.Z - pivot.Z
		if dx*dx+dy*dy+dz*dz > r2 {
			delete(s.regions, rk)
			n++
		}
	}
	return n
}

// RegionCount returns the number of instantiated regions.
func (s *Store) RegionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.regions)
}

// RegionIterator walks a snapshot of region keys taken at Iterate() time, in
// a deterministic order, so concurrent inserts during iteration are not
// observed.
type RegionIterator struct {
	store *Store
	keys  []key.RegionKey
	pos   int
}

// Iterate returns an iterator over a snapshot of the store's current
// regions, ordered by (X, Y, Z).
func (s *Store) Iterate() *RegionIterator {
	s.mu.RLock()
	keys := make([]key.RegionKey, 0, len(s.regions))
	for rk := range s.regions {
		keys = append(keys, rk)
	}
	s.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return &RegionIterator{store: s, keys: keys}
}

// Next advances the iterator, returning the next chunk and true, or
// (nil, false) once exhausted. A region removed after the snapshot was
// taken is skipped.
func (it *RegionIterator) Next() (*Chunk, bool) {
	for it.pos < len(it.keys) {
		rk := it.keys[it.pos]
		it.pos++
		if c, ok := it.store.FindRegion(rk); ok {
			return c, true
		}
	}
	return nil, false
}

// LayerBytes exposes a chunk's raw layer block for layer i, lazily
// allocating it from the store's layout defaults.
func (s *Store) LayerBytes(c *Chunk, layerIdx int) ([]byte, bool) {
	return c.layerBytes(layerIdx, s.layout, s.voxelCount)
}

// VoxelOffset returns the byte offset of local key lk's voxel within a
// layer's raw block, given the layer's element size.
func (s *Store) VoxelOffset(lk key.LocalKey, elemSize int) int {
	idx := int(lk.Z)*s.dims.X*s.dims.Y + int(lk.Y)*s.dims.X + int(lk.X)
	return idx * elemSize
}
