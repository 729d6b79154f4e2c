// Package ohmmap ties together the chunked voxel store, occupancy
// semantics and clearance process into a single map type, and adds the
// covariance and heightmap data layers plus persistence.
package ohmmap

import (
	"time"
	"unsafe"

	"github.com/google/uuid"

	"github.com/data61/ohm/clearance"
	"github.com/data61/ohm/key"
	"github.com/data61/ohm/layout"
	"github.com/data61/ohm/occupancy"
	"github.com/data61/ohm/voxel"
	"github.com/data61/ohm/voxelstore"
)

const (
	// LayerOccupancy is the log-odds occupancy layer.
	LayerOccupancy = "occupancy"
	// LayerMean is the sub-voxel mean-position layer.
	LayerMean = "mean"
	// LayerCovariance is the packed NDT covariance layer (structural only,
	// no fusion math is implemented here).
	LayerCovariance = "covariance"
	// LayerClearance is the obstacle-distance layer.
	LayerClearance = "clearance"
	// LayerHeightmap holds a HeightmapVoxel per column voxel.
	LayerHeightmap = "heightmap"
	// LayerHeightmapBuild holds heightmap-under-construction scratch data.
	LayerHeightmapBuild = "heightmap_build"
)

// covarianceElemSize is six packed float32s: the upper triangle of a 3x3
// symmetric covariance matrix.
const covarianceElemSize = 6 * 4

// Map combines a chunked voxel store with occupancy semantics and a
// clearance process into the map type client code interacts with.
type Map struct {
	ID uuid.UUID

	store   *voxelstore.Store
	occ     occupancy.Params
	process *clearance.Process

	occAccessor       *voxel.Accessor[float32]
	meanAccessor      *voxel.Accessor[occupancy.Mean]
	clearanceAccessor *voxel.Accessor[float32]
	heightmapAccessor *voxel.Accessor[HeightmapVoxel]
}

// NewMap constructs a Map with the standard layer set (occupancy, mean,
// covariance, clearance, heightmap, heightmap_build), region dimensions of
// regionVoxels^3, and the given voxel resolution in metres.
func NewMap(resolution float64, regionVoxels int, occ occupancy.Params) (*Map, error) {
	l := layout.NewLayout()

	if _, err := l.AddLayer(LayerOccupancy, 4, 4, f32Bytes(occ.UnobservedValue)); err != nil {
		return nil, err
	}
	if _, err := l.AddLayer(LayerMean, 16, 4, make([]byte, 16)); err != nil {
		return nil, err
	}
	if _, err := l.AddLayer(LayerCovariance, covarianceElemSize, 4, make([]byte, covarianceElemSize)); err != nil {
		return nil, err
	}
	if _, err := l.AddLayer(LayerClearance, 4, 4, f32Bytes(clearance.NoClearance)); err != nil {
		return nil, err
	}
	if _, err := l.AddLayer(LayerHeightmap, 8, 4, make([]byte, 8)); err != nil {
		return nil, err
	}
	if _, err := l.AddLayer(LayerHeightmapBuild, 8, 4, make([]byte, 8)); err != nil {
		return nil, err
	}

	m, err := newMapFromLayout(l, resolution, regionVoxels)
	if err != nil {
		return nil, err
	}
	m.occ = occ
	return m, nil
}

// newMapFromLayout builds a Map's store and accessors from an already
// populated (but not yet sealed) layout. Shared by NewMap and LoadMap so
// both paths keep the same accessor-wiring logic.
func newMapFromLayout(l *layout.Layout, resolution float64, regionVoxels int) (*Map, error) {
	dims := key.Vec3I{X: regionVoxels, Y: regionVoxels, Z: regionVoxels}
	store, err := voxelstore.NewStore(l, dims, resolution)
	if err != nil {
		return nil, err
	}

	occAcc, ok := voxel.NewAccessor[float32](store, LayerOccupancy)
	if !ok {
		return nil, errAccessor(LayerOccupancy)
	}
	meanAcc, ok := voxel.NewAccessor[occupancy.Mean](store, LayerMean)
	if !ok {
		return nil, errAccessor(LayerMean)
	}
	clearAcc, ok := voxel.NewAccessor[float32](store, LayerClearance)
	if !ok {
		return nil, errAccessor(LayerClearance)
	}
	heightAcc, ok := voxel.NewAccessor[HeightmapVoxel](store, LayerHeightmap)
	if !ok {
		return nil, errAccessor(LayerHeightmap)
	}

	return &Map{
		ID:                uuid.New(),
		store:             store,
		occ:               occupancy.DefaultParams(),
		process:           clearance.NewProcess(),
		occAccessor:       occAcc,
		meanAccessor:      meanAcc,
		clearanceAccessor: clearAcc,
		heightmapAccessor: heightAcc,
	}, nil
}

// Store exposes the underlying chunk store for lower-level access.
func (m *Map) Store() *voxelstore.Store { return m.store }

// ClearanceProcess exposes the map's clearance process for configuration.
func (m *Map) ClearanceProcess() *clearance.Process { return m.process }

// OccupancyParams returns the map's occupancy parameters.
func (m *Map) OccupancyParams() occupancy.Params { return m.occ }

// IntegrateHit applies a hit update to the voxel containing world, bumping
// its touched stamp. This is a minimal, non-authoritative entry point: ray
// casting policy between sensor origin and world is out of scope here.
func (m *Map) IntegrateHit(world key.Point3) {
	k := key.KeyOf(world, m.store.Resolution(), m.store.Dims())
	m.occAccessor.SetKey(k, true)
	current, _ := m.occAccessor.Read()
	m.occAccessor.Write(m.occ.Hit(current))
}

// IntegrateMiss applies a miss update to the voxel containing world.
func (m *Map) IntegrateMiss(world key.Point3) {
	k := key.KeyOf(world, m.store.Resolution(), m.store.Dims())
	m.occAccessor.SetKey(k, true)
	current, _ := m.occAccessor.Read()
	m.occAccessor.Write(m.occ.Miss(current))
}

// OccupancyAt returns the occupancy log-odds value at k without
// instantiating its region.
func (m *Map) OccupancyAt(k key.Key) (float32, bool) {
	if !m.occAccessor.SetKey(k, false) {
		return m.occ.UnobservedValue, false
	}
	return m.occAccessor.Read()
}

// UpdateClearance runs the clearance process for up to timeSlice.
func (m *Map) UpdateClearance(timeSlice time.Duration) clearance.Result {
	return m.process.Update(m, timeSlice)
}

// CalculateClearanceForExtents recomputes clearance directly for the
// inclusive world-space box [min, max], bypassing the incremental work
// queue.
func (m *Map) CalculateClearanceForExtents(min, max key.Point3, force bool) int {
	return m.process.CalculateForExtents(m, min, max, force)
}

// --- clearance.Map interface ---

func (m *Map) Dims() key.Vec3I     { return m.store.Dims() }
func (m *Map) Resolution() float64 { return m.store.Resolution() }

func (m *Map) RegionKeys() []key.RegionKey {
	it := m.store.Iterate()
	var out []key.RegionKey
	for {
		c, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, c.Region)
	}
	return out
}

func (m *Map) RegionExists(rk key.RegionKey) bool {
	_, ok := m.store.FindRegion(rk)
	return ok
}

func (m *Map) OccupancyTouchedStamp(rk key.RegionKey) uint64 {
	c, ok := m.store.FindRegion(rk)
	if !ok {
		return 0
	}
	idx, _ := m.store.Layout().LayerIndex(LayerOccupancy)
	if idx < 0 || idx >= len(c.TouchedStamps) {
		return 0
	}
	return c.TouchedStamps[idx]
}

func (m *Map) ClearanceTouchedStamp(rk key.RegionKey) uint64 {
	c, ok := m.store.FindRegion(rk)
	if !ok {
		return 0
	}
	idx, _ := m.store.Layout().LayerIndex(LayerClearance)
	if idx < 0 || idx >= len(c.TouchedStamps) {
		return 0
	}
	return c.TouchedStamps[idx]
}

func (m *Map) SetClearanceTouchedStamp(rk key.RegionKey, stamp uint64) {
	c, ok := m.store.Region(rk, true)
	if !ok {
		return
	}
	idx, _ := m.store.Layout().LayerIndex(LayerClearance)
	c.Touch(idx, stamp)
}

func (m *Map) IsOccupied(k key.Key) bool {
	v, ok := m.OccupancyAt(k)
	return ok && m.occ.IsOccupied(v)
}

func (m *Map) IsUnobserved(k key.Key) bool {
	v, ok := m.OccupancyAt(k)
	if !ok {
		return true
	}
	return m.occ.IsUnobserved(v)
}

func (m *Map) ClearanceAt(k key.Key) (float32, bool) {
	if !m.clearanceAccessor.SetKey(k, false) {
		return clearance.NoClearance, false
	}
	return m.clearanceAccessor.Read()
}

func (m *Map) SetClearanceAt(k key.Key, v float32) bool {
	if !m.clearanceAccessor.SetKey(k, true) {
		return false
	}
	return m.clearanceAccessor.Write(v)
}

func (m *Map) EnsureRegion(rk key.RegionKey) {
	m.store.Region(rk, true)
}

func f32Bytes(v float32) []byte {
	b := make([]byte, 4)
	*(*float32)(unsafe.Pointer(&b[0])) = v
	return b
}
