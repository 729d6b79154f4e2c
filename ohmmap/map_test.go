package ohmmap

import (
	"testing"
	"time"

	"github.com/data61/ohm/key"
	"github.com/data61/ohm/occupancy"
)

func newTestMap(t *testing.T) *Map {
	t.Helper()
	m, err := NewMap(0.5, 8, occupancy.DefaultParams())
	if err != nil {
		t.Fatalf("NewMap: %v", err)
	}
	return m
}

func TestIntegrateHitMakesVoxelOccupied(t *testing.T) {
	m := newTestMap(t)
	p := key.Point3{X: 1, Y: 1, Z: 1}

	for i := 0; i < 5; i++ {
		m.IntegrateHit(p)
	}

	k := key.KeyOf(p, m.Resolution(), m.Dims())
	v, ok := m.OccupancyAt(k)
	if !ok {
		t.Fatal("expected voxel to be observed")
	}
	if !m.OccupancyParams().IsOccupied(v) {
		t.Fatalf("expected voxel to be occupied after repeated hits, value=%f", v)
	}
}

func TestIntegrateMissMakesVoxelFree(t *testing.T) {
	m := newTestMap(t)
	p := key.Point3{X: 2, Y: 2, Z: 2}

	for i := 0; i < 5; i++ {
		m.IntegrateMiss(p)
	}

	k := key.KeyOf(p, m.Resolution(), m.Dims())
	v, _ := m.OccupancyAt(k)
	if !m.OccupancyParams().IsFree(v) {
		t.Fatalf("expected voxel to be free after repeated misses, value=%f", v)
	}
}

func TestUpdateClearanceAfterHit(t *testing.T) {
	m := newTestMap(t)
	m.ClearanceProcess().SetSearchRadius(2.0)

	obstacle := key.Point3{X: 0, Y: 0, Z: 0}
	for i := 0; i < 5; i++ {
		m.IntegrateHit(obstacle)
	}

	result := m.UpdateClearance(time.Second)
	if result.RegionsProcessed == 0 {
		t.Fatal("expected at least one region to be processed")
	}

	near := key.KeyOf(key.Point3{X: 0.5, Y: 0, Z: 0}, m.Resolution(), m.Dims())
	v, ok := m.ClearanceAt(near)
	if !ok {
		t.Fatal("expected clearance value near the obstacle")
	}
	if v < 0 {
		t.Fatalf("expected a positive clearance distance, got %f", v)
	}
}

func TestCalculateClearanceForExtentsForced(t *testing.T) {
	m := newTestMap(t)
	m.IntegrateHit(key.Point3{X: 0, Y: 0, Z: 0})
	m.UpdateClearance(time.Second)

	// Force recompute even though nothing changed.
	n := m.CalculateClearanceForExtents(key.Point3{X: -1, Y: -1, Z: -1}, key.Point3{X: 1, Y: 1, Z: 1}, true)
	if n == 0 {
		t.Fatal("expected forced recompute to process at least one region")
	}
}

func TestHeightmapRoundTrip(t *testing.T) {
	m := newTestMap(t)
	k := key.KeyOf(key.Point3{X: 3, Y: 3, Z: 0}, m.Resolution(), m.Dims())

	if !m.SetHeightmapAt(k, HeightmapVoxel{Height: 1.5, Clearance: 0.3}) {
		t.Fatal("SetHeightmapAt failed")
	}
	v, ok := m.HeightmapAt(k)
	if !ok {
		t.Fatal("expected heightmap value to be present")
	}
	if v.Height != 1.5 || v.Clearance != 0.3 {
		t.Fatalf("HeightmapAt = %+v, want {1.5 0.3}", v)
	}
}
