package query

import (
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/data61/ohm/key"
)

func TestRegionsVisitsExpectedKeys(t *testing.T) {
	dims := key.Vec3I{X: 4, Y: 4, Z: 4}
	var mu sync.Mutex
	var visited []key.RegionKey

	Regions(dims, 1.0, key.Point3{X: 0, Y: 0, Z: 0}, key.Point3{X: 9, Y: 0, Z: 0}, func(rk key.RegionKey) int {
		mu.Lock()
		visited = append(visited, rk)
		mu.Unlock()
		return 1
	})

	sort.Slice(visited, func(i, j int) bool { return visited[i].X < visited[j].X })
	want := []key.RegionKey{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 2, Y: 0, Z: 0}}
	if len(visited) != len(want) {
		t.Fatalf("visited %d regions, want %d: %+v", len(visited), len(want), visited)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("visited[%d] = %+v, want %+v", i, visited[i], want[i])
		}
	}
}

func TestRegionsSumsWorkerResults(t *testing.T) {
	dims := key.Vec3I{X: 4, Y: 4, Z: 4}
	total := Regions(dims, 1.0, key.Point3{}, key.Point3{X: 3, Y: 3, Z: 3}, func(rk key.RegionKey) int {
		return 1
	})
	if total != 1 {
		t.Fatalf("total = %d, want 1 (single region covers this box)", total)
	}
}

func TestTileRegionSequentialVisitsEveryVoxelOnce(t *testing.T) {
	dims := key.Vec3I{X: 4, Y: 4, Z: 4}
	seen := make(map[key.LocalKey]int)
	TileRegion(dims, key.Vec3I{X: 2, Y: 2, Z: 2}, false, func(lk key.LocalKey) {
		seen[lk]++
	})
	if len(seen) != 4*4*4 {
		t.Fatalf("visited %d distinct voxels, want %d", len(seen), 4*4*4)
	}
	for lk, n := range seen {
		if n != 1 {
			t.Fatalf("voxel %+v visited %d times, want 1", lk, n)
		}
	}
}

func TestTileRegionParallelMatchesSequentialCount(t *testing.T) {
	dims := key.Vec3I{X: 8, Y: 8, Z: 8}
	var count int64
	TileRegion(dims, key.Vec3I{X: 3, Y: 3, Z: 3}, true, func(lk key.LocalKey) {
		atomic.AddInt64(&count, 1)
	})
	want := int64(8 * 8 * 8)
	if count != want {
		t.Fatalf("parallel visit count = %d, want %d", count, want)
	}
}

func TestTileRegionParallelAndSequentialProduceSameSet(t *testing.T) {
	dims := key.Vec3I{X: 6, Y: 5, Z: 3}

	var mu sync.Mutex
	seqSeen := make(map[key.LocalKey]bool)
	TileRegion(dims, key.Vec3I{X: 2, Y: 2, Z: 2}, false, func(lk key.LocalKey) {
		mu.Lock()
		seqSeen[lk] = true
		mu.Unlock()
	})

	parSeen := make(map[key.LocalKey]bool)
	TileRegion(dims, key.Vec3I{X: 2, Y: 2, Z: 2}, true, func(lk key.LocalKey) {
		mu.Lock()
		parSeen[lk] = true
		mu.Unlock()
	})

	if len(seqSeen) != len(parSeen) {
		t.Fatalf("sequential visited %d, parallel visited %d", len(seqSeen), len(parSeen))
	}
	for lk := range seqSeen {
		if !parSeen[lk] {
			t.Fatalf("voxel %+v visited sequentially but not in parallel", lk)
		}
	}
}
