package archive

import (
	"path/filepath"
	"testing"

	"github.com/data61/ohm/key"
)

func TestStoreLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	a, err := Open(filepath.Join(dir, "archive.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	rk := key.RegionKey{X: 1, Y: -2, Z: 3}
	blob := []byte{1, 2, 3, 4, 5}

	if err := a.Store(rk, blob); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, ok, err := a.Load(rk)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("expected region to be present")
	}
	if string(got) != string(blob) {
		t.Fatalf("Load = %v, want %v", got, blob)
	}

	n, err := a.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Fatalf("Count = %d, want 1", n)
	}
}

func TestStoreUpsertsOnConflict(t *testing.T) {
	dir := t.TempDir()
	a, err := Open(filepath.Join(dir, "archive.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	rk := key.RegionKey{X: 0, Y: 0, Z: 0}
	if err := a.Store(rk, []byte{1}); err != nil {
		t.Fatalf("first Store: %v", err)
	}
	if err := a.Store(rk, []byte{2}); err != nil {
		t.Fatalf("second Store: %v", err)
	}

	got, _, _ := a.Load(rk)
	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("Load = %v, want [2]", got)
	}

	n, _ := a.Count()
	if n != 1 {
		t.Fatalf("Count = %d, want 1 (upsert should not duplicate)", n)
	}
}

func TestLoadMissingRegion(t *testing.T) {
	dir := t.TempDir()
	a, err := Open(filepath.Join(dir, "archive.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	_, ok, err := a.Load(key.RegionKey{X: 99, Y: 99, Z: 99})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Fatal("expected missing region to report ok=false")
	}
}

func TestDelete(t *testing.T) {
	dir := t.TempDir()
	a, err := Open(filepath.Join(dir, "archive.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	rk := key.RegionKey{X: 5, Y: 5, Z: 5}
	a.Store(rk, []byte{9})
	if err := a.Delete(rk); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, ok, _ := a.Load(rk)
	if ok {
		t.Fatal("expected region to be gone after Delete")
	}
}
