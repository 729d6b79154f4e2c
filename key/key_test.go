package key

import "testing"

func TestFloorDivMod(t *testing.T) {
	cases := []struct{ a, b, q, r int }{
		{7, 4, 1, 3},
		{-1, 4, -1, 3},
		{-4, 4, -1, 0},
		{-5, 4, -2, 3},
		{0, 4, 0, 0},
	}
	for _, c := range cases {
		if q := FloorDiv(c.a, c.b); q != c.q {
			t.Errorf("FloorDiv(%d,%d) = %d, want %d", c.a, c.b, q, c.q)
		}
		if r := FloorMod(c.a, c.b); r != c.r {
			t.Errorf("FloorMod(%d,%d) = %d, want %d", c.a, c.b, r, c.r)
		}
	}
}

func TestKeyOfNegativeCoordinates(t *testing.T) {
	dims := Vec3I{X: 32, Y: 32, Z: 32}
	resolution := 0.1

	k := KeyOf(Point3{X: -0.05, Y: -0.05, Z: -0.05}, resolution, dims)
	if k.Region.X != -1 || k.Region.Y != -1 || k.Region.Z != -1 {
		t.Fatalf("expected region (-1,-1,-1), got %+v", k.Region)
	}
	if k.Local.X != 31 || k.Local.Y != 31 || k.Local.Z != 31 {
		t.Fatalf("expected local (31,31,31), got %+v", k.Local)
	}
}

func TestMoveCrossesRegionBoundary(t *testing.T) {
	dims := Vec3I{X: 4, Y: 4, Z: 4}
	k := Key{Region: RegionKey{0, 0, 0}, Local: LocalKey{3, 0, 0}}

	moved := Move(k, 1, 0, 0, dims)
	want := Key{Region: RegionKey{1, 0, 0}, Local: LocalKey{0, 0, 0}}
	if moved != want {
		t.Fatalf("Move() = %+v, want %+v", moved, want)
	}

	movedBack := Move(moved, -1, 0, 0, dims)
	if movedBack != k {
		t.Fatalf("Move() round trip = %+v, want %+v", movedBack, k)
	}
}

func TestCentreWorldRoundTrip(t *testing.T) {
	dims := Vec3I{X: 16, Y: 16, Z: 16}
	resolution := 0.25

	p := Point3{X: 12.3, Y: -4.6, Z: 0.05}
	k := KeyOf(p, resolution, dims)
	c := CentreWorld(k, resolution, dims)

	if k2 := KeyOf(c, resolution, dims); k2 != k {
		t.Fatalf("centre of key %+v mapped back to %+v", k, k2)
	}
}

func TestIsBounded(t *testing.T) {
	dims := Vec3I{X: 8, Y: 8, Z: 8}
	min := Key{Region: RegionKey{0, 0, 0}, Local: LocalKey{0, 0, 0}}
	max := Key{Region: RegionKey{1, 0, 0}, Local: LocalKey{7, 7, 7}}

	inside := Key{Region: RegionKey{0, 0, 0}, Local: LocalKey{5, 5, 5}}
	if !IsBounded(inside, min, max, dims) {
		t.Errorf("expected %+v to be bounded", inside)
	}

	outside := Key{Region: RegionKey{2, 0, 0}, Local: LocalKey{0, 0, 0}}
	if IsBounded(outside, min, max, dims) {
		t.Errorf("expected %+v to be out of bounds", outside)
	}
}

func TestNeighbours26Count(t *testing.T) {
	n := Neighbours26(RegionKey{0, 0, 0})
	if len(n) != 26 {
		t.Fatalf("expected 26 neighbours, got %d", len(n))
	}
	seen := map[RegionKey]bool{}
	for _, rk := range n {
		if seen[rk] {
			t.Fatalf("duplicate neighbour %+v", rk)
		}
		seen[rk] = true
	}
}

func TestNullKey(t *testing.T) {
	if !Null.IsNull() {
		t.Fatal("Null.IsNull() should be true")
	}
	k := KeyOf(Point3{}, 0.1, Vec3I{X: 8, Y: 8, Z: 8})
	if k.IsNull() {
		t.Fatal("a real key from KeyOf should not be null")
	}
}
