package occupancy

import (
	"math"
	"testing"
)

func TestValueToProbabilityNegativeInfinity(t *testing.T) {
	if p := ValueToProbability(float32(math.Inf(-1))); p != 0 {
		t.Fatalf("ValueToProbability(-Inf) = %f, want 0", p)
	}
}

func TestValueToProbabilityZeroIsHalf(t *testing.T) {
	p := ValueToProbability(0)
	if math.Abs(float64(p)-0.5) > 1e-6 {
		t.Fatalf("ValueToProbability(0) = %f, want 0.5", p)
	}
}

func TestProbabilityValueRoundTrip(t *testing.T) {
	for _, p := range []float32{0.1, 0.25, 0.5, 0.75, 0.9} {
		v := ProbabilityToValue(p)
		got := ValueToProbability(v)
		if math.Abs(float64(got-p)) > 1e-5 {
			t.Errorf("round trip p=%f -> v=%f -> p=%f", p, v, got)
		}
	}
}

func TestHitMissClamping(t *testing.T) {
	params := DefaultParams()
	v := params.MaxValue
	for i := 0; i < 100; i++ {
		v = params.Hit(v)
	}
	if v != params.MaxValue {
		t.Fatalf("Hit should clamp at MaxValue, got %f", v)
	}

	v = params.MinValue
	for i := 0; i < 100; i++ {
		v = params.Miss(v)
	}
	if v != params.MinValue {
		t.Fatalf("Miss should clamp at MinValue, got %f", v)
	}
}

func TestHitFromUnobserved(t *testing.T) {
	params := DefaultParams()
	v := params.Hit(UnobservedValue)
	if v != params.HitValue {
		t.Fatalf("Hit from unobserved = %f, want %f", v, params.HitValue)
	}
}

func TestIsOccupiedIsFree(t *testing.T) {
	params := DefaultParams()
	if params.IsOccupied(UnobservedValue) {
		t.Fatal("unobserved voxel should not be occupied")
	}
	if params.IsFree(UnobservedValue) {
		t.Fatal("unobserved voxel should not be free")
	}
	if !params.IsOccupied(1.0) {
		t.Fatal("value above threshold should be occupied")
	}
	if !params.IsFree(-1.0) {
		t.Fatal("value below threshold should be free")
	}
}

func TestUpdateMeanSaturates(t *testing.T) {
	var m Mean
	for i := 0; i < 10; i++ {
		m = UpdateMean(m, 1, 0, 0, 3)
	}
	if m.Count != 3 {
		t.Fatalf("Count = %d, want 3 (saturated)", m.Count)
	}
}

func TestUpdateMeanConverges(t *testing.T) {
	var m Mean
	for i := 0; i < 50; i++ {
		m = UpdateMean(m, 0.5, -0.25, 0.1, 0)
	}
	if math.Abs(float64(m.OffsetX-0.5)) > 1e-4 {
		t.Fatalf("OffsetX = %f, want ~0.5", m.OffsetX)
	}
}
