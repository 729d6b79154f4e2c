// Package occupancy defines log-odds occupancy semantics: the value/
// probability conversion, hit/miss updates and thresholds, and the
// sub-voxel mean-position accumulator.
package occupancy

import "math"

// Params bundles the tunables of the occupancy model. The float32 fields,
// OccupiedThreshold included, are in log-odds space; MaxSamples is a
// sample count.
type Params struct {
	HitValue          float32
	MissValue         float32
	MinValue          float32
	MaxValue          float32
	OccupiedThreshold float32
	UnobservedValue   float32
	MaxSamples        uint32
}

// UnobservedValue is the sentinel log-odds value meaning "never observed".
var UnobservedValue = float32(math.Inf(-1))

// DefaultParams returns reasonable defaults: +0.85 hit and -0.4 miss
// log-odds increments clamped to +/-4 (roughly [0.018, 0.982] probability),
// occupied threshold 0 (p = 0.5).
func DefaultParams() Params {
	return Params{
		HitValue:          0.85,
		MissValue:         -0.4,
		MinValue:          -4,
		MaxValue:          4,
		OccupiedThreshold: 0,
		UnobservedValue:   UnobservedValue,
		MaxSamples:        0,
	}
}

// ValueToProbability converts a log-odds value to an occupancy probability
// in [0, 1]. A value of -Inf (unobserved) always maps to exactly 0,
// matching the boundary case the naive 1 - 1/(1+exp(v)) formula would
// otherwise leave to floating point behaviour.
func ValueToProbability(v float32) float32 {
	if math.IsInf(float64(v), -1) {
		return 0
	}
	return float32(1 - 1/(1+math.Exp(float64(v))))
}

// ProbabilityToValue converts a probability in (0, 1) to a log-odds value.
// p <= 0 maps to -Inf; p >= 1 maps to +Inf.
func ProbabilityToValue(p float32) float32 {
	if p <= 0 {
		return float32(math.Inf(-1))
	}
	if p >= 1 {
		return float32(math.Inf(1))
	}
	return float32(math.Log(float64(p) / float64(1-p)))
}

// clamp restricts v to [lo, hi].
func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Hit applies a hit update to the current log-odds value, treating an
// unobserved voxel as starting from 0 (p = 0.5) before adding HitValue, and
// clamps the result to [MinValue, MaxValue].
func (p Params) Hit(current float32) float32 {
	if p.IsUnobserved(current) {
		current = 0
	}
	return clamp(current+p.HitValue, p.MinValue, p.MaxValue)
}

// Miss applies a miss update, symmetric to Hit.
func (p Params) Miss(current float32) float32 {
	if p.IsUnobserved(current) {
		current = 0
	}
	return clamp(current+p.MissValue, p.MinValue, p.MaxValue)
}

// IsUnobserved reports whether v is the sentinel "never observed" value.
func (p Params) IsUnobserved(v float32) bool {
	return math.IsInf(float64(v), -1)
}

// IsOccupied reports whether v is observed and at or above the occupied
// threshold.
func (p Params) IsOccupied(v float32) bool {
	return !p.IsUnobserved(v) && v >= p.OccupiedThreshold
}

// IsFree reports whether v is observed and below the occupied threshold.
func (p Params) IsFree(v float32) bool {
	return !p.IsUnobserved(v) && v < p.OccupiedThreshold
}

// Mean accumulates a running sub-voxel centroid offset from the voxel
// centre, in fixed units of the voxel's resolution, plus a saturating
// sample count.
type Mean struct {
	OffsetX, OffsetY, OffsetZ float32
	Count                     uint32
}

// UpdateMean folds a new sub-voxel offset sample into m using running-mean
// accumulation, saturating the sample count at maxSamples (0 means
// unbounded).
func UpdateMean(m Mean, sampleX, sampleY, sampleZ float32, maxSamples uint32) Mean {
	if maxSamples != 0 && m.Count >= maxSamples {
		m.Count = maxSamples
		return m
	}
	n := float32(m.Count + 1)
	m.OffsetX += (sampleX - m.OffsetX) / n
	m.OffsetY += (sampleY - m.OffsetY) / n
	m.OffsetZ += (sampleZ - m.OffsetZ) / n
	m.Count++
	return m
}
