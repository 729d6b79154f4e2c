package ohmmap

import (
	"github.com/data61/ohm/key"
	"github.com/data61/ohm/occupancy"
)

// MeanAt returns the sub-voxel mean accumulator at k without instantiating
// its region.
func (m *Map) MeanAt(k key.Key) (occupancy.Mean, bool) {
	if !m.meanAccessor.SetKey(k, false) {
		return occupancy.Mean{}, false
	}
	return m.meanAccessor.Read()
}

// UpdateMeanAt folds a new sub-voxel sample offset (in resolution units
// from the voxel centre) into k's mean accumulator, instantiating the
// region if needed.
func (m *Map) UpdateMeanAt(k key.Key, sampleX, sampleY, sampleZ float32) bool {
	if !m.meanAccessor.SetKey(k, true) {
		return false
	}
	current, _ := m.meanAccessor.Read()
	updated := occupancy.UpdateMean(current, sampleX, sampleY, sampleZ, m.occ.MaxSamples)
	return m.meanAccessor.Write(updated)
}
