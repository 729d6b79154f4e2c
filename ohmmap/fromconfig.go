package ohmmap

import (
	"github.com/data61/ohm/clearance"
	"github.com/data61/ohm/config"
	"github.com/data61/ohm/occupancy"
)

// NewMapFromConfig builds a Map from a MapConfig, applying its occupancy
// overrides on top of occupancy.DefaultParams, and configures its
// clearance process from a ClearanceConfig.
func NewMapFromConfig(mc *config.MapConfig, cc *config.ClearanceConfig) (*Map, error) {
	if err := mc.Validate(); err != nil {
		return nil, err
	}
	if err := cc.Validate(); err != nil {
		return nil, err
	}

	occ := mc.Occupancy.Apply(occupancy.DefaultParams())
	m, err := NewMap(mc.Resolution, mc.RegionVoxels, occ)
	if err != nil {
		return nil, err
	}

	m.process.SetSearchRadius(cc.SearchRadius)
	m.process.SetAxisScaling(cc.AxisScaling[0], cc.AxisScaling[1], cc.AxisScaling[2])
	m.process.SetTimeSlice(cc.TimeSlice)

	var flags clearance.Flags
	if cc.UnknownAsOccupied {
		flags |= clearance.UnknownAsOccupied
	}
	if cc.ReportUnscaledResults {
		flags |= clearance.ReportUnscaledResults
	}
	if cc.InstantiateUnknown {
		flags |= clearance.InstantiateUnknown
	}
	if cc.GPUEvaluate {
		flags |= clearance.GPUEvaluate
	}
	m.process.SetQueryFlags(flags)

	return m, nil
}
