// Package config provides fluent configuration builders for the clearance
// process and the top-level map, plus JSON override loading for the
// tunables an operator might want to adjust without recompiling.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/data61/ohm/occupancy"
)

// ClearanceConfig configures a clearance.Process before construction.
type ClearanceConfig struct {
	SearchRadius          float64       // metres (default: 2.0)
	AxisScaling           [3]float64    // per-axis distance weighting (default: 1,1,1)
	UnknownAsOccupied     bool          // default: false
	ReportUnscaledResults bool          // default: false
	InstantiateUnknown    bool          // default: false
	GPUEvaluate           bool          // default: false
	TimeSlice             time.Duration // stored via Process.SetTimeSlice; Update takes its own budget argument (default: 10ms)
}

// DefaultClearanceConfig returns the operational defaults.
func DefaultClearanceConfig() *ClearanceConfig {
	return &ClearanceConfig{
		SearchRadius: 2.0,
		AxisScaling:  [3]float64{1, 1, 1},
		TimeSlice:    10 * time.Millisecond,
	}
}

// WithSearchRadius sets the obstacle search radius in metres.
func (c *ClearanceConfig) WithSearchRadius(r float64) *ClearanceConfig {
	c.SearchRadius = r
	return c
}

// WithAxisScaling sets the per-axis distance scaling.
func (c *ClearanceConfig) WithAxisScaling(x, y, z float64) *ClearanceConfig {
	c.AxisScaling = [3]float64{x, y, z}
	return c
}

// WithUnknownAsOccupied toggles treating unobserved voxels as obstacles.
func (c *ClearanceConfig) WithUnknownAsOccupied(v bool) *ClearanceConfig {
	c.UnknownAsOccupied = v
	return c
}

// WithReportUnscaledResults toggles reporting raw (unscaled) distances.
func (c *ClearanceConfig) WithReportUnscaledResults(v bool) *ClearanceConfig {
	c.ReportUnscaledResults = v
	return c
}

// WithInstantiateUnknown toggles instantiating unknown regions during
// search rather than treating them as absent.
func (c *ClearanceConfig) WithInstantiateUnknown(v bool) *ClearanceConfig {
	c.InstantiateUnknown = v
	return c
}

// WithGPUEvaluate toggles attempting the GPU code path before falling back
// to CPU brute force.
func (c *ClearanceConfig) WithGPUEvaluate(v bool) *ClearanceConfig {
	c.GPUEvaluate = v
	return c
}

// WithTimeSlice sets the wall-clock budget stored on the clearance process.
func (c *ClearanceConfig) WithTimeSlice(d time.Duration) *ClearanceConfig {
	c.TimeSlice = d
	return c
}

// Validate checks the configuration is usable.
func (c *ClearanceConfig) Validate() error {
	if c.SearchRadius <= 0 {
		return fmt.Errorf("SearchRadius must be positive, got %f", c.SearchRadius)
	}
	for i, s := range c.AxisScaling {
		if s <= 0 {
			return fmt.Errorf("AxisScaling[%d] must be positive, got %f", i, s)
		}
	}
	if c.TimeSlice < 0 {
		return fmt.Errorf("TimeSlice must be non-negative, got %v", c.TimeSlice)
	}
	return nil
}

// MapConfig configures a top-level map before construction.
type MapConfig struct {
	Resolution   float64 // metres per voxel edge (default: 0.1)
	RegionVoxels int     // voxels per region edge (default: 32)
	Occupancy    OccupancyOverrides
}

// OccupancyOverrides carries optional overrides for occupancy.Params; nil
// fields fall back to occupancy.DefaultParams().
type OccupancyOverrides struct {
	HitValue          *float32 `json:"hit_value,omitempty"`
	MissValue         *float32 `json:"miss_value,omitempty"`
	MinValue          *float32 `json:"min_value,omitempty"`
	MaxValue          *float32 `json:"max_value,omitempty"`
	OccupiedThreshold *float32 `json:"occupied_threshold,omitempty"`
	MaxSamples        *uint32  `json:"max_samples,omitempty"`
}

// Apply returns base with every non-nil override field substituted in.
func (o OccupancyOverrides) Apply(base occupancy.Params) occupancy.Params {
	if o.HitValue != nil {
		base.HitValue = *o.HitValue
	}
	if o.MissValue != nil {
		base.MissValue = *o.MissValue
	}
	if o.MinValue != nil {
		base.MinValue = *o.MinValue
	}
	if o.MaxValue != nil {
		base.MaxValue = *o.MaxValue
	}
	if o.OccupiedThreshold != nil {
		base.OccupiedThreshold = *o.OccupiedThreshold
	}
	if o.MaxSamples != nil {
		base.MaxSamples = *o.MaxSamples
	}
	return base
}

// DefaultMapConfig returns the operational defaults.
func DefaultMapConfig() *MapConfig {
	return &MapConfig{
		Resolution:   0.1,
		RegionVoxels: 32,
	}
}

// WithResolution sets the voxel edge length in metres.
func (c *MapConfig) WithResolution(r float64) *MapConfig {
	c.Resolution = r
	return c
}

// WithRegionVoxels sets the number of voxels per region edge.
func (c *MapConfig) WithRegionVoxels(n int) *MapConfig {
	c.RegionVoxels = n
	return c
}

// WithOccupancyOverrides sets partial occupancy parameter overrides.
func (c *MapConfig) WithOccupancyOverrides(o OccupancyOverrides) *MapConfig {
	c.Occupancy = o
	return c
}

// Validate checks the configuration is usable.
func (c *MapConfig) Validate() error {
	if c.Resolution <= 0 {
		return fmt.Errorf("Resolution must be positive, got %f", c.Resolution)
	}
	if c.RegionVoxels <= 0 {
		return fmt.Errorf("RegionVoxels must be positive, got %d", c.RegionVoxels)
	}
	return nil
}

// overridesFile is the on-disk shape LoadOverrides reads: a JSON object
// with top-level "map" and "clearance" sections, both optional.
type overridesFile struct {
	Map       *mapOverrides       `json:"map,omitempty"`
	Clearance *clearanceOverrides `json:"clearance,omitempty"`
}

type mapOverrides struct {
	Resolution   *float64            `json:"resolution,omitempty"`
	RegionVoxels *int                `json:"region_voxels,omitempty"`
	Occupancy    *OccupancyOverrides `json:"occupancy,omitempty"`
}

type clearanceOverrides struct {
	SearchRadius *float64 `json:"search_radius,omitempty"`
	TimeSliceMs  *int64   `json:"time_slice_ms,omitempty"`
}

// LoadOverrides reads a JSON overrides file and applies any fields it sets
// on top of the given defaults, leaving unset fields untouched. Returns
// distinct map and clearance configs.
func LoadOverrides(path string, mapDefault *MapConfig, clearanceDefault *ClearanceConfig) (*MapConfig, *ClearanceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("config: reading overrides file %q: %w", path, err)
	}

	var f overridesFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("config: parsing overrides file %q: %w", path, err)
	}

	m := *mapDefault
	if f.Map != nil {
		if f.Map.Resolution != nil {
			m.Resolution = *f.Map.Resolution
		}
		if f.Map.RegionVoxels != nil {
			m.RegionVoxels = *f.Map.RegionVoxels
		}
		if f.Map.Occupancy != nil {
			m.Occupancy = *f.Map.Occupancy
		}
	}

	c := *clearanceDefault
	if f.Clearance != nil {
		if f.Clearance.SearchRadius != nil {
			c.SearchRadius = *f.Clearance.SearchRadius
		}
		if f.Clearance.TimeSliceMs != nil {
			c.TimeSlice = time.Duration(*f.Clearance.TimeSliceMs) * time.Millisecond
		}
	}

	if err := m.Validate(); err != nil {
		return nil, nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	return &m, &c, nil
}
