package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClearanceConfigValidate(t *testing.T) {
	c := DefaultClearanceConfig()
	require.NoError(t, c.Validate(), "default config should validate")

	c.WithSearchRadius(-1)
	assert.Error(t, c.Validate(), "expected error for negative search radius")
}

func TestMapConfigBuilderChaining(t *testing.T) {
	c := DefaultMapConfig().WithResolution(0.05).WithRegionVoxels(16)
	assert.Equal(t, 0.05, c.Resolution)
	assert.Equal(t, 16, c.RegionVoxels)
	require.NoError(t, c.Validate())
}

func TestLoadOverridesAppliesPartialFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overrides.json")
	body := `{
		"map": {"resolution": 0.2},
		"clearance": {"time_slice_ms": 50}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	m, c, err := LoadOverrides(path, DefaultMapConfig(), DefaultClearanceConfig())
	require.NoError(t, err)

	assert.Equal(t, 0.2, m.Resolution)
	assert.Equal(t, DefaultMapConfig().RegionVoxels, m.RegionVoxels, "RegionVoxels should remain default")
	assert.Equal(t, 50*time.Millisecond, c.TimeSlice)
	assert.Equal(t, DefaultClearanceConfig().SearchRadius, c.SearchRadius, "SearchRadius should remain default")
}

func TestLoadOverridesRejectsInvalidResult(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	body := `{"map": {"resolution": -1}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, _, err := LoadOverrides(path, DefaultMapConfig(), DefaultClearanceConfig())
	assert.Error(t, err, "expected validation error for negative resolution")
}
