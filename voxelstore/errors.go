package voxelstore

import (
	"fmt"

	"github.com/data61/ohm/key"
)

func errInvalidDims(dims key.Vec3I) error {
	return fmt.Errorf("voxelstore: region dims must be positive, got %+v", dims)
}

func errInvalidResolution(r float64) error {
	return fmt.Errorf("voxelstore: resolution must be positive, got %f", r)
}
