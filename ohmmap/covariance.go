package ohmmap

import (
	"unsafe"

	"gonum.org/v1/gonum/mat"

	"github.com/data61/ohm/key"
)

// covariancePacked is the six independent entries of a symmetric 3x3
// covariance matrix, stored upper-triangle row-major: xx, xy, xz, yy, yz,
// zz. This mirrors the packed layout an NDT voxel map keeps per voxel;
// fusing new samples into the covariance (the actual NDT update rule) is
// out of scope here, so only the pack/unpack conversions are provided.
type covariancePacked [6]float32

// CovarianceAt returns the covariance matrix stored at k, or false if the
// region is not resident.
func (m *Map) CovarianceAt(k key.Key) (*mat.SymDense, bool) {
	idx, ok := m.store.Layout().LayerIndex(LayerCovariance)
	if !ok {
		return nil, false
	}
	chunk, ok := m.store.FindRegion(k.Region)
	if !ok {
		return nil, false
	}
	block, ok := m.store.LayerBytes(chunk, idx)
	if !ok {
		return nil, false
	}
	off := m.store.VoxelOffset(k.Local, covarianceElemSize)
	if off < 0 || off+covarianceElemSize > len(block) {
		return nil, false
	}
	packed := *(*covariancePacked)(unsafe.Pointer(&block[off]))
	return unpackSymmetric(packed), true
}

// SetCovarianceAt writes the upper triangle of cov into the covariance
// layer at k, instantiating the region if needed. Returns false if cov is
// not 3x3.
func (m *Map) SetCovarianceAt(k key.Key, cov *mat.SymDense) bool {
	if cov.SymmetricDim() != 3 {
		return false
	}
	idx, ok := m.store.Layout().LayerIndex(LayerCovariance)
	if !ok {
		return false
	}
	chunk, ok := m.store.Region(k.Region, true)
	if !ok {
		return false
	}
	block, ok := m.store.LayerBytes(chunk, idx)
	if !ok {
		return false
	}
	off := m.store.VoxelOffset(k.Local, covarianceElemSize)
	if off < 0 || off+covarianceElemSize > len(block) {
		return false
	}
	packed := packSymmetric(cov)
	*(*covariancePacked)(unsafe.Pointer(&block[off])) = packed
	chunk.Touch(idx, m.store.NextStamp())
	return true
}

func packSymmetric(cov *mat.SymDense) covariancePacked {
	return covariancePacked{
		float32(cov.At(0, 0)), float32(cov.At(0, 1)), float32(cov.At(0, 2)),
		float32(cov.At(1, 1)), float32(cov.At(1, 2)),
		float32(cov.At(2, 2)),
	}
}

func unpackSymmetric(p covariancePacked) *mat.SymDense {
	data := []float64{
		float64(p[0]), float64(p[1]), float64(p[2]),
		float64(p[1]), float64(p[3]), float64(p[4]),
		float64(p[2]), float64(p[4]), float64(p[5]),
	}
	return mat.NewSymDense(3, data)
}
