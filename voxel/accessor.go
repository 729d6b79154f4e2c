// Package voxel provides typed read/write access to a single layer's data
// inside a voxelstore.Store, reinterpreting each voxel's raw bytes as a
// fixed-size value type T.
package voxel

import (
	"unsafe"

	"github.com/data61/ohm/key"
	"github.com/data61/ohm/voxelstore"
)

// Accessor reads and writes voxels of type T in one layer of a store. The
// zero value is not usable; construct with NewAccessor. An Accessor is
// bound to a single goroutine's use at a time: it is not safe for
// concurrent SetKey/Read/Write calls from multiple goroutines, mirroring
// the store's single-writer discipline.
type Accessor[T any] struct {
	store     *voxelstore.Store
	layerIdx  int
	elemSize  int
	current   key.Key
	chunk     *voxelstore.Chunk
	block     []byte
	voxelSize int
}

// NewAccessor binds an Accessor to the named layer of store. Returns
// (nil, false) if the layer does not exist or its element size does not
// match T's size.
func NewAccessor[T any](store *voxelstore.Store, layerName string) (*Accessor[T], bool) {
	idx, ok := store.Layout().LayerIndex(layerName)
	if !ok {
		return nil, false
	}
	elemSize, ok := store.Layout().VoxelByteSize(idx)
	if !ok {
		return nil, false
	}
	var zero T
	if int(unsafe.Sizeof(zero)) != elemSize {
		return nil, false
	}
	return &Accessor[T]{store: store, layerIdx: idx, elemSize: elemSize, current: key.Null}, true
}

// SetKey points the accessor at k, instantiating the region if instantiate
// is true. Returns whether the accessor is now valid (chunk resident and
// key resolvable).
func (a *Accessor[T]) SetKey(k key.Key, instantiate bool) bool {
	a.current = k
	a.chunk = nil
	a.block = nil

	if k.IsNull() {
		return false
	}
	chunk, ok := a.store.Region(k.Region, instantiate)
	if !ok {
		return false
	}
	block, ok := a.store.LayerBytes(chunk, a.layerIdx)
	if !ok {
		return false
	}
	a.chunk = chunk
	a.block = block
	return true
}

// Key returns the accessor's current key.
func (a *Accessor[T]) Key() key.Key { return a.current }

// IsValid reports whether the accessor currently points at resident voxel
// storage.
func (a *Accessor[T]) IsValid() bool { return a.chunk != nil && a.block != nil }

func (a *Accessor[T]) offset() int {
	return a.store.VoxelOffset(a.current.Local, a.elemSize)
}

// Read returns the voxel's current value. The second return is false if
// the accessor is not valid.
func (a *Accessor[T]) Read() (T, bool) {
	var zero T
	if !a.IsValid() {
		return zero, false
	}
	off := a.offset()
	if off < 0 || off+a.elemSize > len(a.block) {
		return zero, false
	}
	return *(*T)(unsafe.Pointer(&a.block[off])), true
}

// Write stores v at the voxel and bumps the layer's touched stamp. Returns
// false if the accessor is not valid; the write is otherwise unconditional
// (no read-modify-write races are resolved — callers own their own
// synchronization when sharing an accessor's target chunk).
func (a *Accessor[T]) Write(v T) bool {
	if !a.IsValid() {
		return false
	}
	off := a.offset()
	if off < 0 || off+a.elemSize > len(a.block) {
		return false
	}
	*(*T)(unsafe.Pointer(&a.block[off])) = v
	a.chunk.Touch(a.layerIdx, a.store.NextStamp())
	return true
}

// LayerIndex returns the layout layer index this accessor is bound to.
func (a *Accessor[T]) LayerIndex() int { return a.layerIdx }
