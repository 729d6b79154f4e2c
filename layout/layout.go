// Package layout describes the per-voxel data layers a chunk store carries:
// their names, element sizes, alignments and default (unobserved) byte
// patterns. A Layout is built once with AddLayer calls, then sealed before
// the first chunk is instantiated against it.
package layout

import "fmt"

// Layer describes a single per-voxel data layer.
type Layer struct {
	Name     string
	ElemSize int
	Align    int
	Default  []byte
}

// Layout is an ordered, named set of layers shared by every chunk in a
// store. It is mutable only until Seal is called.
type Layout struct {
	layers []Layer
	byName map[string]int
	sealed bool
}

// NewLayout returns an empty, unsealed layout.
func NewLayout() *Layout {
	return &Layout{byName: make(map[string]int)}
}

// AddLayer appends a new layer definition. def is copied and used to
// initialise every voxel's storage for this layer when a chunk's block for
// the layer is first allocated; its length must equal elemSize. Returns the new layer's index.
func (l *Layout) AddLayer(name string, elemSize, align int, def []byte) (int, error) {
	if l.sealed {
		return -1, fmt.Errorf("layout: cannot add layer %q: layout is sealed", name)
	}
	if _, exists := l.byName[name]; exists {
		return -1, fmt.Errorf("layout: layer %q already exists", name)
	}
	if elemSize <= 0 {
		return -1, fmt.Errorf("layout: layer %q: elemSize must be positive, got %d", name, elemSize)
	}
	if align <= 0 {
		align = 1
	}
	if align&(align-1) != 0 || align > 16 {
		return -1, fmt.Errorf("layout: layer %q: align must be a power of two <= 16, got %d", name, align)
	}
	if len(def) != elemSize {
		return -1, fmt.Errorf("layout: layer %q: default byte length %d does not match elemSize %d", name, len(def), elemSize)
	}

	idx := len(l.layers)
	defCopy := make([]byte, len(def))
	copy(defCopy, def)

	l.layers = append(l.layers, Layer{
		Name:     name,
		ElemSize: elemSize,
		Align:    align,
		Default:  defCopy,
	})
	l.byName[name] = idx
	return idx, nil
}

// Seal freezes the layout so no further layers can be added. Sealing is
// idempotent.
func (l *Layout) Seal() { l.sealed = true }

// Sealed reports whether Seal has been called.
func (l *Layout) Sealed() bool { return l.sealed }

// LayerCount returns the number of layers in the layout.
func (l *Layout) LayerCount() int { return len(l.layers) }

// LayerIndex returns the index of the named layer, if present.
func (l *Layout) LayerIndex(name string) (int, bool) {
	idx, ok := l.byName[name]
	return idx, ok
}

// Layer returns the layer definition at index i.
func (l *Layout) Layer(i int) (Layer, bool) {
	if i < 0 || i >= len(l.layers) {
		return Layer{}, false
	}
	return l.layers[i], true
}

// VoxelByteSize returns the per-voxel byte size of the layer at index i.
func (l *Layout) VoxelByteSize(i int) (int, bool) {
	layer, ok := l.Layer(i)
	if !ok {
		return 0, false
	}
	return layer.ElemSize, true
}

// DefaultBytes returns a fresh copy of the default byte pattern for the
// layer at index i.
func (l *Layout) DefaultBytes(i int) ([]byte, bool) {
	layer, ok := l.Layer(i)
	if !ok {
		return nil, false
	}
	out := make([]byte, len(layer.Default))
	copy(out, layer.Default)
	return out, true
}
