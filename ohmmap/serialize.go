package ohmmap

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/data61/ohm/key"
	"github.com/data61/ohm/layout"
)

// layoutRecord is the on-disk description of a layout, written once at the
// head of a serialized map so LoadMap can validate compatibility before
// reading any chunks.
type layoutRecord struct {
	Layers []layerRecord
}

type layerRecord struct {
	Name     string
	ElemSize int
	Align    int
	Default  []byte
}

// chunkRecord is the gob-encodable form of a voxelstore.Chunk.
type chunkRecord struct {
	Region        key.RegionKey
	SpatialMin    key.Point3
	Layers        [][]byte
	TouchedStamps []uint64
}

// mapRecord is the full gob-encodable snapshot of a Map.
type mapRecord struct {
	ID           [16]byte
	Resolution   float64
	RegionVoxels int
	Layout       layoutRecord
	Chunks       []chunkRecord
}

// WriteTo gob-encodes the map's layout and every resident chunk, then
// compresses the result with zstd. The layout is written first so LoadMap
// can validate compatibility before trusting the chunk payload.
func (m *Map) WriteTo(w io.Writer) (int64, error) {
	rec := mapRecord{
		ID:           [16]byte(m.ID),
		Resolution:   m.Resolution(),
		RegionVoxels: m.Dims().X,
	}

	l := m.store.Layout()
	for i := 0; i < l.LayerCount(); i++ {
		layer, _ := l.Layer(i)
		rec.Layout.Layers = append(rec.Layout.Layers, layerRecord{
			Name:     layer.Name,
			ElemSize: layer.ElemSize,
			Align:    layer.Align,
			Default:  layer.Default,
		})
	}

	it := m.store.Iterate()
	for {
		c, ok := it.Next()
		if !ok {
			break
		}
		cr := chunkRecord{
			Region:        c.Region,
			SpatialMin:    c.SpatialMin,
			TouchedStamps: append([]uint64(nil), c.TouchedStamps...),
		}
		for i := 0; i < l.LayerCount(); i++ {
			block, ok := m.store.LayerBytes(c, i)
			if !ok {
				block = nil
			}
			cr.Layers = append(cr.Layers, append([]byte(nil), block...))
		}
		rec.Chunks = append(rec.Chunks, cr)
	}

	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return 0, fmt.Errorf("ohmmap: creating zstd writer: %w", err)
	}
	enc := gob.NewEncoder(zw)
	if err := enc.Encode(rec); err != nil {
		zw.Close()
		return 0, fmt.Errorf("ohmmap: encoding map: %w", err)
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("ohmmap: closing zstd writer: %w", err)
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// LoadMap decodes a map previously written by WriteTo, rebuilding the
// layout from the stream. It rejects a stream whose occupancy, mean,
// clearance or heightmap layer is missing or has an element size that does
// not match the type the map reads it as.
func LoadMap(r io.Reader) (*Map, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("ohmmap: creating zstd reader: %w", err)
	}
	defer zr.Close()

	var rec mapRecord
	dec := gob.NewDecoder(zr)
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("ohmmap: decoding map: %w", err)
	}

	l := layout.NewLayout()
	for _, lr := range rec.Layout.Layers {
		if _, err := l.AddLayer(lr.Name, lr.ElemSize, lr.Align, lr.Default); err != nil {
			return nil, fmt.Errorf("ohmmap: rebuilding layout: %w", err)
		}
	}

	m, err := newMapFromLayout(l, rec.Resolution, rec.RegionVoxels)
	if err != nil {
		return nil, err
	}
	m.ID = uuid.UUID(rec.ID)

	for _, cr := range rec.Chunks {
		chunk, ok := m.store.Region(cr.Region, true)
		if !ok {
			continue
		}
		chunk.SpatialMin = cr.SpatialMin
		copy(chunk.TouchedStamps, cr.TouchedStamps)
		for i, block := range cr.Layers {
			dst, ok := m.store.LayerBytes(chunk, i)
			if !ok || len(dst) != len(block) {
				return nil, fmt.Errorf("ohmmap: chunk %+v layer %d size mismatch on load", cr.Region, i)
			}
			copy(dst, block)
		}
	}

	return m, nil
}
