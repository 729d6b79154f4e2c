package ohmmap

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/data61/ohm/key"
	"github.com/data61/ohm/ohmmap/archive"
)

// ArchiveAndExpire moves every region whose LastAccess predates before out
// of the live store and into a, then removes it from the store. Regions
// that fail to archive are left in the store so they are not silently
// lost.
func (m *Map) ArchiveAndExpire(a *archive.Archive, before time.Time) (archived int, err error) {
	it := m.store.Iterate()
	var stale []key.RegionKey
	for {
		c, ok := it.Next()
		if !ok {
			break
		}
		if c.LastAccess.Before(before) {
			stale = append(stale, c.Region)
		}
	}

	for _, rk := range stale {
		c, ok := m.store.FindRegion(rk)
		if !ok {
			continue
		}
		cr := chunkRecord{
			Region:        c.Region,
			SpatialMin:    c.SpatialMin,
			TouchedStamps: append([]uint64(nil), c.TouchedStamps...),
		}
		for i := 0; i < m.store.Layout().LayerCount(); i++ {
			block, _ := m.store.LayerBytes(c, i)
			cr.Layers = append(cr.Layers, append([]byte(nil), block...))
		}

		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(cr); err != nil {
			return archived, fmt.Errorf("ohmmap: encoding region %+v for archive: %w", rk, err)
		}
		if err := a.Store(rk, buf.Bytes()); err != nil {
			return archived, err
		}
		m.store.RemoveRegion(rk)
		archived++
	}
	return archived, nil
}

// RestoreFromArchive loads a previously archived region back into the live
// store, if present.
func (m *Map) RestoreFromArchive(a *archive.Archive, rk key.RegionKey) (bool, error) {
	blob, ok, err := a.Load(rk)
	if err != nil || !ok {
		return false, err
	}

	var cr chunkRecord
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&cr); err != nil {
		return false, fmt.Errorf("ohmmap: decoding archived region %+v: %w", rk, err)
	}

	chunk, ok := m.store.Region(rk, true)
	if !ok {
		return false, fmt.Errorf("ohmmap: could not instantiate region %+v", rk)
	}
	chunk.SpatialMin = cr.SpatialMin
	copy(chunk.TouchedStamps, cr.TouchedStamps)
	for i, block := range cr.Layers {
		dst, ok := m.store.LayerBytes(chunk, i)
		if !ok || len(dst) != len(block) {
			return false, fmt.Errorf("ohmmap: region %+v layer %d size mismatch on restore", rk, i)
		}
		copy(dst, block)
	}
	return true, nil
}
