// Package archive is a cold-storage side store for chunks evicted from a
// live map (by ohmmap.Map.ArchiveAndExpire), so long-lived
// maps can shed memory without discarding history. It mirrors the
// teacher's straightforward sql.Open + inline schema pattern rather than a
// migration framework, since it owns exactly one table.
package archive

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/data61/ohm/key"
)

// Archive persists evicted region chunk blobs to a local sqlite database.
type Archive struct {
	db *sql.DB
}

// Open creates or attaches to the sqlite database at path, creating the
// schema if it does not already exist.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS regions (
			region_x   INTEGER NOT NULL,
			region_y   INTEGER NOT NULL,
			region_z   INTEGER NOT NULL,
			blob       BLOB NOT NULL,
			evicted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (region_x, region_y, region_z)
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Archive{db: db}, nil
}

// Close releases the underlying database handle.
func (a *Archive) Close() error { return a.db.Close() }

// Store upserts an encoded chunk blob for region rk.
func (a *Archive) Store(rk key.RegionKey, blob []byte) error {
	_, err := a.db.Exec(
		`INSERT INTO regions (region_x, region_y, region_z, blob, evicted_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(region_x, region_y, region_z) DO UPDATE SET blob = excluded.blob, evicted_at = excluded.evicted_at`,
		rk.X, rk.Y, rk.Z, blob, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("archive: storing region %+v: %w", rk, err)
	}
	return nil
}

// Load returns the archived blob for rk, if any.
func (a *Archive) Load(rk key.RegionKey) ([]byte, bool, error) {
	var blob []byte
	err := a.db.QueryRow(
		`SELECT blob FROM regions WHERE region_x = ? AND region_y = ? AND region_z = ?`,
		rk.X, rk.Y, rk.Z,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("archive: loading region %+v: %w", rk, err)
	}
	return blob, true, nil
}

// Delete removes the archived blob for rk, if present.
func (a *Archive) Delete(rk key.RegionKey) error {
	_, err := a.db.Exec(
		`DELETE FROM regions WHERE region_x = ? AND region_y = ? AND region_z = ?`,
		rk.X, rk.Y, rk.Z,
	)
	return err
}

// Count returns the number of archived regions.
func (a *Archive) Count() (int, error) {
	var n int
	err := a.db.QueryRow(`SELECT COUNT(*) FROM regions`).Scan(&n)
	return n, err
}
