// Package store persists instance snapshots. Snapshots are the
// serializer's plain maps encoded as canonical CBOR, keyed by instance id
// and indexed by class name, behind any registered database/sql driver.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/chazu/tabletalk/object"
	"github.com/chazu/tabletalk/wire"
)

// ErrNotFound is returned when no snapshot exists under the requested id.
var ErrNotFound = errors.New("store: snapshot not found")

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id    TEXT PRIMARY KEY,
	class TEXT NOT NULL,
	data  BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS snapshots_class ON snapshots (class);
`

// Store is a snapshot archive over one SQL database.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects and prepares the snapshot table. The drivers file wires
// sqlite and duckdb; any other registered driver name works too.
func Open(driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", driver, err)
	}
	s := &Store{db: db, driver: driver}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	if s.driver == "sqlite" {
		if _, err := s.db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
			return fmt.Errorf("store: set busy timeout: %w", err)
		}
	}
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("store: create schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save serializes the instance and upserts its snapshot.
func (s *Store) Save(ref *object.Ref) error {
	data, err := ref.Serialize()
	if err != nil {
		return err
	}
	blob, err := wire.Marshal(data)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO snapshots (id, class, data) VALUES (?, ?, ?)",
		ref.ID(), ref.Class().Name(), blob,
	)
	if err != nil {
		return fmt.Errorf("store: save %s: %w", ref.ID(), err)
	}
	return nil
}

// SaveAll saves every snapshot in one transaction.
func (s *Store) SaveAll(refs ...*object.Ref) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	stmt, err := tx.Prepare("INSERT OR REPLACE INTO snapshots (id, class, data) VALUES (?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("store: prepare: %w", err)
	}
	defer stmt.Close()

	for _, ref := range refs {
		data, err := ref.Serialize()
		if err != nil {
			tx.Rollback()
			return err
		}
		blob, err := wire.Marshal(data)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := stmt.Exec(ref.ID(), ref.Class().Name(), blob); err != nil {
			tx.Rollback()
			return fmt.Errorf("store: save %s: %w", ref.ID(), err)
		}
	}
	return tx.Commit()
}

// Data fetches one snapshot as a plain map without rebuilding an instance.
func (s *Store) Data(id string) (map[string]any, error) {
	var blob []byte
	err := s.db.QueryRow("SELECT data FROM snapshots WHERE id = ?", id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: load %s: %w", id, err)
	}
	return wire.Unmarshal(blob)
}

// Load fetches a snapshot and restores it through the registry.
func (s *Store) Load(reg *object.Registry, id string) (*object.Ref, error) {
	data, err := s.Data(id)
	if err != nil {
		return nil, err
	}
	return reg.Restore(data)
}

// LoadByClass restores every snapshot saved under the given class name.
func (s *Store) LoadByClass(reg *object.Registry, className string) ([]*object.Ref, error) {
	rows, err := s.db.Query("SELECT data FROM snapshots WHERE class = ? ORDER BY id", className)
	if err != nil {
		return nil, fmt.Errorf("store: query class %s: %w", className, err)
	}
	defer rows.Close()

	var refs []*object.Ref
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		data, err := wire.Unmarshal(blob)
		if err != nil {
			return nil, err
		}
		ref, err := reg.Restore(data)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// Delete removes a snapshot.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM snapshots WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Entry is one row of the snapshot listing.
type Entry struct {
	ID    string
	Class string
}

// List enumerates stored snapshots ordered by id.
func (s *Store) List() ([]Entry, error) {
	rows, err := s.db.Query("SELECT id, class FROM snapshots ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Class); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
