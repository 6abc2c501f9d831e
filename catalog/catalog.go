// Package catalog implements the identifier catalog (spec.md §4.1–4.2):
// a small multi-writer on-disk store shared by concurrent instrumentation
// jobs, mapping (file path, function name, basic-block line range) to
// the opaque 64-bit IDs embedded in emitted probes.
package catalog

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

const sqlCreateTables = `
CREATE TABLE IF NOT EXISTS FILENAMES (
	ID INTEGER PRIMARY KEY AUTOINCREMENT,
	NAME TEXT
);
CREATE TABLE IF NOT EXISTS FUNCNAMES (
	ID INTEGER PRIMARY KEY AUTOINCREMENT,
	NAME TEXT
);
CREATE TABLE IF NOT EXISTS BBLS (
	ID INTEGER PRIMARY KEY AUTOINCREMENT,
	FID INTEGER,
	LINESTART INTEGER,
	LINEEND INTEGER
);
`

// Store is a slot-scoped handle onto one compilation job's debuginfo<slot>.db.
// All three relations (files, functions, basic blocks) are append-only
// within the lifetime of a Store, per spec.md §3.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	dir  string
	slot int64

	knownFiles map[string]int64
	knownFuncs map[string]int64
}

// debuginfoPath returns the slot-scoped relation file path for dir/slot.
func debuginfoPath(dir string, slot int64) string {
	return filepath.Join(dir, fmt.Sprintf("debuginfo%d.db", slot))
}

// OpenStore opens (creating if absent) the debuginfo<slot>.db file under
// dir for the given slot. Durability hints are relaxed (synchronous
// writes off) per spec.md §4.1 — the catalog is rebuildable from the
// emitted binaries if corrupted.
func OpenStore(dir string, slot int64) (*Store, error) {
	path := debuginfoPath(dir, slot)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapIO("open debuginfo database", err)
	}
	if _, err := db.Exec(`PRAGMA synchronous = OFF`); err != nil {
		db.Close()
		return nil, wrapIO("disable synchronous writes", err)
	}
	if _, err := db.Exec(sqlCreateTables); err != nil {
		db.Close()
		return nil, wrapIO("create debuginfo tables", err)
	}
	return &Store{
		db:         db,
		dir:        dir,
		slot:       slot,
		knownFiles: make(map[string]int64),
		knownFuncs: make(map[string]int64),
	}, nil
}

// Slot returns the job slot this Store is scoped to.
func (s *Store) Slot() int64 { return s.slot }

// Close releases the underlying database handle. It does not release the
// job slot — callers release the slot explicitly via ReleaseSlot once the
// instrumentation engine's teardown runs (spec.md §3, "Ownership and
// lifecycle").
func (s *Store) Close() error {
	return s.db.Close()
}

// GetFileID returns the FILENAMES id for name, inserting it if absent.
// Per-process cache by name, per spec.md §4.1.
func (s *Store) GetFileID(name string) (int64, error) {
	return s.getOrInsert(&s.knownFiles, "FILENAMES", name)
}

// GetFuncID returns the FUNCNAMES id for name, inserting it if absent.
func (s *Store) GetFuncID(name string) (int64, error) {
	return s.getOrInsert(&s.knownFuncs, "FUNCNAMES", name)
}

func (s *Store) getOrInsert(cache *map[string]int64, table, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := (*cache)[name]; ok {
		return id, nil
	}

	id, err := s.queryID(table, name)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		id, err = s.insert(table, name)
		if err != nil {
			return 0, err
		}
	}
	(*cache)[name] = id
	return id, nil
}

func (s *Store) queryID(table, name string) (int64, error) {
	var id int64
	query := fmt.Sprintf(`SELECT ID FROM %s WHERE NAME = ?`, table)
	err := s.db.QueryRow(query, name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, wrapIO("query "+table, err)
	}
	return id, nil
}

func (s *Store) insert(table, name string) (int64, error) {
	query := fmt.Sprintf(`INSERT INTO %s (NAME) VALUES (?)`, table)
	res, err := s.db.Exec(query, name)
	if err != nil {
		return 0, wrapIO("insert into "+table, err)
	}
	return res.LastInsertId()
}

// RecordBasicBlock appends a BBLS row for fid and composes its bbid, per
// spec.md §3/§4.1.
func (s *Store) RecordBasicBlock(fid uint64, lineStart, lineEnd int) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`INSERT INTO BBLS (FID, LINESTART, LINEEND) VALUES (?, ?, ?)`,
		int64(fid), lineStart, lineEnd)
	if err != nil {
		return 0, wrapIO("insert basic block", err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return 0, wrapIO("read inserted basic block id", err)
	}
	return ComposeBBID(s.slot, rowID)
}
