// Package db is the sweep store: every `dsssmark quality --db` invocation
// becomes one run, with one params row per (alpha, segment seconds) grid
// point and the measured result attached to it.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB holds a single connection to the sweep store. Runs, params and results
// are written through it in the order a sweep produces them.
type DB struct {
	db *sql.DB
}

// sweepPragmas apply to the only connection the store keeps open. WAL lets a
// report read earlier runs while a new sweep is still recording; foreign keys
// make deleting a run drop its grid points and results.
var sweepPragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA foreign_keys=ON",
}

// Open opens the sweep store at dbPath and creates the runs, params and
// results tables the first time the file is used.
func Open(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sweep store %s: %w", dbPath, err)
	}
	conn.SetMaxOpenConns(1)

	for _, p := range sweepPragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sweep store %s: %s: %w", dbPath, p, err)
		}
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sweep store %s: create tables: %w", dbPath, err)
	}
	return &DB{db: conn}, nil
}

// Close flushes the WAL and releases the store.
func (d *DB) Close() error {
	return d.db.Close()
}
