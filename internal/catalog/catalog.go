// Package catalog is the system of record for scanned and archived media:
// hashes, root paths, relative paths, files, keywords, per-file dates, and
// the deduplicator's path-priority memory.
//
// A Catalog wraps a single *sql.DB handle opened against a SQLite file.
// Entities are plain structs with no implicit binding back to the
// database — every read and write goes through an explicit Catalog
// method, avoiding an entity graph with reference cycles.
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Catalog is the catalog's single entry point.
type Catalog struct {
	db *sql.DB
}

// Open opens (creating if absent) the SQLite database at path and brings
// its schema up to date.
func Open(ctx context.Context, path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", path, err)
	}
	// SQLite allows only one writer at a time; a single connection avoids
	// SQLITE_BUSY errors, which serializes catalog writes regardless.
	db.SetMaxOpenConns(1)

	c := &Catalog{db: db}
	if err := c.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Close releases the underlying database handle.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) migrate(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning schema migration: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schemaSQL {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema statement %q: %w", stmt, err)
		}
	}
	return tx.Commit()
}

// errNotFound is returned by lookup helpers to signal "no row", distinct
// from sql.ErrNoRows so that callers outside this package never need to
// import database/sql to test for it.
var errNotFound = fmt.Errorf("not found")

// ErrNotFound reports whether err is the catalog's not-found sentinel.
func ErrNotFound(err error) bool {
	return err == errNotFound
}
