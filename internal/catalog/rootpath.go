package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// RootPath is a top-level directory the scanner/archiver treat as a
// managed tree.
type RootPath struct {
	ID   int64
	Path string
}

// AddRoot registers path as a managed root. Idempotent: re-adding an
// existing path returns the existing row rather than erroring, matching
// the original's get-or-create `manage_root add` behavior.
func (c *Catalog) AddRoot(ctx context.Context, path string) (*RootPath, error) {
	if r, err := c.RootByPath(ctx, path); err == nil {
		return r, nil
	} else if !errors.Is(err, errNotFound) {
		return nil, err
	}

	res, err := c.db.ExecContext(ctx, `INSERT INTO root_paths (path) VALUES (?)`, path)
	if err != nil {
		return nil, fmt.Errorf("inserting root %q: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading new root id: %w", err)
	}
	return &RootPath{ID: id, Path: path}, nil
}

// RemoveRoot deregisters a root. It does not touch files already cataloged
// under it; callers that want a clean removal should mark those files
// deleted first.
func (c *Catalog) RemoveRoot(ctx context.Context, path string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM root_paths WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("removing root %q: %w", path, err)
	}
	return nil
}

// RootByPath looks up a root by its exact registered path.
func (c *Catalog) RootByPath(ctx context.Context, path string) (*RootPath, error) {
	var r RootPath
	row := c.db.QueryRowContext(ctx, `SELECT id, path FROM root_paths WHERE path = ?`, path)
	if err := row.Scan(&r.ID, &r.Path); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errNotFound
		}
		return nil, fmt.Errorf("looking up root %q: %w", path, err)
	}
	return &r, nil
}

// ListRoots answers every registered root, ordered by path.
func (c *Catalog) ListRoots(ctx context.Context) ([]*RootPath, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, path FROM root_paths ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("listing roots: %w", err)
	}
	defer rows.Close()

	var out []*RootPath
	for rows.Next() {
		var r RootPath
		if err := rows.Scan(&r.ID, &r.Path); err != nil {
			return nil, fmt.Errorf("scanning root row: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// FindOwningRoot answers the first registered root that is a prefix of
// abs, in iteration order — not the longest or most specific match.
// Grounded on RelPath.getrelpath's brute-force root-prefix search in the
// Python original (models.py), which walks RootPath.objects.all() and
// returns on the first match it finds, never comparing candidates against
// each other. Nested roots are therefore order-dependent by design: which
// one "owns" a path under both depends on ListRoots' ordering (by path),
// matching the original rather than picking the deepest root.
func (c *Catalog) FindOwningRoot(ctx context.Context, abs string) (*RootPath, error) {
	roots, err := c.ListRoots(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range roots {
		if abs == r.Path || strings.HasPrefix(abs, r.Path+"/") {
			return r, nil
		}
	}
	return nil, errNotFound
}
