package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"
)

// RelPath is a file's location relative to its owning RootPath. The pair
// (path, root) is unique.
type RelPath struct {
	ID     int64
	Path   string
	RootID int64
}

// GetOrCreateRelPath resolves abs against its owning root (found via
// FindOwningRoot) and interns the resulting relative path, creating it if
// this is the first time the file has been seen.
func (c *Catalog) GetOrCreateRelPath(ctx context.Context, abs string) (*RelPath, error) {
	root, err := c.FindOwningRoot(ctx, abs)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("no registered root owns %q", abs)
		}
		return nil, err
	}
	rel := strings.TrimPrefix(abs, root.Path)
	rel = strings.TrimPrefix(rel, "/")

	if rp, err := c.relPathByPathAndRoot(ctx, rel, root.ID); err == nil {
		return rp, nil
	} else if !errors.Is(err, errNotFound) {
		return nil, err
	}

	res, err := c.db.ExecContext(ctx, `INSERT INTO rel_paths (path, root_id) VALUES (?, ?)`, rel, root.ID)
	if err != nil {
		return nil, fmt.Errorf("inserting rel_path %q under root %d: %w", rel, root.ID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading new rel_path id: %w", err)
	}
	return &RelPath{ID: id, Path: rel, RootID: root.ID}, nil
}

func (c *Catalog) relPathByID(ctx context.Context, id int64) (*RelPath, error) {
	var rp RelPath
	row := c.db.QueryRowContext(ctx, `SELECT id, path, root_id FROM rel_paths WHERE id = ?`, id)
	if err := row.Scan(&rp.ID, &rp.Path, &rp.RootID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errNotFound
		}
		return nil, fmt.Errorf("looking up rel_path %d: %w", id, err)
	}
	return &rp, nil
}

func (c *Catalog) relPathByPathAndRoot(ctx context.Context, path string, rootID int64) (*RelPath, error) {
	var rp RelPath
	row := c.db.QueryRowContext(ctx, `SELECT id, path, root_id FROM rel_paths WHERE path = ? AND root_id = ?`, path, rootID)
	if err := row.Scan(&rp.ID, &rp.Path, &rp.RootID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errNotFound
		}
		return nil, fmt.Errorf("looking up rel_path %q under root %d: %w", path, rootID, err)
	}
	return &rp, nil
}

// AbsPath reconstructs the absolute path of rp given its owning root.
func (c *Catalog) AbsPath(ctx context.Context, rp *RelPath) (string, error) {
	roots, err := c.ListRoots(ctx)
	if err != nil {
		return "", err
	}
	for _, r := range roots {
		if r.ID == rp.RootID {
			if rp.Path == "" {
				return r.Path, nil
			}
			return path.Join(r.Path, rp.Path), nil
		}
	}
	return "", fmt.Errorf("rel_path %d references unknown root %d", rp.ID, rp.RootID)
}

// RelPathsUnder answers every rel_path registered under root, used by the
// scanner to diff the catalog's known set against what is on disk.
func (c *Catalog) RelPathsUnder(ctx context.Context, rootID int64) ([]*RelPath, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, path, root_id FROM rel_paths WHERE root_id = ?`, rootID)
	if err != nil {
		return nil, fmt.Errorf("listing rel_paths under root %d: %w", rootID, err)
	}
	defer rows.Close()

	var out []*RelPath
	for rows.Next() {
		var rp RelPath
		if err := rows.Scan(&rp.ID, &rp.Path, &rp.RootID); err != nil {
			return nil, fmt.Errorf("scanning rel_path row: %w", err)
		}
		out = append(out, &rp)
	}
	return out, rows.Err()
}
