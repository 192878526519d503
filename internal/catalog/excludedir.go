package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
)

// ExcludeDir is a regular expression matched against a directory's full
// path during a scan; a match prunes that subtree. A nil
// RootID means the pattern applies globally, across every root.
type ExcludeDir struct {
	ID      int64
	Pattern string
	RootID  sql.NullInt64
}

// AddExcludeDir registers pattern, scoped to rootID when non-zero or
// global when rootID is zero. Mirrors manage_root.py's `exclude-dir`
// subcommand.
func (c *Catalog) AddExcludeDir(ctx context.Context, pattern string, rootID int64) (*ExcludeDir, error) {
	if _, err := regexp.Compile(pattern); err != nil {
		return nil, fmt.Errorf("invalid exclude-dir pattern %q: %w", pattern, err)
	}

	var nullRoot sql.NullInt64
	if rootID != 0 {
		nullRoot = sql.NullInt64{Int64: rootID, Valid: true}
	}

	res, err := c.db.ExecContext(ctx, `INSERT INTO exclude_dirs (pattern, root_id) VALUES (?, ?)`, pattern, nullRoot)
	if err != nil {
		return nil, fmt.Errorf("inserting exclude_dir %q: %w", pattern, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading new exclude_dir id: %w", err)
	}
	return &ExcludeDir{ID: id, Pattern: pattern, RootID: nullRoot}, nil
}

// CompiledExcludesFor answers the compiled exclude patterns that apply to
// rootID: every global pattern plus every pattern scoped to that root.
// Used by the scanner to decide whether to prune a subdirectory.
func (c *Catalog) CompiledExcludesFor(ctx context.Context, rootID int64) ([]*regexp.Regexp, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT pattern FROM exclude_dirs WHERE root_id IS NULL OR root_id = ?`, rootID)
	if err != nil {
		return nil, fmt.Errorf("listing exclude_dirs for root %d: %w", rootID, err)
	}
	defer rows.Close()

	var out []*regexp.Regexp
	for rows.Next() {
		var pattern string
		if err := rows.Scan(&pattern); err != nil {
			return nil, fmt.Errorf("scanning exclude_dir row: %w", err)
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling stored exclude_dir pattern %q: %w", pattern, err)
		}
		out = append(out, re)
	}
	return out, rows.Err()
}
