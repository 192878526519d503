package catalog

import (
	"context"
	"fmt"
)

// Stats is the summary sstats reports: root paths, interned keywords, and
// live files.
type Stats struct {
	RootCount    int64
	KeywordCount int64
	FileCount    int64
}

// Summarize answers counts used by the `stats` subcommand.
func (c *Catalog) Summarize(ctx context.Context) (Stats, error) {
	var s Stats
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM root_paths`).Scan(&s.RootCount); err != nil {
		return s, fmt.Errorf("counting roots: %w", err)
	}
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM keywords`).Scan(&s.KeywordCount); err != nil {
		return s, fmt.Errorf("counting keywords: %w", err)
	}
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files WHERE deleted_at IS NULL`).Scan(&s.FileCount); err != nil {
		return s, fmt.Errorf("counting live files: %w", err)
	}
	return s, nil
}

// DuplicateDigests answers every hash digest shared by more than one live
// file, the candidate set `manage-duplicates` operates over.
func (c *Catalog) DuplicateDigests(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT h.digest FROM hashes h
		JOIN files f ON f.hash_id = h.id AND f.deleted_at IS NULL
		GROUP BY h.id
		HAVING COUNT(*) > 1
		ORDER BY h.digest`)
	if err != nil {
		return nil, fmt.Errorf("listing duplicate digests: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var digest string
		if err := rows.Scan(&digest); err != nil {
			return nil, fmt.Errorf("scanning duplicate digest row: %w", err)
		}
		out = append(out, digest)
	}
	return out, rows.Err()
}
