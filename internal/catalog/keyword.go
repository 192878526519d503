package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Keyword is an interned tag attached to files through file_keywords.
type Keyword struct {
	ID   int64
	Name string
}

// GetOrAddKeyword interns name.
func (c *Catalog) GetOrAddKeyword(ctx context.Context, name string) (*Keyword, error) {
	var k Keyword
	row := c.db.QueryRowContext(ctx, `SELECT id, name FROM keywords WHERE name = ?`, name)
	err := row.Scan(&k.ID, &k.Name)
	if err == nil {
		return &k, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("looking up keyword %q: %w", name, err)
	}

	res, err := c.db.ExecContext(ctx, `INSERT INTO keywords (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("inserting keyword %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading new keyword id: %w", err)
	}
	return &Keyword{ID: id, Name: name}, nil
}

// AddFileKeyword associates keyword with file, a no-op if already present.
func (c *Catalog) AddFileKeyword(ctx context.Context, fileID, keywordID int64) error {
	_, err := c.db.ExecContext(ctx, `INSERT OR IGNORE INTO file_keywords (file_id, keyword_id) VALUES (?, ?)`, fileID, keywordID)
	if err != nil {
		return fmt.Errorf("associating keyword %d with file %d: %w", keywordID, fileID, err)
	}
	return nil
}

// KeywordsForFile answers every keyword attached to fileID.
func (c *Catalog) KeywordsForFile(ctx context.Context, fileID int64) ([]*Keyword, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT k.id, k.name FROM keywords k
		JOIN file_keywords fk ON fk.keyword_id = k.id
		WHERE fk.file_id = ?
		ORDER BY k.name`, fileID)
	if err != nil {
		return nil, fmt.Errorf("listing keywords for file %d: %w", fileID, err)
	}
	defer rows.Close()

	var out []*Keyword
	for rows.Next() {
		var k Keyword
		if err := rows.Scan(&k.ID, &k.Name); err != nil {
			return nil, fmt.Errorf("scanning keyword row: %w", err)
		}
		out = append(out, &k)
	}
	return out, rows.Err()
}

// RemoveFileKeyword detaches keyword from file, a no-op if not present.
func (c *Catalog) RemoveFileKeyword(ctx context.Context, fileID, keywordID int64) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM file_keywords WHERE file_id = ? AND keyword_id = ?`, fileID, keywordID)
	if err != nil {
		return fmt.Errorf("removing keyword %d from file %d: %w", keywordID, fileID, err)
	}
	return nil
}

// SetFileKeywords syncs fileID's keyword associations to exactly names,
// adding missing ones and removing extras. This is the scanner's
// symmetric keyword-delta update: unlike the archiver's additive merge,
// on-disk keyword removals must be reflected too, since the file's
// EXIF/IPTC/XMP is the source of truth on disk.
func (c *Catalog) SetFileKeywords(ctx context.Context, fileID int64, names []string) error {
	current, err := c.KeywordsForFile(ctx, fileID)
	if err != nil {
		return err
	}
	want := map[string]bool{}
	for _, n := range names {
		want[n] = true
	}
	have := map[string]*Keyword{}
	for _, k := range current {
		have[k.Name] = k
	}

	for name := range want {
		if _, ok := have[name]; ok {
			continue
		}
		k, err := c.GetOrAddKeyword(ctx, name)
		if err != nil {
			return err
		}
		if err := c.AddFileKeyword(ctx, fileID, k.ID); err != nil {
			return err
		}
	}
	for name, k := range have {
		if !want[name] {
			if err := c.RemoveFileKeyword(ctx, fileID, k.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// MergeFileKeywords adds every keyword in names to fileID that isn't
// already attached, interning as needed. This is a monotone merge: it
// never removes a keyword, so a keyword set only grows through this path.
func (c *Catalog) MergeFileKeywords(ctx context.Context, fileID int64, names []string) error {
	for _, name := range names {
		k, err := c.GetOrAddKeyword(ctx, name)
		if err != nil {
			return err
		}
		if err := c.AddFileKeyword(ctx, fileID, k.ID); err != nil {
			return err
		}
	}
	return nil
}
