package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// MetadataField names a date-bearing EXIF/IPTC/XMP tag (e.g.
// "DateTimeOriginal", "CreateDate"); FileDate rows reference one to record
// which tag a particular timestamp came from.
type MetadataField struct {
	ID   int64
	Name string
}

// GetOrCreateMetadataField interns name.
func (c *Catalog) GetOrCreateMetadataField(ctx context.Context, name string) (*MetadataField, error) {
	var f MetadataField
	row := c.db.QueryRowContext(ctx, `SELECT id, name FROM metadata_fields WHERE name = ?`, name)
	err := row.Scan(&f.ID, &f.Name)
	if err == nil {
		return &f, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("looking up metadata field %q: %w", name, err)
	}

	res, err := c.db.ExecContext(ctx, `INSERT INTO metadata_fields (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("inserting metadata field %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading new metadata field id: %w", err)
	}
	return &MetadataField{ID: id, Name: name}, nil
}
