package catalog

import (
	"context"
	"fmt"
	"time"
)

// FileDate records one metadata-sourced timestamp for a file, tagged with
// the field it came from, parsed from exiftool's "%Y:%m:%d %H:%M:%S"
// format.
type FileDate struct {
	ID      int64
	FileID  int64
	FieldID int64
	Value   time.Time
}

// AddFileDate upserts the (file, field) timestamp, replacing any prior
// value for that field — a file has at most one recorded value per
// metadata field.
func (c *Catalog) AddFileDate(ctx context.Context, fileID, fieldID int64, value time.Time) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO file_dates (file_id, field_id, value) VALUES (?, ?, ?)
		ON CONFLICT (file_id, field_id) DO UPDATE SET value = excluded.value`,
		fileID, fieldID, value.Unix())
	if err != nil {
		return fmt.Errorf("recording file_date for file %d field %d: %w", fileID, fieldID, err)
	}
	return nil
}

// FileDatesFor answers every recorded timestamp for fileID, keyed by
// metadata field id.
func (c *Catalog) FileDatesFor(ctx context.Context, fileID int64) (map[int64]time.Time, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT field_id, value FROM file_dates WHERE file_id = ?`, fileID)
	if err != nil {
		return nil, fmt.Errorf("listing file_dates for file %d: %w", fileID, err)
	}
	defer rows.Close()

	out := map[int64]time.Time{}
	for rows.Next() {
		var fieldID int64
		var unix int64
		if err := rows.Scan(&fieldID, &unix); err != nil {
			return nil, fmt.Errorf("scanning file_date row: %w", err)
		}
		out[fieldID] = time.Unix(unix, 0).UTC()
	}
	return out, rows.Err()
}
