package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"time"
)

// File is the catalog's central entity: one cataloged basename at a given
// RelPath (directory), its current and ingest-time content hash, on-disk
// stat snapshot, and resolved "date taken".
//
// Multiple rows may share (RelPathID, Name): at most one may be live
// (DeletedAt == nil) at a time, enforced by a partial unique index rather
// than application code, so the invariant holds even under the
// catalog's single-writer model without an extra round-trip check.
type File struct {
	ID             int64
	RelPathID      int64
	Name           string
	HashID         int64
	OriginalHashID int64
	Size           int64
	MTime          time.Time
	DateTaken      *time.Time
	DateFieldID    *int64
	SymbolicLink   bool
	Deduplicated   bool
	DeletedAt      *time.Time
}

// Live reports whether f is not soft-deleted.
func (f *File) Live() bool { return f.DeletedAt == nil }

// CreateFile inserts a new live file row. OriginalHashID should equal
// HashID for a freshly ingested file; it is set once, at creation, and
// never changed afterward even if HashID later changes (e.g. the file
// becomes a symlink to different content) — original_hash is immutable
// from the point of ingestion.
func (c *Catalog) CreateFile(ctx context.Context, f *File) (*File, error) {
	res, err := c.db.ExecContext(ctx, `
		INSERT INTO files (rel_path_id, name, hash_id, original_hash_id, size, mtime, date_taken, date_field_id, symbolic_link, deduplicated, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, NULL)`,
		f.RelPathID, f.Name, f.HashID, f.OriginalHashID, f.Size, f.MTime.Unix(),
		nullableTime(f.DateTaken), nullableInt(f.DateFieldID), boolToInt(f.SymbolicLink))
	if err != nil {
		return nil, fmt.Errorf("inserting file %q at rel_path %d: %w", f.Name, f.RelPathID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading new file id: %w", err)
	}
	out := *f
	out.ID = id
	out.Deduplicated = false
	out.DeletedAt = nil
	return &out, nil
}

// SaveFile writes back the mutable stat/hash/date fields for an existing
// file row — the "os_stats_changed, rehash" update path.
// OriginalHashID, Name, deleted_at and deduplicated are not touched; the
// deleted and deduplicated transitions go through MarkDeleted and
// MarkDeduplicated.
func (c *Catalog) SaveFile(ctx context.Context, f *File) error {
	_, err := c.db.ExecContext(ctx, `
		UPDATE files SET hash_id = ?, size = ?, mtime = ?, date_taken = ?, date_field_id = ?, symbolic_link = ?
		WHERE id = ?`,
		f.HashID, f.Size, f.MTime.Unix(), nullableTime(f.DateTaken), nullableInt(f.DateFieldID),
		boolToInt(f.SymbolicLink), f.ID)
	if err != nil {
		return fmt.Errorf("updating file %d: %w", f.ID, err)
	}
	return nil
}

// MarkDeleted flags a file as no longer present on disk without removing
// its row, preserving history for later re-discovery at the same path
// (mirrors File.mark_deleted).
func (c *Catalog) MarkDeleted(ctx context.Context, fileID int64, when time.Time) error {
	_, err := c.db.ExecContext(ctx, `UPDATE files SET deleted_at = ? WHERE id = ?`, when.Unix(), fileID)
	if err != nil {
		return fmt.Errorf("marking file %d deleted: %w", fileID, err)
	}
	return nil
}

// MarkDeduplicated flags a file as having been replaced by a symlink to
// its surviving duplicate (mirrors File.deduplicated): sets
// symbolic_link and deduplicated, and repoints hash_id at targetHashID
// while leaving original_hash_id untouched.
func (c *Catalog) MarkDeduplicated(ctx context.Context, fileID, targetHashID int64) error {
	_, err := c.db.ExecContext(ctx, `
		UPDATE files SET symbolic_link = 1, deduplicated = 1, hash_id = ? WHERE id = ?`,
		targetHashID, fileID)
	if err != nil {
		return fmt.Errorf("marking file %d deduplicated: %w", fileID, err)
	}
	return nil
}

// LiveFileByName answers the live file named name at relPathID, if any.
func (c *Catalog) LiveFileByName(ctx context.Context, relPathID int64, name string) (*File, error) {
	row := c.db.QueryRowContext(ctx, fileSelectColumns+`
		FROM files WHERE rel_path_id = ? AND name = ? AND deleted_at IS NULL`, relPathID, name)
	f, err := scanFileRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errNotFound
		}
		return nil, fmt.Errorf("looking up live file %q at rel_path %d: %w", name, relPathID, err)
	}
	return f, nil
}

// LiveFilesAt answers every live file at relPathID, the "known" set the
// scanner diffs against a directory listing.
func (c *Catalog) LiveFilesAt(ctx context.Context, relPathID int64) ([]*File, error) {
	rows, err := c.db.QueryContext(ctx, fileSelectColumns+`
		FROM files WHERE rel_path_id = ? AND deleted_at IS NULL`, relPathID)
	if err != nil {
		return nil, fmt.Errorf("listing live files at rel_path %d: %w", relPathID, err)
	}
	defer rows.Close()
	return scanFiles(rows)
}

// FilesWithHash answers every live file whose current or original hash
// equals digest, the candidate set the archiver checks before deciding
// whether to link against an existing match or copy a new one, and the
// set a duplicate-resolution pass operates over.
func (c *Catalog) FilesWithHash(ctx context.Context, digest string) ([]*File, error) {
	h, err := c.hashByDigest(ctx, digest)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	rows, err := c.db.QueryContext(ctx, fileSelectColumns+`
		FROM files WHERE (hash_id = ? OR original_hash_id = ?) AND deleted_at IS NULL`, h.ID, h.ID)
	if err != nil {
		return nil, fmt.Errorf("querying files for hash %q: %w", digest, err)
	}
	defer rows.Close()
	return scanFiles(rows)
}

// FileAbsPath reconstructs the absolute path of a file given its owning
// rel_path and root.
func (c *Catalog) FileAbsPath(ctx context.Context, f *File) (string, error) {
	rp, err := c.relPathByID(ctx, f.RelPathID)
	if err != nil {
		return "", err
	}
	dir, err := c.AbsPath(ctx, rp)
	if err != nil {
		return "", err
	}
	return path.Join(dir, f.Name), nil
}

const fileSelectColumns = `SELECT id, rel_path_id, name, hash_id, original_hash_id, size, mtime, date_taken, date_field_id, symbolic_link, deduplicated, deleted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFileRow(row rowScanner) (*File, error) {
	var f File
	var dateTaken, dateField, deletedAt sql.NullInt64
	var mtime int64
	var symlink, dedup int
	if err := row.Scan(&f.ID, &f.RelPathID, &f.Name, &f.HashID, &f.OriginalHashID, &f.Size, &mtime,
		&dateTaken, &dateField, &symlink, &dedup, &deletedAt); err != nil {
		return nil, err
	}
	f.MTime = time.Unix(mtime, 0).UTC()
	f.SymbolicLink = symlink != 0
	f.Deduplicated = dedup != 0
	if dateTaken.Valid {
		t := time.Unix(dateTaken.Int64, 0).UTC()
		f.DateTaken = &t
	}
	if dateField.Valid {
		v := dateField.Int64
		f.DateFieldID = &v
	}
	if deletedAt.Valid {
		t := time.Unix(deletedAt.Int64, 0).UTC()
		f.DeletedAt = &t
	}
	return &f, nil
}

func scanFiles(rows *sql.Rows) ([]*File, error) {
	var out []*File
	for rows.Next() {
		f, err := scanFileRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning file row: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func nullableInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
