package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Hash is the content fingerprint computed by internal/fingerprint,
// interned once per distinct digest.
type Hash struct {
	ID     int64
	Digest string
}

// GetOrCreateHash interns digest, returning its existing row or creating
// one. Safe to call repeatedly with the same digest; ingest idempotence
// rests on this.
func (c *Catalog) GetOrCreateHash(ctx context.Context, digest string) (*Hash, error) {
	h, err := c.hashByDigest(ctx, digest)
	if err == nil {
		return h, nil
	}
	if !errors.Is(err, errNotFound) {
		return nil, err
	}

	res, err := c.db.ExecContext(ctx, `INSERT INTO hashes (digest) VALUES (?)`, digest)
	if err != nil {
		// Lost an insert race against another caller; re-read.
		if h, rerr := c.hashByDigest(ctx, digest); rerr == nil {
			return h, nil
		}
		return nil, fmt.Errorf("inserting hash %q: %w", digest, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading new hash id: %w", err)
	}
	return &Hash{ID: id, Digest: digest}, nil
}

func (c *Catalog) hashByDigest(ctx context.Context, digest string) (*Hash, error) {
	var h Hash
	row := c.db.QueryRowContext(ctx, `SELECT id, digest FROM hashes WHERE digest = ?`, digest)
	if err := row.Scan(&h.ID, &h.Digest); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errNotFound
		}
		return nil, fmt.Errorf("looking up hash %q: %w", digest, err)
	}
	return &h, nil
}
