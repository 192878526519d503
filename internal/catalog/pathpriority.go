package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PathPriority remembers which of two candidate paths won a prior
// duplicate-resolution comparison, keyed by an unordered pair of
// rel_path ids.
//
// UpdatePriorities persists the winner: once two paths have been
// compared, the decision is stored so a later comparison between the
// same pair is a lookup instead of asking the user again.
type PathPriority struct {
	ID       int64
	PathAID  int64
	PathBID  int64
	WinnerID int64
}

// normalizePair orders a pair of rel_path ids so the same unordered pair
// always maps to one row regardless of call order.
func normalizePair(a, b int64) (int64, int64) {
	if a < b {
		return a, b
	}
	return b, a
}

// UpdatePriorities records that winner was preferred over the other path
// in the (a, b) pair. A no-op when a == b, matching the original's
// same-path early return.
func (c *Catalog) UpdatePriorities(ctx context.Context, a, b, winner int64) error {
	if a == b {
		return nil
	}
	if winner != a && winner != b {
		return fmt.Errorf("path_priority winner %d is not one of the compared paths (%d, %d)", winner, a, b)
	}
	pa, pb := normalizePair(a, b)
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO path_priorities (path_a_id, path_b_id, winner_id) VALUES (?, ?, ?)
		ON CONFLICT (path_a_id, path_b_id) DO UPDATE SET winner_id = excluded.winner_id`,
		pa, pb, winner)
	if err != nil {
		return fmt.Errorf("recording path_priority for (%d, %d): %w", a, b, err)
	}
	return nil
}

// PriorityFor answers the stored winner for the (a, b) pair, if a prior
// comparison decided one.
func (c *Catalog) PriorityFor(ctx context.Context, a, b int64) (winnerID int64, ok bool, err error) {
	if a == b {
		return 0, false, nil
	}
	pa, pb := normalizePair(a, b)
	row := c.db.QueryRowContext(ctx, `SELECT winner_id FROM path_priorities WHERE path_a_id = ? AND path_b_id = ?`, pa, pb)
	var w int64
	if err := row.Scan(&w); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("looking up path_priority for (%d, %d): %w", a, b, err)
	}
	return w, true, nil
}

// Prioritise mirrors PathPriority.prioritise: it answers +1 when a is the
// remembered winner over b, -1 when b is, and 0 when the pair has never
// been compared (in which case the caller must decide by some other
// heuristic and persist the result via UpdatePriorities).
func (c *Catalog) Prioritise(ctx context.Context, a, b int64) (int, error) {
	if a == b {
		return 0, nil
	}
	winner, ok, err := c.PriorityFor(ctx, a, b)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	if winner == a {
		return 1, nil
	}
	return -1, nil
}
