package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SetIfAbsent records eventID for ttl. An expired row is reclaimed in the same statement, so
// the insert and the expiry check cannot interleave with another writer.
func (p *Postgres) SetIfAbsent(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	query := `INSERT INTO processed_events (event_id, expires_at)
		VALUES ($1, now() + $2 * interval '1 second')
		ON CONFLICT (event_id) DO UPDATE
			SET expires_at = EXCLUDED.expires_at, recorded_at = now()
			WHERE processed_events.expires_at <= now()
		RETURNING event_id`

	var id string
	err := p.connections.QueryRowxContext(ctx, query, eventID, int64(ttl/time.Second)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		// conflict with a live row, nothing returned
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error recording event: %w", err)
	}
	return true, nil
}

// DeleteExpiredEvents removes dedup rows whose ttl has passed and returns how many went.
func (p *Postgres) DeleteExpiredEvents(ctx context.Context) (int64, error) {
	res, err := p.connections.ExecContext(ctx, "DELETE FROM processed_events WHERE expires_at <= now()")
	if err != nil {
		return 0, fmt.Errorf("error deleting expired events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading affected rows: %w", err)
	}
	return n, nil
}
