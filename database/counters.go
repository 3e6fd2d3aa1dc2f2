package database

import (
	"context"
	"fmt"
)

// ItemCount is one named counter row.
type ItemCount struct {
	Item  string `db:"item"`
	Count int64  `db:"count"`
}

// AddCount adds delta to item in one upsert and returns the new value.
func (p *Postgres) AddCount(ctx context.Context, item string, delta int64) (int64, error) {
	query := `INSERT INTO item_counters (item, count) VALUES ($1, $2)
		ON CONFLICT (item) DO UPDATE
			SET count = item_counters.count + EXCLUDED.count, updated_at = now()
		RETURNING count`

	var count int64
	if err := p.connections.QueryRowxContext(ctx, query, item, delta).Scan(&count); err != nil {
		p.logger.Error("error updating counter", "error", err.Error(), "item", item)
		return 0, fmt.Errorf("error updating counter %s: %w", item, err)
	}
	return count, nil
}

// Counts returns every stored counter.
func (p *Postgres) Counts(ctx context.Context) (map[string]int64, error) {
	var rows []ItemCount
	if err := p.connections.SelectContext(ctx, &rows, "SELECT item, count FROM item_counters"); err != nil {
		return nil, fmt.Errorf("error listing counters: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Item] = r.Count
	}
	return counts, nil
}
