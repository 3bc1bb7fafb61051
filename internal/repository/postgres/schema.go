package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the delivery log table if it does not exist yet.
// Called once at startup; the prefix keeps environments apart in a shared
// database.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			destination TEXT NOT NULL,
			mode TEXT NOT NULL CHECK (mode IN ('rich', 'text')),
			content TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`, tables.Deliveries)
	if _, err := pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", tables.Deliveries, err)
	}

	index := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_destination_created_at_idx
		ON %s (destination, created_at DESC)
	`, tables.Deliveries, tables.Deliveries)
	if _, err := pool.Exec(ctx, index); err != nil {
		return fmt.Errorf("index %s: %w", tables.Deliveries, err)
	}

	return nil
}
