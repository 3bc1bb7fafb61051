package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"proxyembed/internal/domain/models"
	"proxyembed/internal/domain/repositories"
)

// PostgresDeliveryLog implements the DeliveryLog interface using PostgreSQL
type PostgresDeliveryLog struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewDeliveryLog creates a new PostgresDeliveryLog
func NewDeliveryLog(config *RepositoryConfig) repositories.DeliveryLog {
	return &PostgresDeliveryLog{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Record persists one delivery
func (r *PostgresDeliveryLog) Record(ctx context.Context, record *models.DeliveryRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, destination, mode, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, r.tables.Deliveries)

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	err := r.pool.QueryRow(ctx, query,
		record.ID,
		record.Destination,
		record.Mode,
		record.Content,
		record.CreatedAt,
	).Scan(&record.CreatedAt)

	if err != nil {
		return fmt.Errorf("record delivery: %w", err)
	}

	return nil
}

// ListByDestination returns the most recent deliveries to a destination, newest first
func (r *PostgresDeliveryLog) ListByDestination(ctx context.Context, destination string, limit int) ([]models.DeliveryRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, destination, mode, content, created_at
		FROM %s
		WHERE destination = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, r.tables.Deliveries)

	rows, err := r.pool.Query(ctx, query, destination, limit)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var records []models.DeliveryRecord
	for rows.Next() {
		var record models.DeliveryRecord
		if err := rows.Scan(
			&record.ID,
			&record.Destination,
			&record.Mode,
			&record.Content,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deliveries: %w", err)
	}

	return records, nil
}
