package repositories

import (
	"context"

	"proxyembed/internal/domain/models"
)

// DeliveryLog records outgoing messages and serves the delivery history.
type DeliveryLog interface {
	// Record persists one delivery.
	Record(ctx context.Context, record *models.DeliveryRecord) error

	// ListByDestination returns the most recent deliveries to a
	// destination, newest first.
	ListByDestination(ctx context.Context, destination string, limit int) ([]models.DeliveryRecord, error)
}
