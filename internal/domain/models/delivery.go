package models

import (
	"time"
)

// DeliveryRecord is one row of the delivery log: a message that went out,
// and whether it went out rich or degraded to text.
type DeliveryRecord struct {
	ID          string    `json:"id" db:"id"`
	Destination string    `json:"destination" db:"destination"`
	Mode        string    `json:"mode" db:"mode"` // "rich" or "text"
	Content     string    `json:"content" db:"content"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
