package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentEvent records provider webhook event ids that were already applied.
// The redis guard in front of it is best-effort; this row is the durable
// dedupe record.
type PaymentEvent struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	OrderID     uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	Type        string    `gorm:"column:type;not null"`
	ProcessedAt time.Time `gorm:"column:processed_at;autoCreateTime"`
}
