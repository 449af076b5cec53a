package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/calebmonroe/printhaus-backend/pkg/enums"
)

// Order is the immutable post-checkout record. Monetary fields are fixed at
// creation; Status is the only column mutated afterwards, and only through
// the transition table in pkg/enums.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID         uuid.UUID         `gorm:"column:owner_id;type:uuid;not null;index"`
	SourceCartID    uuid.UUID         `gorm:"column:source_cart_id;type:uuid;not null;index"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending_payment'"`
	Currency        string            `gorm:"column:currency;type:text;not null;default:'USD'"`
	TotalCents      int64             `gorm:"column:total_cents;not null"`
	PaymentIntentID *string           `gorm:"column:payment_intent_id;uniqueIndex"`
	IdempotencyKey  string            `gorm:"column:idempotency_key;not null;uniqueIndex"`
	Lines           []OrderLine       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
