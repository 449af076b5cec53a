package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/calebmonroe/printhaus-backend/pkg/enums"
)

// CartRecord is the mutable pre-checkout aggregate owned by a single user.
// CheckoutAttempts feeds the deterministic idempotency key for checkout
// retries; it only ever increases.
type CartRecord struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID          uuid.UUID        `gorm:"column:owner_id;type:uuid;not null;index"`
	Status           enums.CartStatus `gorm:"column:status;type:text;not null;default:'active'"`
	CheckoutAttempts int              `gorm:"column:checkout_attempts;not null;default:0"`
	Lines            []CartLine       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
