package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is one configured print inside a cart. UnitPriceCents is a cached
// server-side computation; it is recomputed from dimensions, material and
// base rate on every price-affecting mutation and never trusted from input.
type CartLine struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID         uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;index"`
	CatalogItemID  uuid.UUID       `gorm:"column:catalog_item_id;type:uuid;not null"`
	MaterialID     uuid.UUID       `gorm:"column:material_id;type:uuid;not null"`
	WidthCm        decimal.Decimal `gorm:"column:width_cm;type:numeric(8,2);not null"`
	HeightCm       decimal.Decimal `gorm:"column:height_cm;type:numeric(8,2);not null"`
	Quantity       int             `gorm:"column:quantity;not null"`
	UnitPriceCents int64           `gorm:"column:unit_price_cents;not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
