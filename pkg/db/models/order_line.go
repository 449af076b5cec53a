package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLine is an immutable snapshot of a cart line at checkout time,
// including the multiplier and rate that produced its price so the line
// remains auditable after catalog changes.
type OrderLine struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID            uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	CatalogItemID      uuid.UUID       `gorm:"column:catalog_item_id;type:uuid;not null"`
	MaterialID         uuid.UUID       `gorm:"column:material_id;type:uuid;not null"`
	WidthCm            decimal.Decimal `gorm:"column:width_cm;type:numeric(8,2);not null"`
	HeightCm           decimal.Decimal `gorm:"column:height_cm;type:numeric(8,2);not null"`
	MaterialMultiplier decimal.Decimal `gorm:"column:material_multiplier;type:numeric(6,3);not null"`
	BaseRate           decimal.Decimal `gorm:"column:base_rate;type:numeric(12,4);not null"`
	Quantity           int             `gorm:"column:quantity;not null"`
	UnitPriceCents     int64           `gorm:"column:unit_price_cents;not null"`
	LineTotalCents     int64           `gorm:"column:line_total_cents;not null"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
}
