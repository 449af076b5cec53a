package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatalogItem mirrors the content store's catalog record. The checkout core
// only reads pricing fields and adjusts stock counts through the ledger;
// everything else is owned by the content store.
type CatalogItem struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title          string          `gorm:"column:title;not null"`
	BaseRate       decimal.Decimal `gorm:"column:base_rate;type:numeric(12,4);not null"`
	AvailableStock int             `gorm:"column:available_stock;not null;default:0"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
