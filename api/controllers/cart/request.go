package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type addLineRequest struct {
	CatalogItemID uuid.UUID       `json:"catalog_item_id" validate:"required"`
	MaterialID    uuid.UUID       `json:"material_id" validate:"required"`
	WidthCm       decimal.Decimal `json:"width_cm" validate:"required"`
	HeightCm      decimal.Decimal `json:"height_cm" validate:"required"`
	Quantity      int             `json:"quantity" validate:"required,min=1"`
}

type updateLineRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}
