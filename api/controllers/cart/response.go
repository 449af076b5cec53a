package cart

import (
	"github.com/google/uuid"

	cartsvc "github.com/calebmonroe/printhaus-backend/internal/cart"
	"github.com/calebmonroe/printhaus-backend/internal/pricing"
	"github.com/calebmonroe/printhaus-backend/pkg/db/models"
)

type cartResponse struct {
	ID         uuid.UUID      `json:"id"`
	OwnerID    uuid.UUID      `json:"owner_id"`
	Status     string         `json:"status"`
	TotalCents int64          `json:"total_cents"`
	Lines      []lineResponse `json:"lines"`
}

type lineResponse struct {
	ID             uuid.UUID `json:"id"`
	CatalogItemID  uuid.UUID `json:"catalog_item_id"`
	MaterialID     uuid.UUID `json:"material_id"`
	WidthCm        string    `json:"width_cm"`
	HeightCm       string    `json:"height_cm"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	LineTotalCents int64     `json:"line_total_cents"`
}

func newCartResponse(record *models.CartRecord) cartResponse {
	lines := make([]lineResponse, 0, len(record.Lines))
	for _, line := range record.Lines {
		lines = append(lines, lineResponse{
			ID:             line.ID,
			CatalogItemID:  line.CatalogItemID,
			MaterialID:     line.MaterialID,
			WidthCm:        line.WidthCm.String(),
			HeightCm:       line.HeightCm.String(),
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			LineTotalCents: pricing.LineTotalCents(line.UnitPriceCents, line.Quantity),
		})
	}
	return cartResponse{
		ID:         record.ID,
		OwnerID:    record.OwnerID,
		Status:     string(record.Status),
		TotalCents: cartsvc.RecalculateTotal(record),
		Lines:      lines,
	}
}
