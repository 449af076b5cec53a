package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/calebmonroe/printhaus-backend/api/middleware"
	"github.com/calebmonroe/printhaus-backend/api/responses"
	"github.com/calebmonroe/printhaus-backend/api/validators"
	checkoutsvc "github.com/calebmonroe/printhaus-backend/internal/checkout"
	"github.com/calebmonroe/printhaus-backend/pkg/db/models"
	pkgerrors "github.com/calebmonroe/printhaus-backend/pkg/errors"
	"github.com/calebmonroe/printhaus-backend/pkg/logger"
)

type checkoutRequest struct {
	CartID uuid.UUID `json:"cart_id" validate:"required"`
}

type orderResponse struct {
	ID              uuid.UUID           `json:"id"`
	SourceCartID    uuid.UUID           `json:"source_cart_id"`
	Status          string              `json:"status"`
	Currency        string              `json:"currency"`
	TotalCents      int64               `json:"total_cents"`
	PaymentIntentID *string             `json:"payment_intent_id,omitempty"`
	Lines           []orderLineResponse `json:"lines"`
}

type orderLineResponse struct {
	CatalogItemID  uuid.UUID `json:"catalog_item_id"`
	MaterialID     uuid.UUID `json:"material_id"`
	WidthCm        string    `json:"width_cm"`
	HeightCm       string    `json:"height_cm"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	LineTotalCents int64     `json:"line_total_cents"`
}

// CartCheckout turns the owner's cart into a pending-payment order.
func CartCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		ownerID, ok := middleware.OwnerID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "owner id header missing"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Checkout(r.Context(), ownerID, payload.CartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

func newOrderResponse(order *models.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, orderLineResponse{
			CatalogItemID:  line.CatalogItemID,
			MaterialID:     line.MaterialID,
			WidthCm:        line.WidthCm.String(),
			HeightCm:       line.HeightCm.String(),
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			LineTotalCents: line.LineTotalCents,
		})
	}
	return orderResponse{
		ID:              order.ID,
		SourceCartID:    order.SourceCartID,
		Status:          string(order.Status),
		Currency:        order.Currency,
		TotalCents:      order.TotalCents,
		PaymentIntentID: order.PaymentIntentID,
		Lines:           lines,
	}
}
