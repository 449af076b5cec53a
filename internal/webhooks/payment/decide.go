package payment

import (
	"github.com/calebmonroe/printhaus-backend/pkg/db/models"
	"github.com/calebmonroe/printhaus-backend/pkg/enums"
	pkgerrors "github.com/calebmonroe/printhaus-backend/pkg/errors"
)

// Effect is a side effect the executor must run after a status transition.
type Effect string

const (
	// EffectReleaseStock returns the order's reserved units to the pool.
	EffectReleaseStock Effect = "release_stock"
	// EffectInvalidateCatalogCache drops cached projections of the order's
	// catalog items so stock counts shown to buyers refresh.
	EffectInvalidateCatalogCache Effect = "invalidate_catalog_cache"
)

// Event is a provider webhook payload after signature verification.
type Event struct {
	EventID  string `json:"event_id" validate:"required"`
	Type     string `json:"type" validate:"required"`
	IntentID string `json:"payment_intent_id" validate:"required"`
}

// Decision is the outcome of matching an event against an order's state.
type Decision struct {
	From    enums.OrderStatus
	To      enums.OrderStatus
	Effects []Effect
	Ignore  bool
}

// Decide maps an event onto a status transition and its side effects. It is
// pure: no IO, so the transition rules are testable in isolation from the
// executor.
func Decide(order *models.Order, event Event) (Decision, error) {
	var target enums.OrderStatus
	var effects []Effect

	switch enums.PaymentEventType(event.Type) {
	case enums.PaymentEventSucceeded:
		target = enums.OrderStatusPaid
		effects = []Effect{EffectInvalidateCatalogCache}
	case enums.PaymentEventFailed:
		target = enums.OrderStatusPaymentFailed
		effects = []Effect{EffectReleaseStock, EffectInvalidateCatalogCache}
	default:
		// Unrecognized event types are acknowledged and ignored so the
		// provider does not keep retrying them.
		return Decision{Ignore: true}, nil
	}

	if order.Status.IsTerminal() {
		return Decision{}, pkgerrors.New(pkgerrors.CodeStateConflict, "order is in a terminal state").
			WithDetails(map[string]any{"status": string(order.Status), "event_type": event.Type})
	}
	if !order.Status.CanTransitionTo(target) {
		return Decision{}, pkgerrors.New(pkgerrors.CodeStateConflict, "event does not apply to order state").
			WithDetails(map[string]any{"status": string(order.Status), "event_type": event.Type})
	}

	return Decision{From: order.Status, To: target, Effects: effects}, nil
}
