package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/calebmonroe/printhaus-backend/internal/catalog"
	"github.com/calebmonroe/printhaus-backend/internal/inventory"
	"github.com/calebmonroe/printhaus-backend/internal/orders"
	"github.com/calebmonroe/printhaus-backend/pkg/cache"
	"github.com/calebmonroe/printhaus-backend/pkg/db/models"
	pkgerrors "github.com/calebmonroe/printhaus-backend/pkg/errors"
	"github.com/calebmonroe/printhaus-backend/pkg/logger"
	"github.com/calebmonroe/printhaus-backend/pkg/redis"
)

const guardScope = "payment_event"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service applies verified provider events to orders exactly once.
type Service interface {
	ApplyEvent(ctx context.Context, event Event) error
}

type service struct {
	orders   orders.Repository
	events   orders.PaymentEventRepository
	ledger   inventory.Ledger
	cache    *cache.Cache
	guard    redis.IdempotencyStore
	tx       txRunner
	eventTTL time.Duration
	logg     *logger.Logger
}

// NewService builds the webhook executor.
func NewService(
	orderRepo orders.Repository,
	events orders.PaymentEventRepository,
	ledger inventory.Ledger,
	c *cache.Cache,
	guard redis.IdempotencyStore,
	tx txRunner,
	eventTTL time.Duration,
	logg *logger.Logger,
) (Service, error) {
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if events == nil {
		return nil, fmt.Errorf("payment event repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		orders:   orderRepo,
		events:   events,
		ledger:   ledger,
		cache:    c,
		guard:    guard,
		tx:       tx,
		eventTTL: eventTTL,
		logg:     logg,
	}, nil
}

// ApplyEvent reconciles one provider event. Duplicates are acknowledged as
// no-ops: a redis SetNX guard filters the fast path and the payment_events
// row is the durable record. The guard entry is removed again when applying
// fails, so the provider's retry is not silently swallowed.
func (s *service) ApplyEvent(ctx context.Context, event Event) error {
	if strings.TrimSpace(event.EventID) == "" || strings.TrimSpace(event.IntentID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "event id and payment intent id are required")
	}

	marked := true
	var guardKey string
	if s.guard != nil {
		guardKey = s.guard.IdempotencyKey(guardScope, event.EventID)
		ok, err := s.guard.SetNX(ctx, guardKey, "1", s.eventTTL)
		if err != nil {
			// Guard outage falls through to the durable dedupe below.
			if s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "event_id", event.EventID), "webhook.guard.degraded")
			}
		} else {
			marked = ok
		}
	}
	if !marked {
		return nil
	}

	if err := s.apply(ctx, event); err != nil {
		if s.guard != nil && guardKey != "" {
			if delErr := s.guard.Del(ctx, guardKey); delErr != nil && s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "event_id", event.EventID), "webhook.guard.unmark_failed")
			}
		}
		return err
	}
	return nil
}

func (s *service) apply(ctx context.Context, event Event) error {
	seen, err := s.events.Exists(ctx, event.EventID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check processed events")
	}
	if seen {
		return nil
	}

	order, err := s.orders.FindByPaymentIntentID(ctx, event.IntentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Acknowledge so the provider stops retrying an intent this
			// system never issued.
			if s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "payment_intent_id", event.IntentID), "webhook.unknown_intent")
			}
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by intent")
	}

	decision, err := Decide(order, event)
	if err != nil {
		return err
	}
	if decision.Ignore {
		return s.record(ctx, event, order)
	}

	applied := false
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txOrders := s.orders.WithTx(tx)
		ok, err := txOrders.TransitionStatus(ctx, order.ID, decision.From, decision.To)
		if err != nil {
			return err
		}
		applied = ok
		return s.events.WithTx(tx).Create(ctx, &models.PaymentEvent{
			EventID: event.EventID,
			OrderID: order.ID,
			Type:    event.Type,
		})
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply payment event")
	}

	// A lost transition race means a concurrent delivery already moved the
	// order; its winner runs the effects.
	if applied {
		s.runEffects(ctx, order, decision.Effects)
	}
	return nil
}

func (s *service) record(ctx context.Context, event Event, order *models.Order) error {
	if err := s.events.Create(ctx, &models.PaymentEvent{
		EventID: event.EventID,
		OrderID: order.ID,
		Type:    event.Type,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment event")
	}
	return nil
}

// runEffects executes the decision's side effects. The status transition is
// the source of truth; failures here are logged for operator follow-up
// rather than failing the acknowledged event.
func (s *service) runEffects(ctx context.Context, order *models.Order, effects []Effect) {
	if len(effects) == 0 {
		return
	}

	lines, err := s.orders.FindLinesByOrder(ctx, order.ID)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "order_id", order.ID.String()), "webhook.effects.load_lines_failed", err)
		}
		return
	}

	for _, effect := range effects {
		switch effect {
		case EffectReleaseStock:
			var errs error
			for _, line := range lines {
				errs = multierr.Append(errs, s.ledger.Increment(ctx, line.CatalogItemID, line.Quantity))
			}
			if errs != nil && s.logg != nil {
				s.logg.Error(s.logg.WithField(ctx, "order_id", order.ID.String()), "webhook.effects.release_stock_failed", errs)
			}
		case EffectInvalidateCatalogCache:
			if s.cache == nil {
				continue
			}
			for _, line := range lines {
				s.cache.InvalidateByTag(ctx, catalog.ItemTag(line.CatalogItemID))
			}
		}
	}
}
