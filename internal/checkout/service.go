package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/calebmonroe/printhaus-backend/internal/cart"
	"github.com/calebmonroe/printhaus-backend/internal/inventory"
	"github.com/calebmonroe/printhaus-backend/internal/orders"
	"github.com/calebmonroe/printhaus-backend/internal/pricing"
	"github.com/calebmonroe/printhaus-backend/pkg/db/models"
	"github.com/calebmonroe/printhaus-backend/pkg/enums"
	pkgerrors "github.com/calebmonroe/printhaus-backend/pkg/errors"
	"github.com/calebmonroe/printhaus-backend/pkg/logger"
	"github.com/calebmonroe/printhaus-backend/pkg/payments"
)

// Namespace for deriving checkout idempotency keys from cart id + attempt.
var checkoutKeyNamespace = uuid.MustParse("76f4fb2c-5b7a-4ce1-9d1e-28c4b8a90f13")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type itemLoader interface {
	FindItemByID(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error)
}

type materialLoader interface {
	FindMaterialByID(ctx context.Context, id uuid.UUID) (*models.Material, error)
}

// Service turns an active cart into a pending-payment order.
type Service interface {
	Checkout(ctx context.Context, ownerID, cartID uuid.UUID) (*models.Order, error)
}

type service struct {
	carts     cart.CartRepository
	orders    orders.Repository
	ledger    inventory.Ledger
	items     itemLoader
	materials materialLoader
	provider  payments.Provider
	tx        txRunner
	currency  string
	logg      *logger.Logger
}

// NewService builds the checkout orchestrator.
func NewService(
	carts cart.CartRepository,
	orderRepo orders.Repository,
	ledger inventory.Ledger,
	items itemLoader,
	materials materialLoader,
	provider payments.Provider,
	tx txRunner,
	currency string,
	logg *logger.Logger,
) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if items == nil {
		return nil, fmt.Errorf("catalog item loader required")
	}
	if materials == nil {
		return nil, fmt.Errorf("material loader required")
	}
	if provider == nil {
		return nil, fmt.Errorf("payment provider required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if currency == "" {
		return nil, fmt.Errorf("currency required")
	}
	return &service{
		carts:     carts,
		orders:    orderRepo,
		ledger:    ledger,
		items:     items,
		materials: materials,
		provider:  provider,
		tx:        tx,
		currency:  currency,
		logg:      logg,
	}, nil
}

// IdempotencyKey derives the deterministic order key for a cart's Nth
// checkout attempt. Same cart and attempt always map to the same key, so a
// retried request can only ever land on the order it already created.
func IdempotencyKey(cartID uuid.UUID, attempt int) string {
	return uuid.NewSHA1(checkoutKeyNamespace, []byte(fmt.Sprintf("%s:%d", cartID, attempt))).String()
}

// Checkout runs the order/payment saga:
//
//  1. Flip the cart active→checked_out (conditional update, bumps attempts).
//  2. Re-price every line from current catalog data and snapshot it.
//  3. Reserve stock per line; roll back prior reservations and revert the
//     cart on any shortfall.
//  4. Create the pending_payment order under the derived idempotency key.
//  5. Request a payment intent from the provider; failure here leaves the
//     order pending_payment and is safe to retry.
func (s *service) Checkout(ctx context.Context, ownerID, cartID uuid.UUID) (*models.Order, error) {
	if ownerID == uuid.Nil || cartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id and cart id are required")
	}

	record, err := s.carts.FindByIDAndOwner(ctx, cartID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	switch record.Status {
	case enums.CartStatusActive:
		// proceed below
	case enums.CartStatusCheckedOut:
		return s.resumeCheckedOut(ctx, record)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart cannot be checked out").
			WithDetails(map[string]any{"status": string(record.Status)})
	}

	if len(record.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	flipped, err := s.carts.MarkCheckedOut(ctx, record.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark cart checked out")
	}
	if !flipped {
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyCheckedOut, "cart is already checked out")
	}
	attempt := record.CheckoutAttempts + 1

	// A line added between the initial read and the flip belongs to this
	// checkout, so the lines are re-read once the cart is checked_out.
	record, err = s.carts.FindByIDAndOwner(ctx, cartID, ownerID)
	if err != nil {
		s.revertCart(ctx, cartID)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart lines")
	}
	if len(record.Lines) == 0 {
		s.revertCart(ctx, cartID)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	orderLines, totalCents, err := s.priceLines(ctx, record.Lines)
	if err != nil {
		s.revertCart(ctx, record.ID)
		return nil, err
	}

	if err := s.reserveStock(ctx, record.Lines); err != nil {
		s.revertCart(ctx, record.ID)
		return nil, err
	}

	key := IdempotencyKey(record.ID, attempt)
	order := &models.Order{
		OwnerID:        ownerID,
		SourceCartID:   record.ID,
		Status:         enums.OrderStatusPendingPayment,
		Currency:       s.currency,
		TotalCents:     totalCents,
		IdempotencyKey: key,
	}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txOrders := s.orders.WithTx(tx)
		created, err := txOrders.Create(ctx, order)
		if err != nil {
			return err
		}
		for i := range orderLines {
			orderLines[i].OrderID = created.ID
		}
		return txOrders.CreateLines(ctx, orderLines)
	}); err != nil {
		s.releaseStock(ctx, record.Lines)
		s.revertCart(ctx, record.ID)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}

	if err := s.ensurePaymentIntent(ctx, order); err != nil {
		return nil, err
	}
	return s.orders.FindByID(ctx, order.ID)
}

// resumeCheckedOut handles a checkout call against a cart that already
// flipped. If this owner's previous attempt produced an order, return it and
// finish any step that died half-way; otherwise the flip belongs to a request
// still in flight.
func (s *service) resumeCheckedOut(ctx context.Context, record *models.CartRecord) (*models.Order, error) {
	key := IdempotencyKey(record.ID, record.CheckoutAttempts)
	order, err := s.orders.FindByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeAlreadyCheckedOut, "cart is already checked out")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load existing order")
	}
	if err := s.ensurePaymentIntent(ctx, order); err != nil {
		return nil, err
	}
	return s.orders.FindByID(ctx, order.ID)
}

func (s *service) priceLines(ctx context.Context, lines []models.CartLine) ([]models.OrderLine, int64, error) {
	orderLines := make([]models.OrderLine, 0, len(lines))
	lineTotals := make([]int64, 0, len(lines))

	for _, line := range lines {
		item, err := s.items.FindItemByID(ctx, line.CatalogItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, pkgerrors.New(pkgerrors.CodeNotFound, "catalog item no longer available").
					WithDetails(map[string]any{"catalog_item_id": line.CatalogItemID})
			}
			return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog item")
		}
		material, err := s.materials.FindMaterialByID(ctx, line.MaterialID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, pkgerrors.New(pkgerrors.CodeNotFound, "material no longer available").
					WithDetails(map[string]any{"material_id": line.MaterialID})
			}
			return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material")
		}

		// Cached cart prices are never trusted at checkout.
		unitPrice, err := pricing.Quote(line.WidthCm, line.HeightCm, material.Multiplier, item.BaseRate)
		if err != nil {
			return nil, 0, err
		}
		unitCents := pricing.Cents(unitPrice)
		lineTotal := pricing.LineTotalCents(unitCents, line.Quantity)
		lineTotals = append(lineTotals, lineTotal)

		orderLines = append(orderLines, models.OrderLine{
			CatalogItemID:      item.ID,
			MaterialID:         material.ID,
			WidthCm:            line.WidthCm,
			HeightCm:           line.HeightCm,
			MaterialMultiplier: material.Multiplier,
			BaseRate:           item.BaseRate,
			Quantity:           line.Quantity,
			UnitPriceCents:     unitCents,
			LineTotalCents:     lineTotal,
		})
	}

	return orderLines, pricing.SumLineTotals(lineTotals), nil
}

// reserveStock decrements stock line by line. On the first shortfall it
// releases everything reserved so far and reports which item ran out.
func (s *service) reserveStock(ctx context.Context, lines []models.CartLine) error {
	reserved := make([]models.CartLine, 0, len(lines))
	for _, line := range lines {
		ok, err := s.ledger.DecrementIfAvailable(ctx, line.CatalogItemID, line.Quantity)
		if err != nil {
			s.releaseStock(ctx, reserved)
			return err
		}
		if !ok {
			s.releaseStock(ctx, reserved)
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for catalog item").
				WithDetails(map[string]any{
					"catalog_item_id": line.CatalogItemID,
					"requested":       line.Quantity,
				})
		}
		reserved = append(reserved, line)
	}
	return nil
}

func (s *service) releaseStock(ctx context.Context, lines []models.CartLine) {
	var errs error
	for _, line := range lines {
		errs = multierr.Append(errs, s.ledger.Increment(ctx, line.CatalogItemID, line.Quantity))
	}
	if errs != nil && s.logg != nil {
		s.logg.Error(ctx, "checkout.release_stock.failed", errs)
	}
}

func (s *service) revertCart(ctx context.Context, cartID uuid.UUID) {
	if err := s.carts.RevertToActive(ctx, cartID); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithField(ctx, "cart_id", cartID.String()), "checkout.revert_cart.failed", err)
	}
}

// ensurePaymentIntent asks the provider for an intent, reusing the order's
// idempotency key as the provider token so a retried call cannot double
// charge. Orders that already carry an intent id are left alone.
func (s *service) ensurePaymentIntent(ctx context.Context, order *models.Order) error {
	if order.PaymentIntentID != nil {
		return nil
	}
	intentID, err := s.provider.CreatePaymentIntent(ctx, order.TotalCents, order.Currency, order.IdempotencyKey)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return typed
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}
	if err := s.orders.SetPaymentIntentID(ctx, order.ID, intentID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store payment intent id")
	}
	order.PaymentIntentID = &intentID
	return nil
}
