package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/calebmonroe/printhaus-backend/internal/pricing"
	"github.com/calebmonroe/printhaus-backend/pkg/db/models"
	pkgerrors "github.com/calebmonroe/printhaus-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type itemLoader interface {
	FindItemByID(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error)
}

type materialLoader interface {
	FindMaterialByID(ctx context.Context, id uuid.UUID) (*models.Material, error)
}

// Service exposes cart mutation and fetch operations. All operations are
// owner-scoped: a line id belonging to another owner's cart is reported as
// not-found rather than forbidden.
type Service interface {
	AddLine(ctx context.Context, ownerID uuid.UUID, input AddLineInput) (*models.CartRecord, error)
	UpdateQuantity(ctx context.Context, ownerID, lineID uuid.UUID, quantity int) (*models.CartRecord, error)
	RemoveLine(ctx context.Context, ownerID, lineID uuid.UUID) (*models.CartRecord, error)
	GetActiveCart(ctx context.Context, ownerID uuid.UUID) (*models.CartRecord, error)
}

type service struct {
	repo      CartRepository
	tx        txRunner
	items     itemLoader
	materials materialLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, items itemLoader, materials materialLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if items == nil {
		return nil, fmt.Errorf("catalog item loader required")
	}
	if materials == nil {
		return nil, fmt.Errorf("material loader required")
	}
	return &service{repo: repo, tx: tx, items: items, materials: materials}, nil
}

// AddLineInput captures a configured print to stage in the cart. The unit
// price is never part of the input; it is always computed server-side.
type AddLineInput struct {
	CatalogItemID uuid.UUID
	MaterialID    uuid.UUID
	WidthCm       decimal.Decimal
	HeightCm      decimal.Decimal
	Quantity      int
}

// AddLine prices the configured print and appends it to the owner's active
// cart, creating the cart on first use.
func (s *service) AddLine(ctx context.Context, ownerID uuid.UUID, input AddLineInput) (*models.CartRecord, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	item, err := s.items.FindItemByID(ctx, input.CatalogItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog item")
	}

	material, err := s.materials.FindMaterialByID(ctx, input.MaterialID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "material not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material")
	}

	unitPrice, err := pricing.Quote(input.WidthCm, input.HeightCm, material.Multiplier, item.BaseRate)
	if err != nil {
		return nil, err
	}

	var saved *models.CartRecord
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		record, err := txRepo.FindActiveByOwner(ctx, ownerID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			record, err = txRepo.Create(ctx, &models.CartRecord{OwnerID: ownerID})
			if err != nil {
				return err
			}
		}

		line := &models.CartLine{
			CartID:         record.ID,
			CatalogItemID:  item.ID,
			MaterialID:     material.ID,
			WidthCm:        input.WidthCm,
			HeightCm:       input.HeightCm,
			Quantity:       input.Quantity,
			UnitPriceCents: pricing.Cents(unitPrice),
		}
		if err := txRepo.CreateLine(ctx, line); err != nil {
			return err
		}

		saved, err = txRepo.FindByIDAndOwner(ctx, record.ID, ownerID)
		return err
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart line")
	}

	return saved, nil
}

// UpdateQuantity changes the quantity on an owned line. Quantity does not
// affect the unit price, so the cached price stands.
func (s *service) UpdateQuantity(ctx context.Context, ownerID, lineID uuid.UUID, quantity int) (*models.CartRecord, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	var saved *models.CartRecord
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		line, err := txRepo.FindLineForOwner(ctx, lineID, ownerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
			}
			return err
		}
		if err := txRepo.UpdateLineQuantity(ctx, line.ID, quantity); err != nil {
			return err
		}

		saved, err = txRepo.FindByIDAndOwner(ctx, line.CartID, ownerID)
		return err
	}); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}

	return saved, nil
}

// RemoveLine deletes an owned line from the active cart.
func (s *service) RemoveLine(ctx context.Context, ownerID, lineID uuid.UUID) (*models.CartRecord, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}

	var saved *models.CartRecord
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		line, err := txRepo.FindLineForOwner(ctx, lineID, ownerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
			}
			return err
		}
		if err := txRepo.DeleteLine(ctx, line.ID); err != nil {
			return err
		}

		saved, err = txRepo.FindByIDAndOwner(ctx, line.CartID, ownerID)
		return err
	}); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
	}

	return saved, nil
}

// GetActiveCart returns the active cart for the owner, or not-found.
func (s *service) GetActiveCart(ctx context.Context, ownerID uuid.UUID) (*models.CartRecord, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}

	record, err := s.repo.FindActiveByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "active cart not found")
		}
		return nil, err
	}
	return record, nil
}

// RecalculateTotal sums the lines' per-line totals in cents.
func RecalculateTotal(record *models.CartRecord) int64 {
	totals := make([]int64, 0, len(record.Lines))
	for _, line := range record.Lines {
		totals = append(totals, pricing.LineTotalCents(line.UnitPriceCents, line.Quantity))
	}
	return pricing.SumLineTotals(totals)
}
