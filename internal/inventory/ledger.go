package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calebmonroe/printhaus-backend/pkg/db/models"
	pkgerrors "github.com/calebmonroe/printhaus-backend/pkg/errors"
)

// Ledger is the stock collaborator consumed by the checkout orchestrator.
// Decrements are per-item atomic conditional updates, deliberately not part
// of any cross-item transaction; callers compensate on partial failure.
type Ledger interface {
	DecrementIfAvailable(ctx context.Context, itemID uuid.UUID, qty int) (bool, error)
	Increment(ctx context.Context, itemID uuid.UUID, qty int) error
}

type gormLedger struct {
	db *gorm.DB
}

// NewLedger builds a ledger over the catalog stock counts.
func NewLedger(db *gorm.DB) Ledger {
	return &gormLedger{db: db}
}

// DecrementIfAvailable reserves qty units of an item. The guard lives in the
// WHERE clause, so two concurrent reservations can never drive stock negative.
func (l *gormLedger) DecrementIfAvailable(ctx context.Context, itemID uuid.UUID, qty int) (bool, error) {
	if qty <= 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid reservation quantity %d", qty))
	}

	result := l.db.WithContext(ctx).
		Model(&models.CatalogItem{}).
		Where("id = ? AND available_stock >= ?", itemID, qty).
		UpdateColumn("available_stock", gorm.Expr("available_stock - ?", qty))
	if result.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "decrement stock")
	}
	return result.RowsAffected == 1, nil
}

// Increment releases previously reserved units back to the pool.
func (l *gormLedger) Increment(ctx context.Context, itemID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid release quantity %d", qty))
	}

	result := l.db.WithContext(ctx).
		Model(&models.CatalogItem{}).
		Where("id = ?", itemID).
		UpdateColumn("available_stock", gorm.Expr("available_stock + ?", qty))
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "release stock")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "catalog item not found")
	}
	return nil
}
