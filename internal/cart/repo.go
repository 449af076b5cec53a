package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calebmonroe/printhaus-backend/pkg/db/models"
	"github.com/calebmonroe/printhaus-backend/pkg/enums"
)

// Repository exposes persistence operations for cart staging data.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new CartRecord.
func (r *Repository) Create(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error) {
	if record.Status == "" {
		record.Status = enums.CartStatusActive
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// FindActiveByOwner loads the latest active CartRecord for the owner.
func (r *Repository) FindActiveByOwner(ctx context.Context, ownerID uuid.UUID) (*models.CartRecord, error) {
	var record models.CartRecord
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("owner_id = ? AND status = ?", ownerID, enums.CartStatusActive).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByIDAndOwner returns a CartRecord restricted to the provided owner.
func (r *Repository) FindByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.CartRecord, error) {
	var record models.CartRecord
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// CreateLine inserts a configured print line.
func (r *Repository) CreateLine(ctx context.Context, line *models.CartLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

// FindLineForOwner loads a line only when it belongs to an active cart owned
// by the caller. Lines in other owners' carts surface as record-not-found.
func (r *Repository) FindLineForOwner(ctx context.Context, lineID, ownerID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Joins("JOIN cart_records ON cart_records.id = cart_lines.cart_id").
		Where("cart_lines.id = ? AND cart_records.owner_id = ? AND cart_records.status = ?",
			lineID, ownerID, enums.CartStatusActive).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// UpdateLineQuantity sets the quantity on a line.
func (r *Repository) UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("id = ?", lineID).
		Update("quantity", quantity).Error
}

// DeleteLine removes a line.
func (r *Repository) DeleteLine(ctx context.Context, lineID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", lineID).
		Delete(&models.CartLine{}).Error
}

// MarkCheckedOut flips an active cart to checked_out and bumps the attempt
// counter in one conditional update. A false return means the cart was not
// active anymore, which is how concurrent checkouts lose the race.
func (r *Repository) MarkCheckedOut(ctx context.Context, cartID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CartRecord{}).
		Where("id = ? AND status = ?", cartID, enums.CartStatusActive).
		UpdateColumns(map[string]any{
			"status":            enums.CartStatusCheckedOut,
			"checkout_attempts": gorm.Expr("checkout_attempts + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// RevertToActive returns a checked_out cart to active after a failed
// reservation so the owner can amend it and retry.
func (r *Repository) RevertToActive(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.CartRecord{}).
		Where("id = ? AND status = ?", cartID, enums.CartStatusCheckedOut).
		Update("status", enums.CartStatusActive).Error
}
