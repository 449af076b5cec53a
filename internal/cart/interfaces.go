package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calebmonroe/printhaus-backend/pkg/db/models"
)

// CartRepository defines persistence operations for cart staging data.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	Create(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error)
	FindActiveByOwner(ctx context.Context, ownerID uuid.UUID) (*models.CartRecord, error)
	FindByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.CartRecord, error)
	CreateLine(ctx context.Context, line *models.CartLine) error
	FindLineForOwner(ctx context.Context, lineID, ownerID uuid.UUID) (*models.CartLine, error)
	UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error
	DeleteLine(ctx context.Context, lineID uuid.UUID) error
	MarkCheckedOut(ctx context.Context, cartID uuid.UUID) (bool, error)
	RevertToActive(ctx context.Context, cartID uuid.UUID) error
}
