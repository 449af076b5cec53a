package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calebmonroe/printhaus-backend/pkg/db/models"
	"github.com/calebmonroe/printhaus-backend/pkg/enums"
)

// Repository defines persistence operations for order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateLines(ctx context.Context, lines []models.OrderLine) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	FindByPaymentIntentID(ctx context.Context, intentID string) (*models.Order, error)
	FindLinesByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderLine, error)
	SetPaymentIntentID(ctx context.Context, orderID uuid.UUID, intentID string) error
	TransitionStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (bool, error)
}

// PaymentEventRepository is the durable dedupe store for provider webhooks.
type PaymentEventRepository interface {
	WithTx(tx *gorm.DB) PaymentEventRepository
	Create(ctx context.Context, event *models.PaymentEvent) error
	Exists(ctx context.Context, eventID string) (bool, error)
}
