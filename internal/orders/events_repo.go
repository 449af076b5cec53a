package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/calebmonroe/printhaus-backend/pkg/db/models"
)

type paymentEventRepository struct {
	db *gorm.DB
}

// NewPaymentEventRepository builds the webhook dedupe repository.
func NewPaymentEventRepository(db *gorm.DB) PaymentEventRepository {
	return &paymentEventRepository{db: db}
}

func (r *paymentEventRepository) WithTx(tx *gorm.DB) PaymentEventRepository {
	if tx == nil {
		return r
	}
	return &paymentEventRepository{db: tx}
}

func (r *paymentEventRepository) Create(ctx context.Context, event *models.PaymentEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *paymentEventRepository) Exists(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PaymentEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
