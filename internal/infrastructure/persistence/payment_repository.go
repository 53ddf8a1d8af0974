package persistence

import (
	"context"

	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentRepository implements billing.PaymentReader.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new payment repository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindCompleted returns COMPLETED payments dated in [dateFrom, dateTo+1day)
// whose subscription matches the filter.
func (r *GormPaymentRepository) FindCompleted(ctx context.Context, filter billing.RevenueFilter) ([]billing.Payment, error) {
	window := filter.Window()
	db := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Select("payments.*").
		Joins("JOIN subscriptions ON subscriptions.id = payments.subscription_id").
		Where("payments.status = ?", string(billing.PaymentCompleted)).
		Where("payments.payment_date >= ? AND payments.payment_date < ?", window.Start, window.End).
		Scopes(subscriptionFilter(filter))
	if filter.Status != nil {
		db = db.Where("subscriptions.status = ?", string(*filter.Status))
	}

	var rows []models.PaymentModel
	if err := db.Order("payments.payment_date, payments.id").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]billing.Payment, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}
