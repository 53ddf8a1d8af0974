package persistence

import (
	"context"

	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/domain/shared/valueobject"
	"github.com/medcare/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSubscriptionRepository implements billing.SubscriptionReader.
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormSubscriptionRepository creates a new subscription repository
func NewGormSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

func liveStatusStrings() []string {
	out := make([]string, 0, len(billing.LiveStatuses))
	for _, s := range billing.LiveStatuses {
		out = append(out, string(s))
	}
	return out
}

// FindCurrent returns the most recently updated ACTIVE or TRIAL subscription.
func (r *GormSubscriptionRepository) FindCurrent(ctx context.Context, scope billing.Scope) (*billing.Subscription, error) {
	var row models.SubscriptionModel
	err := r.db.WithContext(ctx).
		Where("subscriber_type = ? AND subscriber_id = ?", string(scope.SubscriberType()), scope.ID).
		Where("status IN ?", liveStatusStrings()).
		Order("updated_at DESC").
		Order("id").
		First(&row).Error
	if err != nil {
		return nil, translateError(err)
	}
	return row.ToDomain(), nil
}

// CountActiveSubscribers groups ACTIVE subscriptions by plan, subscriber type and currency.
func (r *GormSubscriptionRepository) CountActiveSubscribers(ctx context.Context) ([]billing.SubscriberCount, error) {
	type result struct {
		PlanCode       string
		SubscriberType string
		Currency       string
		Count          int64
	}
	var rows []result
	err := r.db.WithContext(ctx).
		Model(&models.SubscriptionModel{}).
		Select("plan_code, subscriber_type, currency, COUNT(*) AS count").
		Where("status = ?", string(billing.StatusActive)).
		Group("plan_code, subscriber_type, currency").
		Order("plan_code, subscriber_type, currency").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]billing.SubscriberCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, billing.SubscriberCount{
			PlanCode:       billing.PlanCode(row.PlanCode),
			SubscriberType: billing.SubscriberType(row.SubscriberType),
			Currency:       valueobject.Currency(row.Currency),
			Count:          row.Count,
		})
	}
	return out, nil
}

// FindForReport returns subscriptions of the filtered plan and subscriber
// type that overlap the report window, plus every ACTIVE one for run-rate.
func (r *GormSubscriptionRepository) FindForReport(ctx context.Context, filter billing.RevenueFilter) ([]billing.Subscription, error) {
	window := filter.Window()
	var rows []models.SubscriptionModel
	err := r.db.WithContext(ctx).
		Scopes(subscriptionFilter(filter)).
		Where(r.db.
			Where("start_date < ? AND (end_date IS NULL OR end_date >= ?)", window.End, window.Start).
			Or("status = ?", string(billing.StatusActive))).
		Order("start_date, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]billing.Subscription, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// subscriptionFilter narrows subscriptions by the filter's plan and subscriber type.
func subscriptionFilter(f billing.RevenueFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Plan != nil {
			db = db.Where("subscriptions.plan_code = ?", string(*f.Plan))
		}
		if f.SubscriberType != nil {
			db = db.Where("subscriptions.subscriber_type = ?", string(*f.SubscriberType))
		}
		return db
	}
}
