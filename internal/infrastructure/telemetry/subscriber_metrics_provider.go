package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// GormSubscriberMetricsProvider implements SubscriberMetricsProvider using GORM.
// It aggregates the subscriptions table directly.
type GormSubscriberMetricsProvider struct {
	db *gorm.DB
}

// NewGormSubscriberMetricsProvider creates a new GormSubscriberMetricsProvider.
func NewGormSubscriberMetricsProvider(db *gorm.DB) *GormSubscriberMetricsProvider {
	return &GormSubscriberMetricsProvider{db: db}
}

// GetActiveSubscriberCounts returns ACTIVE subscriptions grouped by plan, subscriber type and currency.
func (p *GormSubscriberMetricsProvider) GetActiveSubscriberCounts(ctx context.Context) ([]SubscriberGauge, error) {
	type result struct {
		PlanCode       string `gorm:"column:plan_code"`
		SubscriberType string `gorm:"column:subscriber_type"`
		Currency       string `gorm:"column:currency"`
		Count          int64  `gorm:"column:cnt"`
	}

	var results []result
	err := p.db.WithContext(ctx).
		Table("subscriptions").
		Select("plan_code, subscriber_type, currency, COUNT(*) AS cnt").
		Where("status = ?", "ACTIVE").
		Group("plan_code, subscriber_type, currency").
		Find(&results).Error
	if err != nil {
		return nil, err
	}

	out := make([]SubscriberGauge, len(results))
	for i, r := range results {
		out[i] = SubscriberGauge{Plan: r.PlanCode, SubscriberType: r.SubscriberType, Currency: r.Currency, Count: r.Count}
	}
	return out, nil
}
