package persistence

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPlanCatalogRepository implements billing.PlanCatalogRepository.
// Creates rely on the unique keys of plan_configs and plan_prices so that
// concurrent bootstraps converge on one row per key.
type GormPlanCatalogRepository struct {
	db *gorm.DB
}

// NewGormPlanCatalogRepository creates a new plan catalog repository
func NewGormPlanCatalogRepository(db *gorm.DB) *GormPlanCatalogRepository {
	return &GormPlanCatalogRepository{db: db}
}

var planPriceKey = []clause.Column{
	{Name: "plan_id"},
	{Name: "subscriber_type"},
	{Name: "billing_interval"},
	{Name: "currency"},
}

// FindAll returns every plan with its prices in canonical tier order.
func (r *GormPlanCatalogRepository) FindAll(ctx context.Context) ([]*billing.PlanConfig, error) {
	var rows []models.PlanConfigModel
	err := r.db.WithContext(ctx).
		Preload("Prices", func(db *gorm.DB) *gorm.DB {
			return db.Order("subscriber_type, billing_interval, currency")
		}).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	plans := make([]*billing.PlanConfig, 0, len(rows))
	for i := range rows {
		plans = append(plans, rows[i].ToDomain())
	}
	sort.SliceStable(plans, func(i, j int) bool {
		return tierRank(plans[i].Code) < tierRank(plans[j].Code)
	})
	return plans, nil
}

func tierRank(code billing.PlanCode) int {
	for i, c := range billing.CanonicalPlanCodes {
		if c == code {
			return i
		}
	}
	return len(billing.CanonicalPlanCodes)
}

// FindByCode returns the plan with its prices
func (r *GormPlanCatalogRepository) FindByCode(ctx context.Context, code billing.PlanCode) (*billing.PlanConfig, error) {
	var row models.PlanConfigModel
	err := r.db.WithContext(ctx).
		Preload("Prices").
		Where("code = ?", string(code)).
		First(&row).Error
	if err != nil {
		return nil, translateError(err)
	}
	return row.ToDomain(), nil
}

// CreateMissing inserts plans whose code does not exist yet.
func (r *GormPlanCatalogRepository) CreateMissing(ctx context.Context, plans []*billing.PlanConfig) (int64, error) {
	if len(plans) == 0 {
		return 0, nil
	}
	rows := make([]*models.PlanConfigModel, 0, len(plans))
	for _, p := range plans {
		rows = append(rows, models.PlanConfigModelFromDomain(p))
	}

	var created int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Omit("Prices").
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).
			Create(&rows)
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("create missing plans: %w", err)
	}
	return created, nil
}

// CreateMissingPrices inserts prices whose natural key does not exist yet.
func (r *GormPlanCatalogRepository) CreateMissingPrices(ctx context.Context, prices []billing.PlanPrice) (int64, error) {
	if len(prices) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	rows := make([]*models.PlanPriceModel, 0, len(prices))
	for _, p := range prices {
		rows = append(rows, models.PlanPriceModelFromDomain(p, now))
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: planPriceKey, DoNothing: true}).
		Create(&rows)
	if res.Error != nil {
		return 0, fmt.Errorf("create missing prices: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// SaveWithPrices upserts the plan by code, then upserts each price by its
// natural key, in one transaction. Prices are re-pointed at the stored plan
// ID, which differs from plan.ID when another writer created the row first.
func (r *GormPlanCatalogRepository) SaveWithPrices(ctx context.Context, plan *billing.PlanConfig, prices []billing.PlanPrice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := models.PlanConfigModelFromDomain(plan)
		row.UpdatedAt = time.Now().UTC()
		if row.CreatedAt.IsZero() {
			row.CreatedAt = row.UpdatedAt
		}

		err := tx.Omit("Prices").Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "description", "is_active",
				"max_appointments", "max_patients", "max_doctors_per_hospital", "storage_gb",
				"updated_at",
			}),
		}).Create(row).Error
		if err != nil {
			return fmt.Errorf("upsert plan: %w", err)
		}

		var stored models.PlanConfigModel
		if err := tx.Select("id").Where("code = ?", row.Code).First(&stored).Error; err != nil {
			return fmt.Errorf("reload plan id: %w", err)
		}
		plan.ID = stored.ID

		for _, p := range prices {
			p.PlanID = stored.ID
			priceRow := models.PlanPriceModelFromDomain(p, row.UpdatedAt)
			err := tx.Clauses(clause.OnConflict{
				Columns:   planPriceKey,
				DoUpdates: clause.AssignmentColumns([]string{"amount", "is_active", "updated_at"}),
			}).Create(priceRow).Error
			if err != nil {
				return fmt.Errorf("upsert %s price: %w", p.SubscriberType, err)
			}
		}
		return nil
	})
}
