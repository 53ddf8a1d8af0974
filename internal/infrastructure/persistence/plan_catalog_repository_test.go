package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/domain/shared"
	"github.com/medcare/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultPrices(plans []*billing.PlanConfig) []billing.PlanPrice {
	var prices []billing.PlanPrice
	for _, p := range plans {
		for subType, amount := range billing.DefaultPricesFor(p.Code) {
			prices = append(prices, billing.PlanPrice{
				ID:             uuid.New(),
				PlanID:         p.ID,
				SubscriberType: subType,
				Interval:       billing.IntervalMonth,
				Currency:       "COP",
				Amount:         amount,
				IsActive:       true,
			})
		}
	}
	return prices
}

func TestGormPlanCatalogRepository_CreateMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPlanCatalogRepository(db)
	ctx := context.Background()

	t.Run("creates the canonical plans once", func(t *testing.T) {
		created, err := repo.CreateMissing(ctx, billing.DefaultPlanConfigs())
		require.NoError(t, err)
		assert.Equal(t, int64(3), created)

		created, err = repo.CreateMissing(ctx, billing.DefaultPlanConfigs())
		require.NoError(t, err)
		assert.Equal(t, int64(0), created)

		var n int64
		require.NoError(t, db.Model(&models.PlanConfigModel{}).Count(&n).Error)
		assert.Equal(t, int64(3), n)
	})

	t.Run("never modifies an existing plan", func(t *testing.T) {
		require.NoError(t, db.Model(&models.PlanConfigModel{}).
			Where("code = ?", "FREE").
			Update("max_appointments", 99).Error)

		_, err := repo.CreateMissing(ctx, billing.DefaultPlanConfigs())
		require.NoError(t, err)

		free, err := repo.FindByCode(ctx, billing.PlanFree)
		require.NoError(t, err)
		require.NotNil(t, free.Limits.MaxAppointments)
		assert.Equal(t, int64(99), *free.Limits.MaxAppointments)
	})

	t.Run("empty input", func(t *testing.T) {
		created, err := repo.CreateMissing(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, created)
	})
}

func TestGormPlanCatalogRepository_CreateMissingPrices(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPlanCatalogRepository(db)
	ctx := context.Background()

	_, err := repo.CreateMissing(ctx, billing.DefaultPlanConfigs())
	require.NoError(t, err)
	plans, err := repo.FindAll(ctx)
	require.NoError(t, err)

	created, err := repo.CreateMissingPrices(ctx, defaultPrices(plans))
	require.NoError(t, err)
	assert.Equal(t, int64(6), created)

	// Fresh IDs, same natural keys.
	created, err = repo.CreateMissingPrices(ctx, defaultPrices(plans))
	require.NoError(t, err)
	assert.Equal(t, int64(0), created)

	standard, err := repo.FindByCode(ctx, billing.PlanStandard)
	require.NoError(t, err)
	price, ok := standard.ActivePrice(billing.SubscriberTypeHospital, billing.IntervalMonth, "COP")
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(300000).Equal(price.Amount))
}

func TestGormPlanCatalogRepository_FindAll_TierOrderAndLimits(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPlanCatalogRepository(db)
	ctx := context.Background()

	defaults := billing.DefaultPlanConfigs()
	// Insert out of order.
	_, err := repo.CreateMissing(ctx, []*billing.PlanConfig{defaults[2], defaults[0], defaults[1]})
	require.NoError(t, err)

	plans, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, billing.PlanFree, plans[0].Code)
	assert.Equal(t, billing.PlanStandard, plans[1].Code)
	assert.Equal(t, billing.PlanPremium, plans[2].Code)

	premium := plans[2]
	assert.Nil(t, premium.Limits.MaxAppointments)
	assert.Nil(t, premium.Limits.MaxPatients)
	assert.Nil(t, premium.Limits.MaxDoctorsPerHospital)
	require.NotNil(t, premium.Limits.StorageGB)
	assert.Equal(t, int64(200), *premium.Limits.StorageGB)
}

func TestGormPlanCatalogRepository_FindByCode_NotFound(t *testing.T) {
	repo := NewGormPlanCatalogRepository(setupTestDB(t))

	_, err := repo.FindByCode(context.Background(), billing.PlanPremium)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormPlanCatalogRepository_SaveWithPrices(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPlanCatalogRepository(db)
	ctx := context.Background()

	_, err := repo.CreateMissing(ctx, billing.DefaultPlanConfigs())
	require.NoError(t, err)
	stored, err := repo.FindByCode(ctx, billing.PlanStandard)
	require.NoError(t, err)

	t.Run("updates limits and upserts prices in a new currency", func(t *testing.T) {
		// A plan object with a stale ID still lands on the stored row.
		plan, err := billing.NewPlanConfig(billing.PlanStandard, "Standard+", "Edited", billing.PlanLimits{
			MaxAppointments: billing.LimitOf(500),
		})
		require.NoError(t, err)

		prices := []billing.PlanPrice{
			{ID: uuid.New(), SubscriberType: billing.SubscriberTypeDoctor, Interval: billing.IntervalMonth, Currency: "USD", Amount: decimal.NewFromInt(15), IsActive: true},
			{ID: uuid.New(), SubscriberType: billing.SubscriberTypeHospital, Interval: billing.IntervalMonth, Currency: "USD", Amount: decimal.NewFromInt(75), IsActive: true},
		}
		require.NoError(t, repo.SaveWithPrices(ctx, plan, prices))
		assert.Equal(t, stored.ID, plan.ID)

		got, err := repo.FindByCode(ctx, billing.PlanStandard)
		require.NoError(t, err)
		assert.Equal(t, "Standard+", got.Name)
		require.NotNil(t, got.Limits.MaxAppointments)
		assert.Equal(t, int64(500), *got.Limits.MaxAppointments)
		assert.Nil(t, got.Limits.MaxPatients)
		require.Len(t, got.Prices, 2)

		// Saving again updates the same rows.
		prices[0].ID = uuid.New()
		prices[0].Amount = decimal.NewFromInt(20)
		require.NoError(t, repo.SaveWithPrices(ctx, plan, prices))

		got, err = repo.FindByCode(ctx, billing.PlanStandard)
		require.NoError(t, err)
		require.Len(t, got.Prices, 2)
		price, ok := got.ActivePrice(billing.SubscriberTypeDoctor, billing.IntervalMonth, "USD")
		require.True(t, ok)
		assert.True(t, decimal.NewFromInt(20).Equal(price.Amount))
	})

	t.Run("creates a plan that does not exist", func(t *testing.T) {
		require.NoError(t, db.Where("code = ?", "PREMIUM").Delete(&models.PlanConfigModel{}).Error)

		plan, err := billing.NewPlanConfig(billing.PlanPremium, "Premium", "", billing.PlanLimits{})
		require.NoError(t, err)
		require.NoError(t, repo.SaveWithPrices(ctx, plan, nil))

		got, err := repo.FindByCode(ctx, billing.PlanPremium)
		require.NoError(t, err)
		assert.Equal(t, plan.ID, got.ID)
	})

	t.Run("failed price rolls back the plan update", func(t *testing.T) {
		plan, err := repo.FindByCode(ctx, billing.PlanFree)
		require.NoError(t, err)
		require.NoError(t, plan.Update("Renamed", "", true, plan.Limits))

		require.NoError(t, db.Exec("DROP TABLE plan_prices").Error)
		t.Cleanup(func() { _ = db.AutoMigrate(&models.PlanPriceModel{}) })

		err = repo.SaveWithPrices(ctx, plan, []billing.PlanPrice{
			{ID: uuid.New(), SubscriberType: billing.SubscriberTypeDoctor, Interval: billing.IntervalMonth, Currency: "COP", IsActive: true},
		})
		require.Error(t, err)

		var row models.PlanConfigModel
		require.NoError(t, db.Where("code = ?", "FREE").First(&row).Error)
		assert.Equal(t, "Free", row.Name)
	})
}
