package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/domain/shared/valueobject"
	"github.com/medcare/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func insertPayment(t *testing.T, db *gorm.DB, subID uuid.UUID, status string, amount int64, currency string, when time.Time) uuid.UUID {
	t.Helper()
	p := billing.Payment{
		ID:             uuid.New(),
		SubscriptionID: subID,
		Amount:         decimal.NewFromInt(amount),
		Currency:       valueobject.Currency(currency),
		PaymentDate:    when,
		Status:         billing.PaymentStatus(status),
	}
	require.NoError(t, db.Create(models.PaymentModelFromDomain(p)).Error)
	return p.ID
}

func TestGormPaymentRepository_FindCompleted(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()

	doctorSub := insertSubscription(t, db, subscriptionRow{
		subscriberType: "DOCTOR", subscriberID: uuid.New(), plan: "STANDARD", status: "ACTIVE",
		start: at("2026-01-01T00:00:00Z"),
	})
	hospitalSub := insertSubscription(t, db, subscriptionRow{
		subscriberType: "HOSPITAL", subscriberID: uuid.New(), plan: "PREMIUM", status: "EXPIRED",
		start: at("2026-01-01T00:00:00Z"),
	})

	first := insertPayment(t, db, doctorSub, "COMPLETED", 60000, "COP", at("2026-03-01T00:00:00Z"))
	last := insertPayment(t, db, hospitalSub, "COMPLETED", 20, "USD", at("2026-03-31T23:59:59Z"))
	insertPayment(t, db, doctorSub, "COMPLETED", 60000, "COP", at("2026-04-01T00:00:00Z"))
	insertPayment(t, db, doctorSub, "COMPLETED", 60000, "COP", at("2026-02-28T23:59:59Z"))
	insertPayment(t, db, doctorSub, "FAILED", 60000, "COP", at("2026-03-10T00:00:00Z"))

	filter, err := billing.NewRevenueFilter(at("2026-03-01T00:00:00Z"), at("2026-03-31T00:00:00Z"))
	require.NoError(t, err)

	t.Run("window covers the whole last day", func(t *testing.T) {
		payments, err := repo.FindCompleted(ctx, filter)
		require.NoError(t, err)
		require.Len(t, payments, 2)
		assert.Equal(t, first, payments[0].ID)
		assert.Equal(t, last, payments[1].ID)
	})

	t.Run("status narrows by subscription status", func(t *testing.T) {
		f := filter
		status := billing.StatusExpired
		f.Status = &status
		payments, err := repo.FindCompleted(ctx, f)
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.Equal(t, last, payments[0].ID)
	})

	t.Run("subscriber type narrows by subscription owner", func(t *testing.T) {
		f := filter
		subType := billing.SubscriberTypeDoctor
		f.SubscriberType = &subType
		payments, err := repo.FindCompleted(ctx, f)
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.Equal(t, first, payments[0].ID)
	})
}
