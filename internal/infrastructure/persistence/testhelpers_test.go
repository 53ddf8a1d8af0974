package persistence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/medcare/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory SQLite database with every table migrated.
// One connection keeps the in-memory database shared across queries.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

type subscriptionRow struct {
	subscriberType string
	subscriberID   uuid.UUID
	plan           string
	status         string
	start          time.Time
	end            *time.Time
	currency       string
	amount         int64
	updated        time.Time
}

func insertSubscription(t *testing.T, db *gorm.DB, r subscriptionRow) uuid.UUID {
	t.Helper()
	if r.currency == "" {
		r.currency = "COP"
	}
	if r.updated.IsZero() {
		r.updated = r.start
	}
	row := &models.SubscriptionModel{
		BaseModel:       models.BaseModel{ID: uuid.New(), CreatedAt: r.start, UpdatedAt: r.updated},
		SubscriberType:  r.subscriberType,
		SubscriberID:    r.subscriberID,
		PlanCode:        r.plan,
		Status:          r.status,
		StartDate:       r.start,
		EndDate:         r.end,
		Currency:        r.currency,
		Amount:          decimal.NewFromInt(r.amount),
		BillingInterval: "MONTH",
	}
	require.NoError(t, db.Create(row).Error)
	return row.ID
}

func ptrTime(t time.Time) *time.Time { return &t }
