package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlan(t *testing.T, code billing.PlanCode) *billing.PlanConfig {
	t.Helper()
	plan, err := billing.NewPlanConfig(code, "Standard", "For growing practices", billing.PlanLimits{
		MaxAppointments:       billing.LimitOf(20),
		MaxPatients:           billing.LimitOf(10),
		MaxDoctorsPerHospital: billing.LimitOf(3),
	})
	require.NoError(t, err)
	plan.Prices = []billing.PlanPrice{{
		ID:             uuid.New(),
		PlanID:         plan.ID,
		SubscriberType: billing.SubscriberTypeDoctor,
		Interval:       billing.IntervalMonth,
		Currency:       valueobject.Currency("COP"),
		Amount:         decimal.NewFromInt(89000),
		IsActive:       true,
	}}
	return plan
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestInMemoryCache(t *testing.T) (*InMemoryPlanCache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 5, 14, 12, 0, 0, 0, time.UTC)}
	c := NewInMemoryPlanCache(WithCleanupInterval(time.Hour))
	c.now = clock.Now
	t.Cleanup(c.Stop)
	return c, clock
}

func TestInMemoryPlanCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestInMemoryCache(t)

	got, err := c.Get(ctx, billing.PlanStandard)
	require.NoError(t, err)
	assert.Nil(t, got)

	plan := testPlan(t, billing.PlanStandard)
	require.NoError(t, c.Set(ctx, plan, time.Minute))

	got, err = c.Get(ctx, billing.PlanStandard)
	require.NoError(t, err)
	assert.Same(t, plan, got)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestInMemoryPlanCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestInMemoryCache(t)

	require.NoError(t, c.Set(ctx, testPlan(t, billing.PlanPremium), time.Minute))
	clock.Advance(59 * time.Second)
	got, _ := c.Get(ctx, billing.PlanPremium)
	assert.NotNil(t, got)

	clock.Advance(time.Second)
	got, _ = c.Get(ctx, billing.PlanPremium)
	assert.Nil(t, got, "entry expires exactly at its deadline")
}

func TestInMemoryPlanCache_ZeroTTLUsesConfig(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestInMemoryCache(t)

	require.NoError(t, c.Set(ctx, testPlan(t, billing.PlanFree), 0))
	clock.Advance(4 * time.Minute)
	got, _ := c.Get(ctx, billing.PlanFree)
	assert.NotNil(t, got)
}

func TestInMemoryPlanCache_DeleteAndInvalidateAll(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestInMemoryCache(t)

	require.NoError(t, c.Set(ctx, testPlan(t, billing.PlanFree), time.Minute))
	require.NoError(t, c.Set(ctx, testPlan(t, billing.PlanStandard), time.Minute))

	require.NoError(t, c.Delete(ctx, billing.PlanFree))
	got, _ := c.Get(ctx, billing.PlanFree)
	assert.Nil(t, got)

	c.InvalidateAll()
	got, _ = c.Get(ctx, billing.PlanStandard)
	assert.Nil(t, got)
}

func TestInMemoryPlanCache_SetNilIsNoop(t *testing.T) {
	c, _ := newTestInMemoryCache(t)
	assert.NoError(t, c.Set(context.Background(), nil, time.Minute))
}

func TestInMemoryPlanCache_StopIsIdempotent(t *testing.T) {
	c := NewInMemoryPlanCache()
	c.Stop()
	assert.NotPanics(t, c.Stop)
	assert.NoError(t, c.Close())
}

func TestInMemoryPlanCache_SweeperRemovesExpired(t *testing.T) {
	c := NewInMemoryPlanCache(WithCleanupInterval(10 * time.Millisecond))
	t.Cleanup(c.Stop)

	require.NoError(t, c.Set(context.Background(), testPlan(t, billing.PlanFree), time.Millisecond))

	assert.Eventually(t, func() bool {
		_, present := c.plans.Load(billing.PlanFree)
		return !present
	}, time.Second, 10*time.Millisecond)
}
