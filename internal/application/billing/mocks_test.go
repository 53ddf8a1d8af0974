package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/medcare/backend/internal/domain/billing"
	"github.com/stretchr/testify/mock"
)

// Mock implementations

type mockPlanCatalogRepository struct {
	mock.Mock
}

func (m *mockPlanCatalogRepository) FindAll(ctx context.Context) ([]*billing.PlanConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.PlanConfig), args.Error(1)
}

func (m *mockPlanCatalogRepository) FindByCode(ctx context.Context, code billing.PlanCode) (*billing.PlanConfig, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.PlanConfig), args.Error(1)
}

func (m *mockPlanCatalogRepository) CreateMissing(ctx context.Context, plans []*billing.PlanConfig) (int64, error) {
	args := m.Called(ctx, plans)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPlanCatalogRepository) CreateMissingPrices(ctx context.Context, prices []billing.PlanPrice) (int64, error) {
	args := m.Called(ctx, prices)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPlanCatalogRepository) SaveWithPrices(ctx context.Context, plan *billing.PlanConfig, prices []billing.PlanPrice) error {
	args := m.Called(ctx, plan, prices)
	return args.Error(0)
}

type mockSubscriptionReader struct {
	mock.Mock
}

func (m *mockSubscriptionReader) FindCurrent(ctx context.Context, scope billing.Scope) (*billing.Subscription, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Subscription), args.Error(1)
}

func (m *mockSubscriptionReader) CountActiveSubscribers(ctx context.Context) ([]billing.SubscriberCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.SubscriberCount), args.Error(1)
}

func (m *mockSubscriptionReader) FindForReport(ctx context.Context, filter billing.RevenueFilter) ([]billing.Subscription, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Subscription), args.Error(1)
}

type mockUsageReader struct {
	mock.Mock
}

func (m *mockUsageReader) CountAppointments(ctx context.Context, scope billing.Scope, period billing.Period) (int64, int64, error) {
	args := m.Called(ctx, scope, period)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *mockUsageReader) CountRosterDoctors(ctx context.Context, hospitalID uuid.UUID) (int64, error) {
	args := m.Called(ctx, hospitalID)
	return args.Get(0).(int64), args.Error(1)
}

type mockPaymentReader struct {
	mock.Mock
}

func (m *mockPaymentReader) FindCompleted(ctx context.Context, filter billing.RevenueFilter) ([]billing.Payment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Payment), args.Error(1)
}

type mockPrincipalDirectory struct {
	mock.Mock
}

func (m *mockPrincipalDirectory) FindDoctorByUserID(ctx context.Context, userID uuid.UUID) (*billing.DoctorRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.DoctorRecord), args.Error(1)
}

func (m *mockPrincipalDirectory) FindHospitalByOwner(ctx context.Context, userID uuid.UUID) (*billing.HospitalRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.HospitalRecord), args.Error(1)
}

type mockPlanCache struct {
	mock.Mock
}

func (m *mockPlanCache) Get(ctx context.Context, code billing.PlanCode) (*billing.PlanConfig, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.PlanConfig), args.Error(1)
}

func (m *mockPlanCache) Set(ctx context.Context, plan *billing.PlanConfig, ttl time.Duration) error {
	args := m.Called(ctx, plan, ttl)
	return args.Error(0)
}

func (m *mockPlanCache) Delete(ctx context.Context, code billing.PlanCode) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

// Fixtures

var fixedNow = time.Date(2026, 5, 14, 12, 0, 0, 0, time.UTC)

func standardPlan() *billing.PlanConfig {
	plan, err := billing.NewPlanConfig(billing.PlanStandard, "Standard", "", billing.PlanLimits{
		MaxAppointments:       billing.LimitOf(20),
		MaxPatients:           billing.LimitOf(10),
		MaxDoctorsPerHospital: billing.LimitOf(3),
	})
	if err != nil {
		panic(err)
	}
	return plan
}

func freePlan() *billing.PlanConfig {
	for _, p := range billing.DefaultPlanConfigs() {
		if p.Code == billing.PlanFree {
			return p
		}
	}
	panic("no FREE plan")
}
