package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/medcare/backend/internal/domain/shared/valueobject"
)

// PlanCatalogRepository persists the plan catalog, which this service owns.
type PlanCatalogRepository interface {
	// FindAll returns every plan with its prices, ordered by canonical tier.
	FindAll(ctx context.Context) ([]*PlanConfig, error)
	// FindByCode returns shared.ErrNotFound when the code is absent.
	FindByCode(ctx context.Context, code PlanCode) (*PlanConfig, error)
	// CreateMissing inserts the given plans in one transaction, skipping codes
	// that already exist. It returns the number of rows inserted.
	CreateMissing(ctx context.Context, plans []*PlanConfig) (int64, error)
	// CreateMissingPrices inserts prices, skipping rows whose
	// (plan, subscriber type, interval, currency) key already exists.
	CreateMissingPrices(ctx context.Context, prices []PlanPrice) (int64, error)
	// SaveWithPrices upserts the plan row and the given prices atomically.
	SaveWithPrices(ctx context.Context, plan *PlanConfig, prices []PlanPrice) error
}

// SubscriberCount is the number of ACTIVE subscriptions for one plan,
// subscriber type and currency.
type SubscriberCount struct {
	PlanCode       PlanCode
	SubscriberType SubscriberType
	Currency       valueobject.Currency
	Count          int64
}

// SubscriptionReader reads subscription records owned by the billing flow.
type SubscriptionReader interface {
	// FindCurrent returns the most recently updated ACTIVE or TRIAL
	// subscription for scope, or shared.ErrNotFound.
	FindCurrent(ctx context.Context, scope Scope) (*Subscription, error)
	// CountActiveSubscribers groups ACTIVE subscriptions by plan, subscriber type and currency.
	CountActiveSubscribers(ctx context.Context) ([]SubscriberCount, error)
	// FindForReport returns subscriptions matching the filter's plan and
	// subscriber type whose period overlaps the filter window or that are ACTIVE.
	FindForReport(ctx context.Context, filter RevenueFilter) ([]Subscription, error)
}

// UsageReader counts domain records that make up usage.
type UsageReader interface {
	// CountAppointments returns the number of distinct appointments and
	// distinct patients attributed to scope within period.
	CountAppointments(ctx context.Context, scope Scope, period Period) (appointments int64, patients int64, err error)
	// CountRosterDoctors returns the current roster size of a hospital.
	CountRosterDoctors(ctx context.Context, hospitalID uuid.UUID) (int64, error)
}

// PaymentReader reads payment records.
type PaymentReader interface {
	// FindCompleted returns COMPLETED payments inside the filter window whose
	// subscription matches the filter's plan, status and subscriber type.
	FindCompleted(ctx context.Context, filter RevenueFilter) ([]Payment, error)
}

// PrincipalDirectory looks up the practice records owned by a user.
type PrincipalDirectory interface {
	FindDoctorByUserID(ctx context.Context, userID uuid.UUID) (*DoctorRecord, error)
	FindHospitalByOwner(ctx context.Context, userID uuid.UUID) (*HospitalRecord, error)
}
