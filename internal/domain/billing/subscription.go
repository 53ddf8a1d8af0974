package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/medcare/backend/internal/domain/shared"
	"github.com/medcare/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SubscriptionStatus is the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "ACTIVE"
	StatusTrial    SubscriptionStatus = "TRIAL"
	StatusInactive SubscriptionStatus = "INACTIVE"
	StatusExpired  SubscriptionStatus = "EXPIRED"
	StatusPending  SubscriptionStatus = "PENDING"
)

// LiveStatuses are the statuses that make a subscription the current one for its scope.
var LiveStatuses = []SubscriptionStatus{StatusActive, StatusTrial}

// ParseSubscriptionStatus converts user input into a SubscriptionStatus.
func ParseSubscriptionStatus(s string) (SubscriptionStatus, error) {
	st := SubscriptionStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", shared.NewDomainError("INVALID_STATUS", "Invalid subscription status")
	}
	return st, nil
}

// String returns the string representation of SubscriptionStatus
func (s SubscriptionStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is valid
func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusTrial, StatusInactive, StatusExpired, StatusPending:
		return true
	}
	return false
}

// IsHardBlocked reports whether the status denies every action regardless of usage.
func (s SubscriptionStatus) IsHardBlocked() bool {
	return s == StatusExpired || s == StatusInactive
}

// IsLive reports whether the status is ACTIVE or TRIAL.
func (s SubscriptionStatus) IsLive() bool {
	return s == StatusActive || s == StatusTrial
}

// Subscription is the plan assignment of one scope. It is written by the
// external billing flow and only read here.
type Subscription struct {
	ID        uuid.UUID
	Scope     Scope
	PlanCode  PlanCode
	Status    SubscriptionStatus
	StartDate time.Time
	EndDate   *time.Time
	Currency  valueobject.Currency
	Amount    decimal.Decimal
	Interval  BillingInterval
	AutoRenew bool
	UpdatedAt time.Time
}

// DefaultSubscription is what a scope without a live subscription falls back to.
func DefaultSubscription(scope Scope) *Subscription {
	return &Subscription{
		Scope:    scope,
		PlanCode: PlanFree,
		Status:   StatusInactive,
		Interval: IntervalMonth,
	}
}

// IsDefault reports whether s was synthesized by DefaultSubscription.
func (s *Subscription) IsDefault() bool {
	return s.ID == uuid.Nil
}

// Overlaps reports whether [StartDate, EndDate] intersects [from, to].
// A nil EndDate is open-ended.
func (s *Subscription) Overlaps(from, to time.Time) bool {
	if s.StartDate.After(to) {
		return false
	}
	if s.EndDate != nil && s.EndDate.Before(from) {
		return false
	}
	return true
}
