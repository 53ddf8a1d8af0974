package billing

import (
	"fmt"
	"net/http"

	"github.com/medcare/backend/internal/domain/shared"
)

// Entitlement errors
var (
	ErrUnauthenticated   = shared.NewDomainError("UNAUTHORIZED", "Authentication required")
	ErrPlanConfigMissing = shared.NewDomainError("PLAN_CONFIG_MISSING", "Plan configuration is missing; run the catalog bootstrap")
	ErrInvalidPlanCode   = shared.NewDomainError("INVALID_PLAN_CODE", "Plan code must be one of FREE, STANDARD, PREMIUM")
	ErrInvalidRule       = shared.NewDomainError("INVALID_RULE", "Gate rule is malformed")
	ErrUnknownAction     = shared.NewDomainError("UNKNOWN_ACTION", "Unknown gated action")
)

// LimitExceededError is returned when a protected write would go past a plan limit.
type LimitExceededError struct {
	Key       LimitKey
	Limit     int64
	Usage     int64
	Requested int64
	Message   string
}

// Error implements the error interface
func (e *LimitExceededError) Error() string {
	return e.Message
}

// Code returns the error code reported to clients
func (e *LimitExceededError) Code() string {
	return "LIMIT_EXCEEDED"
}

// HTTPStatusCode returns the HTTP status code for this error (429 Too Many Requests)
func (e *LimitExceededError) HTTPStatusCode() int {
	return http.StatusTooManyRequests
}

// NewLimitExceededError creates a new LimitExceededError
func NewLimitExceededError(key LimitKey, usage, limit, requested int64) *LimitExceededError {
	return &LimitExceededError{
		Key:       key,
		Limit:     limit,
		Usage:     usage,
		Requested: requested,
		Message: fmt.Sprintf("Plan limit reached for %s: %d of %d used",
			key.DisplayName(), usage, limit),
	}
}

// SubscriptionBlockedError is returned when a protected write is attempted
// while the subscription status does not permit it.
type SubscriptionBlockedError struct {
	Status  SubscriptionStatus
	Message string
}

// Error implements the error interface
func (e *SubscriptionBlockedError) Error() string {
	return e.Message
}

// Code returns the error code reported to clients
func (e *SubscriptionBlockedError) Code() string {
	return "SUBSCRIPTION_BLOCKED"
}

// HTTPStatusCode returns the HTTP status code for this error (403 Forbidden)
func (e *SubscriptionBlockedError) HTTPStatusCode() int {
	return http.StatusForbidden
}

// NewSubscriptionBlockedError creates a new SubscriptionBlockedError
func NewSubscriptionBlockedError(status SubscriptionStatus, reason string) *SubscriptionBlockedError {
	if reason == "" {
		reason = fmt.Sprintf("Subscription status %s does not permit this action", status)
	}
	return &SubscriptionBlockedError{Status: status, Message: reason}
}
