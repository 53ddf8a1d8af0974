package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/domain/shared"
	"github.com/medcare/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SummaryResult is either a limit summary or a not-applicable marker for
// principals without a billing model.
type SummaryResult struct {
	Applicable bool
	Reason     string
	Summary    *billing.LimitSummary
}

// PlanProvider returns plan configurations by code.
type PlanProvider interface {
	GetPlan(ctx context.Context, code billing.PlanCode) (*billing.PlanConfig, error)
}

// EntitlementService combines subscription, plan and usage into a LimitSummary.
type EntitlementService struct {
	resolver *TenantResolver
	subs     billing.SubscriptionReader
	plans    PlanProvider
	usage    *UsageCounter
	logger   *zap.Logger
}

// NewEntitlementService creates a new EntitlementService
func NewEntitlementService(
	resolver *TenantResolver,
	subs billing.SubscriptionReader,
	plans PlanProvider,
	usage *UsageCounter,
	logger *zap.Logger,
) *EntitlementService {
	return &EntitlementService{
		resolver: resolver,
		subs:     subs,
		plans:    plans,
		usage:    usage,
		logger:   logger,
	}
}

// GetSummary resolves the principal's scope and returns its summary.
// A nil principal is billing.ErrUnauthenticated.
func (s *EntitlementService) GetSummary(ctx context.Context, p *billing.Principal) (*SummaryResult, error) {
	res, err := s.resolver.Resolve(p)
	if err != nil {
		return nil, err
	}
	if !res.Applicable {
		return &SummaryResult{Applicable: false, Reason: res.Reason}, nil
	}

	summary, err := s.GetSummaryForScope(ctx, res.Scope)
	if err != nil {
		return nil, err
	}
	return &SummaryResult{Applicable: true, Summary: summary}, nil
}

// GetSummaryForScope computes the summary of a known scope. A missing plan
// configuration is not an error: every limit is reported unlimited and the
// summary is flagged PlanMissing.
func (s *EntitlementService) GetSummaryForScope(ctx context.Context, scope billing.Scope) (*billing.LimitSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "entitlement", "summary",
		telemetry.WithAttribute("scope", scope.String()))
	defer span.End()

	sub, err := s.subs.FindCurrent(ctx, scope)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		sub = billing.DefaultSubscription(scope)
	case err != nil:
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("load subscription for %s: %w", scope, err)
	}

	plan, err := s.plans.GetPlan(ctx, sub.PlanCode)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		s.logger.Warn("Plan configuration missing, treating limits as unlimited",
			zap.String("scope", scope.String()),
			zap.String("plan", sub.PlanCode.String()))
		plan = nil
	case err != nil:
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("load plan %s: %w", sub.PlanCode, err)
	}

	usage, err := s.usage.Count(ctx, scope, time.Time{})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	summary := billing.ComputeSummary(sub, plan, usage)
	telemetry.SetAttributes(span,
		"plan", string(summary.Plan),
		"status", string(summary.Status),
		"any_exceeded", summary.AnyExceeded)
	return summary, nil
}
