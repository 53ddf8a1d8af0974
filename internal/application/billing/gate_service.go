package billing

import (
	"context"

	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// GateCheckResult is the outcome of a UI-facing gate check.
type GateCheckResult struct {
	Applicable bool
	Decision   billing.GateDecision
	Summary    *billing.LimitSummary
}

// GateServiceConfig contains configuration for GateService
type GateServiceConfig struct {
	Remediation billing.Remediation
}

// DefaultGateServiceConfig returns default configuration
func DefaultGateServiceConfig() GateServiceConfig {
	return GateServiceConfig{Remediation: billing.DefaultRemediation}
}

// GateService evaluates gate rules for callers and enforces them before
// protected writes.
type GateService struct {
	entitlements    *EntitlementService
	logger          *zap.Logger
	remediation     billing.Remediation
	businessMetrics *telemetry.BusinessMetrics
}

// NewGateService creates a new GateService
func NewGateService(entitlements *EntitlementService, logger *zap.Logger, config GateServiceConfig) *GateService {
	if config.Remediation.Href == "" {
		config.Remediation = billing.DefaultRemediation
	}
	return &GateService{
		entitlements: entitlements,
		logger:       logger,
		remediation:  config.Remediation,
	}
}

// SetBusinessMetrics sets the business metrics for the service
func (s *GateService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// Check evaluates rule for the principal. Principals without a billing model
// are allowed and reported as not applicable. Denial is a normal result.
func (s *GateService) Check(ctx context.Context, p *billing.Principal, rule billing.GateRule) (*GateCheckResult, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	result, err := s.entitlements.GetSummary(ctx, p)
	if err != nil {
		return nil, err
	}
	if !result.Applicable {
		return &GateCheckResult{
			Applicable: false,
			Decision:   billing.GateDecision{Allowed: true, Remediation: s.remediation},
		}, nil
	}

	decision := billing.Evaluate(rule, result.Summary, s.remediation)
	s.record(ctx, rule, decision)
	return &GateCheckResult{Applicable: true, Decision: decision, Summary: result.Summary}, nil
}

// CheckAction is Check for a named action.
func (s *GateService) CheckAction(ctx context.Context, p *billing.Principal, action billing.Action) (*GateCheckResult, error) {
	rule, ok := billing.RuleForAction(action)
	if !ok {
		return nil, billing.ErrUnknownAction
	}
	return s.Check(ctx, p, rule)
}

// Enforce re-evaluates rule from fresh usage immediately before a protected
// write and returns nil only if the write may proceed.
//
// A denied LIMIT rule yields *billing.LimitExceededError and a status denial
// *billing.SubscriptionBlockedError. A LIMIT rule against a scope whose plan
// configuration is missing fails closed with billing.ErrPlanConfigMissing.
func (s *GateService) Enforce(ctx context.Context, p *billing.Principal, rule billing.GateRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	res, err := s.entitlements.resolver.Resolve(p)
	if err != nil {
		return err
	}
	if !res.Applicable {
		return nil
	}
	return s.enforceScope(ctx, res.Scope, rule)
}

// EnforceScope is Enforce against an explicit billing scope. It covers writes
// by callers with no scope of their own that still land in one, such as an
// employed doctor writing into the hospital's practice.
func (s *GateService) EnforceScope(ctx context.Context, scope billing.Scope, rule billing.GateRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	return s.enforceScope(ctx, scope, rule)
}

// EnforceActionForScope is EnforceScope for a named action.
func (s *GateService) EnforceActionForScope(ctx context.Context, scope billing.Scope, action billing.Action) error {
	rule, ok := billing.RuleForAction(action)
	if !ok {
		return billing.ErrUnknownAction
	}
	return s.EnforceScope(ctx, scope, rule)
}

func (s *GateService) enforceScope(ctx context.Context, scope billing.Scope, rule billing.GateRule) error {
	summary, err := s.entitlements.GetSummaryForScope(ctx, scope)
	if err != nil {
		return err
	}

	if summary.PlanMissing && rule.Type == billing.RuleLimit && !summary.Status.IsHardBlocked() {
		s.logger.Error("Rejecting protected write: plan configuration missing",
			zap.String("scope", scope.String()),
			zap.String("plan", summary.Plan.String()))
		return billing.ErrPlanConfigMissing
	}

	decision := billing.Evaluate(rule, summary, s.remediation)
	s.record(ctx, rule, decision)
	if decision.Allowed {
		return nil
	}

	s.logger.Info("Protected write denied",
		zap.String("scope", scope.String()),
		zap.String("denial", string(decision.Denial)),
		zap.String("key", string(decision.Key)))

	if decision.Denial == billing.DenialLimit {
		limit := *summary.Limits[decision.Key]
		if s.businessMetrics != nil {
			s.businessMetrics.RecordLimitExceeded(ctx, string(scope.Kind), string(decision.Key))
		}
		requested := rule.Delta
		if requested <= 0 {
			requested = 1
		}
		return billing.NewLimitExceededError(decision.Key, summary.Usage[decision.Key], limit, requested)
	}
	return billing.NewSubscriptionBlockedError(summary.Status, decision.Reason)
}

// EnforceAction is Enforce for a named action.
func (s *GateService) EnforceAction(ctx context.Context, p *billing.Principal, action billing.Action) error {
	rule, ok := billing.RuleForAction(action)
	if !ok {
		return billing.ErrUnknownAction
	}
	return s.Enforce(ctx, p, rule)
}

func (s *GateService) record(ctx context.Context, rule billing.GateRule, d billing.GateDecision) {
	if s.businessMetrics == nil {
		return
	}
	outcome := telemetry.GateOutcomeAllowed
	if !d.Allowed {
		outcome = telemetry.GateOutcomeDenied
	}
	s.businessMetrics.RecordGateDecision(ctx, string(rule.Type), outcome, string(d.Denial))
}
