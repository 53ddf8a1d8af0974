package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// RevenueService aggregates payments and subscriptions into revenue reports.
type RevenueService struct {
	payments        billing.PaymentReader
	subs            billing.SubscriptionReader
	plans           billing.PlanCatalogRepository
	logger          *zap.Logger
	businessMetrics *telemetry.BusinessMetrics
}

// NewRevenueService creates a new RevenueService
func NewRevenueService(
	payments billing.PaymentReader,
	subs billing.SubscriptionReader,
	plans billing.PlanCatalogRepository,
	logger *zap.Logger,
) *RevenueService {
	return &RevenueService{payments: payments, subs: subs, plans: plans, logger: logger}
}

// SetBusinessMetrics sets the business metrics for the service
func (s *RevenueService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// Compute builds the revenue report for filter. Totals are kept per
// currency; MRR and ARR come from ACTIVE subscriptions regardless of the
// status filter.
func (s *RevenueService) Compute(ctx context.Context, filter billing.RevenueFilter) (*billing.RevenueReport, error) {
	start := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "revenue", "compute",
		telemetry.WithAttribute("date_from", filter.DateFrom.Format(time.DateOnly)),
		telemetry.WithAttribute("date_to", filter.DateTo.Format(time.DateOnly)))
	defer span.End()

	payments, err := s.payments.FindCompleted(ctx, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("load payments: %w", err)
	}

	subs, err := s.subs.FindForReport(ctx, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}

	plans, err := s.plans.FindAll(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("load plans: %w", err)
	}
	byCode := make(map[billing.PlanCode]*billing.PlanConfig, len(plans))
	for _, p := range plans {
		byCode[p.Code] = p
	}

	totals, daily := billing.SumPayments(payments)
	mrr, arr := billing.RunRate(subs, byCode)

	report := &billing.RevenueReport{
		DateFrom:      filter.DateFrom.Format(time.DateOnly),
		DateTo:        filter.DateTo.Format(time.DateOnly),
		TotalPayments: totals,
		Daily:         daily,
		Subscriptions: billing.CountSubscriptions(subs, filter),
		MRR:           mrr,
		ARR:           arr,
	}

	s.logger.Debug("Revenue report computed",
		zap.String("date_from", report.DateFrom),
		zap.String("date_to", report.DateTo),
		zap.Int("payments", len(payments)),
		zap.Int("subscriptions", len(subs)))
	if s.businessMetrics != nil {
		s.businessMetrics.RecordRevenueReport(ctx, time.Since(start))
	}
	return report, nil
}
