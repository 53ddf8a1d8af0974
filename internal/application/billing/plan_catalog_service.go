package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/domain/shared"
	"github.com/medcare/backend/internal/domain/shared/valueobject"
	"github.com/medcare/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SavePlanInput contains the editable attributes of a plan and its two
// monthly prices in one currency.
type SavePlanInput struct {
	Code                 billing.PlanCode
	Name                 string
	Description          string
	IsActive             bool
	Limits               billing.PlanLimits
	Currency             valueobject.Currency
	DoctorMonthlyPrice   decimal.Decimal
	HospitalMonthlyPrice decimal.Decimal
}

// SubscriberTotals are live subscriber counts of one plan.
type SubscriberTotals struct {
	Doctors   int64 `json:"doctors"`
	Hospitals int64 `json:"hospitals"`
	Total     int64 `json:"total"`
}

// PlanWithUsage is a catalog row for the admin listing.
type PlanWithUsage struct {
	Plan        *billing.PlanConfig
	Subscribers SubscriberTotals
	// MRR is the monthly revenue contribution per currency.
	MRR []billing.CurrencyAmount
}

// BootstrapResult reports what Bootstrap created.
type BootstrapResult struct {
	PlansCreated  int64 `json:"plansCreated"`
	PricesCreated int64 `json:"pricesCreated"`
}

// PlanCatalogServiceConfig contains configuration for PlanCatalogService
type PlanCatalogServiceConfig struct {
	DefaultCurrency valueobject.Currency
	CacheTTL        time.Duration
}

// DefaultPlanCatalogServiceConfig returns default configuration
func DefaultPlanCatalogServiceConfig() PlanCatalogServiceConfig {
	return PlanCatalogServiceConfig{
		DefaultCurrency: valueobject.DefaultCurrency,
		CacheTTL:        billing.DefaultCacheConfig().PlanTTL,
	}
}

// PlanCatalogService owns the plan catalog: bootstrap, edits and listing.
type PlanCatalogService struct {
	repo            billing.PlanCatalogRepository
	subs            billing.SubscriptionReader
	cache           billing.PlanCache
	logger          *zap.Logger
	businessMetrics *telemetry.BusinessMetrics

	defaultCurrency valueobject.Currency
	cacheTTL        time.Duration
}

// NewPlanCatalogService creates a new PlanCatalogService. cache may be nil.
func NewPlanCatalogService(
	repo billing.PlanCatalogRepository,
	subs billing.SubscriptionReader,
	cache billing.PlanCache,
	logger *zap.Logger,
	config PlanCatalogServiceConfig,
) *PlanCatalogService {
	if config.DefaultCurrency == "" {
		config.DefaultCurrency = valueobject.DefaultCurrency
	}
	return &PlanCatalogService{
		repo:            repo,
		subs:            subs,
		cache:           cache,
		logger:          logger,
		defaultCurrency: config.DefaultCurrency,
		cacheTTL:        config.CacheTTL,
	}
}

// SetBusinessMetrics sets the business metrics for the service
func (s *PlanCatalogService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// EnsureDefaults creates the canonical plans that do not exist yet.
// Existing plans are never modified. Safe to run concurrently.
func (s *PlanCatalogService) EnsureDefaults(ctx context.Context) (int64, error) {
	created, err := s.repo.CreateMissing(ctx, billing.DefaultPlanConfigs())
	if err != nil {
		return 0, fmt.Errorf("ensure default plans: %w", err)
	}
	if created > 0 {
		s.logger.Info("Default plans created", zap.Int64("created", created))
		if s.businessMetrics != nil {
			s.businessMetrics.RecordCatalogRowsCreated(ctx, "plans", created)
		}
	}
	return created, nil
}

// EnsurePrices creates the default MONTH price of every existing plan for
// each subscriber type in the default currency, skipping prices that exist.
func (s *PlanCatalogService) EnsurePrices(ctx context.Context) (int64, error) {
	plans, err := s.repo.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("ensure default prices: %w", err)
	}

	var prices []billing.PlanPrice
	for _, plan := range plans {
		for subType, amount := range billing.DefaultPricesFor(plan.Code) {
			prices = append(prices, billing.PlanPrice{
				ID:             uuid.New(),
				PlanID:         plan.ID,
				SubscriberType: subType,
				Interval:       billing.IntervalMonth,
				Currency:       s.defaultCurrency,
				Amount:         amount,
				IsActive:       true,
			})
		}
	}
	if len(prices) == 0 {
		return 0, nil
	}

	created, err := s.repo.CreateMissingPrices(ctx, prices)
	if err != nil {
		return 0, fmt.Errorf("ensure default prices: %w", err)
	}
	if created > 0 {
		s.logger.Info("Default prices created",
			zap.Int64("created", created),
			zap.String("currency", s.defaultCurrency.String()))
		if s.businessMetrics != nil {
			s.businessMetrics.RecordCatalogRowsCreated(ctx, "prices", created)
		}
	}
	return created, nil
}

// Bootstrap runs EnsureDefaults followed by EnsurePrices.
func (s *PlanCatalogService) Bootstrap(ctx context.Context) (*BootstrapResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "plan_catalog", "bootstrap")
	defer span.End()

	plans, err := s.EnsureDefaults(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	prices, err := s.EnsurePrices(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, "plans_created", plans, "prices_created", prices)
	return &BootstrapResult{PlansCreated: plans, PricesCreated: prices}, nil
}

// Save updates a plan and its monthly prices atomically. A plan that does
// not exist yet is created. The cached entry is dropped after commit.
func (s *PlanCatalogService) Save(ctx context.Context, input SavePlanInput) (*billing.PlanConfig, error) {
	if !input.Code.IsValid() {
		return nil, billing.ErrInvalidPlanCode
	}
	cur := input.Currency
	if cur == "" {
		cur = s.defaultCurrency
	}
	if !cur.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency must be an ISO 4217 code")
	}
	if input.DoctorMonthlyPrice.IsNegative() || input.HospitalMonthlyPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Prices cannot be negative")
	}

	plan, err := s.repo.FindByCode(ctx, input.Code)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		plan, err = billing.NewPlanConfig(input.Code, input.Name, input.Description, input.Limits)
		if err != nil {
			return nil, err
		}
		plan.IsActive = input.IsActive
	case err != nil:
		return nil, fmt.Errorf("load plan %s: %w", input.Code, err)
	default:
		if err := plan.Update(input.Name, input.Description, input.IsActive, input.Limits); err != nil {
			return nil, err
		}
	}

	amounts := map[billing.SubscriberType]decimal.Decimal{
		billing.SubscriberTypeDoctor:   input.DoctorMonthlyPrice,
		billing.SubscriberTypeHospital: input.HospitalMonthlyPrice,
	}
	prices := make([]billing.PlanPrice, 0, len(amounts))
	for _, subType := range billing.SubscriberTypes {
		price, ok := plan.ActivePrice(subType, billing.IntervalMonth, cur)
		if !ok {
			price = billing.PlanPrice{
				ID:             uuid.New(),
				SubscriberType: subType,
				Interval:       billing.IntervalMonth,
				Currency:       cur,
			}
		}
		price.PlanID = plan.ID
		price.Amount = amounts[subType]
		price.IsActive = true
		prices = append(prices, price)
	}

	if err := s.repo.SaveWithPrices(ctx, plan, prices); err != nil {
		s.logger.Error("Failed to save plan",
			zap.String("plan", input.Code.String()),
			zap.Error(err))
		return nil, fmt.Errorf("save plan %s: %w", input.Code, err)
	}
	s.invalidate(ctx, input.Code)

	saved, err := s.repo.FindByCode(ctx, input.Code)
	if err != nil {
		return nil, fmt.Errorf("reload plan %s: %w", input.Code, err)
	}

	s.logger.Info("Plan saved",
		zap.String("plan", input.Code.String()),
		zap.String("currency", cur.String()))
	return saved, nil
}

// GetPlan returns a plan through the cache. A missing plan is shared.ErrNotFound.
func (s *PlanCatalogService) GetPlan(ctx context.Context, code billing.PlanCode) (*billing.PlanConfig, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, code)
		if err != nil {
			s.logger.Warn("Plan cache read failed", zap.String("plan", code.String()), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	plan, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, plan, s.cacheTTL); err != nil {
			s.logger.Warn("Plan cache write failed", zap.String("plan", code.String()), zap.Error(err))
		}
	}
	return plan, nil
}

// ListPlans returns every plan keyed by code.
func (s *PlanCatalogService) ListPlans(ctx context.Context) (map[billing.PlanCode]*billing.PlanConfig, error) {
	plans, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	out := make(map[billing.PlanCode]*billing.PlanConfig, len(plans))
	for _, p := range plans {
		out[p.Code] = p
	}
	return out, nil
}

// ListWithUsage returns every plan with its live subscriber counts and the
// monthly revenue those subscribers contribute, per currency.
func (s *PlanCatalogService) ListWithUsage(ctx context.Context) ([]PlanWithUsage, error) {
	plans, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	counts, err := s.subs.CountActiveSubscribers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count subscribers: %w", err)
	}

	byPlan := make(map[billing.PlanCode][]billing.SubscriberCount)
	for _, c := range counts {
		byPlan[c.PlanCode] = append(byPlan[c.PlanCode], c)
	}

	out := make([]PlanWithUsage, 0, len(plans))
	for _, plan := range plans {
		row := PlanWithUsage{Plan: plan}
		ledger := valueobject.NewLedger()
		for _, c := range byPlan[plan.Code] {
			switch c.SubscriberType {
			case billing.SubscriberTypeDoctor:
				row.Subscribers.Doctors += c.Count
			case billing.SubscriberTypeHospital:
				row.Subscribers.Hospitals += c.Count
			}
			if price, ok := plan.ActivePrice(c.SubscriberType, billing.IntervalMonth, c.Currency); ok {
				ledger.Add(c.Currency, price.Amount.Mul(decimal.NewFromInt(c.Count)))
			}
		}
		row.Subscribers.Total = row.Subscribers.Doctors + row.Subscribers.Hospitals
		for _, m := range ledger.Totals() {
			row.MRR = append(row.MRR, billing.CurrencyAmount{Currency: m.Currency(), Amount: m.Amount()})
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *PlanCatalogService) invalidate(ctx context.Context, code billing.PlanCode) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, code); err != nil {
		s.logger.Warn("Plan cache invalidation failed", zap.String("plan", code.String()), zap.Error(err))
	}
}
