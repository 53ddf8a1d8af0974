package billing

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/medcare/backend/internal/domain/shared"
	"github.com/medcare/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PlanCode identifies a plan tier
type PlanCode string

const (
	PlanFree     PlanCode = "FREE"
	PlanStandard PlanCode = "STANDARD"
	PlanPremium  PlanCode = "PREMIUM"
)

// CanonicalPlanCodes lists the tiers that must always exist in the catalog.
var CanonicalPlanCodes = []PlanCode{PlanFree, PlanStandard, PlanPremium}

// ParsePlanCode converts user input into a PlanCode.
func ParsePlanCode(s string) (PlanCode, error) {
	c := PlanCode(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", ErrInvalidPlanCode
	}
	return c, nil
}

// String returns the string representation of PlanCode
func (c PlanCode) String() string {
	return string(c)
}

// IsValid returns true if the code is a canonical plan code
func (c PlanCode) IsValid() bool {
	switch c {
	case PlanFree, PlanStandard, PlanPremium:
		return true
	}
	return false
}

// SubscriberType is the kind of account a price applies to.
type SubscriberType string

const (
	SubscriberTypeDoctor   SubscriberType = "DOCTOR"
	SubscriberTypeHospital SubscriberType = "HOSPITAL"
)

// SubscriberTypes lists every subscriber type in a stable order.
var SubscriberTypes = []SubscriberType{SubscriberTypeDoctor, SubscriberTypeHospital}

// ParseSubscriberType converts user input into a SubscriberType.
func ParseSubscriberType(s string) (SubscriberType, error) {
	t := SubscriberType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", shared.NewDomainError("INVALID_SUBSCRIBER_TYPE", fmt.Sprintf("Invalid subscriber type %q", s))
	}
	return t, nil
}

// IsValid returns true if the subscriber type is valid
func (t SubscriberType) IsValid() bool {
	return t == SubscriberTypeDoctor || t == SubscriberTypeHospital
}

// BillingInterval is the recurrence of a price.
type BillingInterval string

const (
	IntervalMonth BillingInterval = "MONTH"
	IntervalYear  BillingInterval = "YEAR"
)

// IsValid returns true if the interval is valid
func (i BillingInterval) IsValid() bool {
	return i == IntervalMonth || i == IntervalYear
}

// MonthsPerInterval returns how many months one billing cycle covers.
func (i BillingInterval) MonthsPerInterval() int64 {
	if i == IntervalYear {
		return 12
	}
	return 1
}

// LimitKey names a metered resource.
type LimitKey string

const (
	LimitAppointmentsPerMonth LimitKey = "appointmentsPerMonth"
	LimitPatients             LimitKey = "patients"
	LimitDoctorsPerHospital   LimitKey = "doctorsPerHospital"
	LimitStorageGB            LimitKey = "storageGb"
)

// AllLimitKeys lists every limit key in display order.
var AllLimitKeys = []LimitKey{
	LimitAppointmentsPerMonth,
	LimitPatients,
	LimitDoctorsPerHospital,
	LimitStorageGB,
}

// IsValid returns true if the key is known
func (k LimitKey) IsValid() bool {
	switch k {
	case LimitAppointmentsPerMonth, LimitPatients, LimitDoctorsPerHospital, LimitStorageGB:
		return true
	}
	return false
}

// DisplayName returns a human-readable name
func (k LimitKey) DisplayName() string {
	switch k {
	case LimitAppointmentsPerMonth:
		return "monthly appointments"
	case LimitPatients:
		return "patients"
	case LimitDoctorsPerHospital:
		return "doctors"
	case LimitStorageGB:
		return "storage (GB)"
	}
	return string(k)
}

// PlanLimits holds the per-plan caps. A nil field means unlimited.
type PlanLimits struct {
	MaxAppointments       *int64 `json:"maxAppointments"`
	MaxPatients           *int64 `json:"maxPatients"`
	MaxDoctorsPerHospital *int64 `json:"maxDoctorsPerHospital"`
	StorageGB             *int64 `json:"storageGb"`
}

// LimitOf returns a pointer to n, for building PlanLimits literals.
func LimitOf(n int64) *int64 {
	return &n
}

// Get returns the cap for key, or nil when unlimited.
func (l PlanLimits) Get(key LimitKey) *int64 {
	switch key {
	case LimitAppointmentsPerMonth:
		return l.MaxAppointments
	case LimitPatients:
		return l.MaxPatients
	case LimitDoctorsPerHospital:
		return l.MaxDoctorsPerHospital
	case LimitStorageGB:
		return l.StorageGB
	}
	return nil
}

// Validate rejects negative caps.
func (l PlanLimits) Validate() error {
	for _, key := range AllLimitKeys {
		if v := l.Get(key); v != nil && *v < 0 {
			return shared.NewDomainError("INVALID_LIMIT",
				fmt.Sprintf("Limit %s must be empty (unlimited) or non-negative", key))
		}
	}
	return nil
}

// PlanPrice is the price of a plan for one subscriber type, interval and currency.
type PlanPrice struct {
	ID             uuid.UUID
	PlanID         uuid.UUID
	SubscriberType SubscriberType
	Interval       BillingInterval
	Currency       valueobject.Currency
	Amount         decimal.Decimal
	IsActive       bool
}

// MonthlyEquivalent returns the amount normalized to one month.
func (p PlanPrice) MonthlyEquivalent() decimal.Decimal {
	if p.Interval == IntervalYear {
		return p.Amount.Div(decimal.NewFromInt(12))
	}
	return p.Amount
}

// Money returns the price as a Money value
func (p PlanPrice) Money() valueobject.Money {
	m, _ := valueobject.NewMoney(p.Amount, p.Currency)
	return m
}

// PlanConfig is a plan tier with its limits and prices.
type PlanConfig struct {
	shared.BaseEntity
	Code        PlanCode
	Name        string
	Description string
	IsActive    bool
	Limits      PlanLimits
	Prices      []PlanPrice
}

// NewPlanConfig creates a new plan configuration
func NewPlanConfig(code PlanCode, name, description string, limits PlanLimits) (*PlanConfig, error) {
	if !code.IsValid() {
		return nil, ErrInvalidPlanCode
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_PLAN_NAME", "Plan name cannot be empty")
	}
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	return &PlanConfig{
		BaseEntity:  shared.NewBaseEntity(),
		Code:        code,
		Name:        name,
		Description: description,
		IsActive:    true,
		Limits:      limits,
	}, nil
}

// Update replaces the editable attributes of the plan.
func (p *PlanConfig) Update(name, description string, isActive bool, limits PlanLimits) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_PLAN_NAME", "Plan name cannot be empty")
	}
	if err := limits.Validate(); err != nil {
		return err
	}
	p.Name = name
	p.Description = description
	p.IsActive = isActive
	p.Limits = limits
	p.Touch()
	return nil
}

// ActivePrice finds the active price for the given dimensions.
func (p *PlanConfig) ActivePrice(subscriberType SubscriberType, interval BillingInterval, cur valueobject.Currency) (PlanPrice, bool) {
	for _, price := range p.Prices {
		if price.IsActive && price.SubscriberType == subscriberType &&
			price.Interval == interval && price.Currency == cur {
			return price, true
		}
	}
	return PlanPrice{}, false
}

// DefaultPlanConfigs returns the baseline catalog created on bootstrap.
func DefaultPlanConfigs() []*PlanConfig {
	defs := []struct {
		code   PlanCode
		name   string
		desc   string
		limits PlanLimits
	}{
		{PlanFree, "Free", "Starter tier for small practices", PlanLimits{
			MaxAppointments:       LimitOf(30),
			MaxPatients:           LimitOf(15),
			MaxDoctorsPerHospital: LimitOf(3),
			StorageGB:             LimitOf(1),
		}},
		{PlanStandard, "Standard", "For growing practices", PlanLimits{
			MaxAppointments:       LimitOf(300),
			MaxPatients:           LimitOf(150),
			MaxDoctorsPerHospital: LimitOf(15),
			StorageGB:             LimitOf(20),
		}},
		{PlanPremium, "Premium", "Unlimited scheduling and roster", PlanLimits{
			StorageGB: LimitOf(200),
		}},
	}

	plans := make([]*PlanConfig, 0, len(defs))
	for _, d := range defs {
		plan, err := NewPlanConfig(d.code, d.name, d.desc, d.limits)
		if err != nil {
			panic(err)
		}
		plans = append(plans, plan)
	}
	return plans
}

// DefaultPrice is one row of the bootstrap price table.
type DefaultPrice struct {
	Code           PlanCode
	SubscriberType SubscriberType
	Amount         decimal.Decimal
}

// DefaultPriceTable returns the monthly prices created on bootstrap.
func DefaultPriceTable() []DefaultPrice {
	return []DefaultPrice{
		{PlanFree, SubscriberTypeDoctor, decimal.Zero},
		{PlanFree, SubscriberTypeHospital, decimal.Zero},
		{PlanStandard, SubscriberTypeDoctor, decimal.NewFromInt(60000)},
		{PlanStandard, SubscriberTypeHospital, decimal.NewFromInt(300000)},
		{PlanPremium, SubscriberTypeDoctor, decimal.NewFromInt(150000)},
		{PlanPremium, SubscriberTypeHospital, decimal.NewFromInt(750000)},
	}
}

// DefaultPricesFor returns the default prices of one plan, keyed by subscriber type.
func DefaultPricesFor(code PlanCode) map[SubscriberType]decimal.Decimal {
	out := make(map[SubscriberType]decimal.Decimal, 2)
	for _, row := range DefaultPriceTable() {
		if row.Code == code {
			out[row.SubscriberType] = row.Amount
		}
	}
	return out
}
