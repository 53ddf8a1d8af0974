package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PlanConfigModel maps a plan tier. Nil limit columns mean unlimited.
type PlanConfigModel struct {
	BaseModel
	Code                  string           `gorm:"type:varchar(20);not null;uniqueIndex:uq_plan_configs_code"`
	Name                  string           `gorm:"type:varchar(100);not null"`
	Description           string           `gorm:"type:text"`
	IsActive              bool             `gorm:"not null;default:true"`
	MaxAppointments       *int64           `gorm:"column:max_appointments"`
	MaxPatients           *int64           `gorm:"column:max_patients"`
	MaxDoctorsPerHospital *int64           `gorm:"column:max_doctors_per_hospital"`
	StorageGB             *int64           `gorm:"column:storage_gb"`
	Prices                []PlanPriceModel `gorm:"foreignKey:PlanID"`
}

// TableName returns the table name for GORM
func (PlanConfigModel) TableName() string {
	return "plan_configs"
}

// ToDomain converts the model and its loaded prices to a PlanConfig.
func (m *PlanConfigModel) ToDomain() *billing.PlanConfig {
	plan := &billing.PlanConfig{
		BaseEntity:  m.BaseModel.ToDomain(),
		Code:        billing.PlanCode(m.Code),
		Name:        m.Name,
		Description: m.Description,
		IsActive:    m.IsActive,
		Limits: billing.PlanLimits{
			MaxAppointments:       m.MaxAppointments,
			MaxPatients:           m.MaxPatients,
			MaxDoctorsPerHospital: m.MaxDoctorsPerHospital,
			StorageGB:             m.StorageGB,
		},
		Prices: make([]billing.PlanPrice, 0, len(m.Prices)),
	}
	for i := range m.Prices {
		plan.Prices = append(plan.Prices, m.Prices[i].ToDomain())
	}
	return plan
}

// FromDomain populates the plan columns. Prices are written separately.
func (m *PlanConfigModel) FromDomain(p *billing.PlanConfig) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.Code = string(p.Code)
	m.Name = p.Name
	m.Description = p.Description
	m.IsActive = p.IsActive
	m.MaxAppointments = p.Limits.MaxAppointments
	m.MaxPatients = p.Limits.MaxPatients
	m.MaxDoctorsPerHospital = p.Limits.MaxDoctorsPerHospital
	m.StorageGB = p.Limits.StorageGB
}

// PlanConfigModelFromDomain creates a model from a plan
func PlanConfigModelFromDomain(p *billing.PlanConfig) *PlanConfigModel {
	m := &PlanConfigModel{}
	m.FromDomain(p)
	return m
}

// PlanPriceModel maps one price row. The natural key is
// (plan_id, subscriber_type, billing_interval, currency).
type PlanPriceModel struct {
	BaseModel
	PlanID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_plan_prices_key,priority:1"`
	SubscriberType  string          `gorm:"type:varchar(20);not null;uniqueIndex:uq_plan_prices_key,priority:2"`
	BillingInterval string          `gorm:"type:varchar(10);not null;uniqueIndex:uq_plan_prices_key,priority:3"`
	Currency        string          `gorm:"type:varchar(3);not null;uniqueIndex:uq_plan_prices_key,priority:4"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	IsActive        bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (PlanPriceModel) TableName() string {
	return "plan_prices"
}

// ToDomain converts the model to a PlanPrice
func (m *PlanPriceModel) ToDomain() billing.PlanPrice {
	return billing.PlanPrice{
		ID:             m.ID,
		PlanID:         m.PlanID,
		SubscriberType: billing.SubscriberType(m.SubscriberType),
		Interval:       billing.BillingInterval(m.BillingInterval),
		Currency:       valueobject.Currency(m.Currency),
		Amount:         m.Amount,
		IsActive:       m.IsActive,
	}
}

// PlanPriceModelFromDomain creates a model from a price. Timestamps are set to now.
func PlanPriceModelFromDomain(p billing.PlanPrice, now time.Time) *PlanPriceModel {
	return &PlanPriceModel{
		BaseModel:       BaseModel{ID: p.ID, CreatedAt: now, UpdatedAt: now},
		PlanID:          p.PlanID,
		SubscriberType:  string(p.SubscriberType),
		BillingInterval: string(p.Interval),
		Currency:        string(p.Currency),
		Amount:          p.Amount,
		IsActive:        p.IsActive,
	}
}

// SubscriptionModel maps a subscription. SubscriberID is a doctor ID or a
// hospital ID depending on SubscriberType.
type SubscriptionModel struct {
	BaseModel
	SubscriberType  string    `gorm:"type:varchar(20);not null;index:idx_subscriptions_subscriber,priority:1"`
	SubscriberID    uuid.UUID `gorm:"type:uuid;not null;index:idx_subscriptions_subscriber,priority:2"`
	PlanCode        string    `gorm:"type:varchar(20);not null;index"`
	Status          string    `gorm:"type:varchar(20);not null;index"`
	StartDate       time.Time `gorm:"not null"`
	EndDate         *time.Time
	Currency        string          `gorm:"type:varchar(3);not null"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	BillingInterval string          `gorm:"type:varchar(10);not null;default:'MONTH'"`
	AutoRenew       bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (SubscriptionModel) TableName() string {
	return "subscriptions"
}

// ToDomain converts the model to a Subscription
func (m *SubscriptionModel) ToDomain() *billing.Subscription {
	kind := billing.ScopeKindDoctor
	if billing.SubscriberType(m.SubscriberType) == billing.SubscriberTypeHospital {
		kind = billing.ScopeKindHospital
	}
	return &billing.Subscription{
		ID:        m.ID,
		Scope:     billing.Scope{Kind: kind, ID: m.SubscriberID},
		PlanCode:  billing.PlanCode(m.PlanCode),
		Status:    billing.SubscriptionStatus(m.Status),
		StartDate: m.StartDate.UTC(),
		EndDate:   utcPtr(m.EndDate),
		Currency:  valueobject.Currency(m.Currency),
		Amount:    m.Amount,
		Interval:  billing.BillingInterval(m.BillingInterval),
		AutoRenew: m.AutoRenew,
		UpdatedAt: m.UpdatedAt,
	}
}

// SubscriptionModelFromDomain creates a model from a subscription
func SubscriptionModelFromDomain(s *billing.Subscription) *SubscriptionModel {
	return &SubscriptionModel{
		BaseModel:       BaseModel{ID: s.ID, CreatedAt: s.UpdatedAt, UpdatedAt: s.UpdatedAt},
		SubscriberType:  string(s.Scope.SubscriberType()),
		SubscriberID:    s.Scope.ID,
		PlanCode:        string(s.PlanCode),
		Status:          string(s.Status),
		StartDate:       s.StartDate,
		EndDate:         s.EndDate,
		Currency:        string(s.Currency),
		Amount:          s.Amount,
		BillingInterval: string(s.Interval),
		AutoRenew:       s.AutoRenew,
	}
}

// PaymentModel maps a payment against a subscription.
type PaymentModel struct {
	BaseModel
	SubscriptionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Currency       string          `gorm:"type:varchar(3);not null"`
	PaymentDate    time.Time       `gorm:"not null;index"`
	Status         string          `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the model to a Payment
func (m *PaymentModel) ToDomain() billing.Payment {
	return billing.Payment{
		ID:             m.ID,
		SubscriptionID: m.SubscriptionID,
		Amount:         m.Amount,
		Currency:       valueobject.Currency(m.Currency),
		PaymentDate:    m.PaymentDate.UTC(),
		Status:         billing.PaymentStatus(m.Status),
	}
}

// PaymentModelFromDomain creates a model from a payment
func PaymentModelFromDomain(p billing.Payment) *PaymentModel {
	return &PaymentModel{
		BaseModel:      BaseModel{ID: p.ID, CreatedAt: p.PaymentDate, UpdatedAt: p.PaymentDate},
		SubscriptionID: p.SubscriptionID,
		Amount:         p.Amount,
		Currency:       string(p.Currency),
		PaymentDate:    p.PaymentDate,
		Status:         string(p.Status),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
