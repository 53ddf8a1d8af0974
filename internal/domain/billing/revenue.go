package billing

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/medcare/backend/internal/domain/shared"
	"github.com/medcare/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the settlement state of a payment.
type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentPending   PaymentStatus = "PENDING"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

// Payment is a settled or attempted charge against a subscription.
type Payment struct {
	ID             uuid.UUID
	SubscriptionID uuid.UUID
	Amount         decimal.Decimal
	Currency       valueobject.Currency
	PaymentDate    time.Time
	Status         PaymentStatus
}

// RevenueFilter selects the data of a revenue report. Nil optional fields mean ALL.
type RevenueFilter struct {
	DateFrom       time.Time
	DateTo         time.Time
	Plan           *PlanCode
	Status         *SubscriptionStatus
	SubscriberType *SubscriberType
}

// NewRevenueFilter builds a filter over the inclusive day range [from, to].
func NewRevenueFilter(from, to time.Time) (RevenueFilter, error) {
	from = truncateDay(from)
	to = truncateDay(to)
	if to.Before(from) {
		return RevenueFilter{}, shared.NewDomainError("INVALID_DATE_RANGE", "dateTo must not be before dateFrom")
	}
	return RevenueFilter{DateFrom: from, DateTo: to}, nil
}

// Window returns the half-open instant range covering the inclusive day range.
func (f RevenueFilter) Window() Period {
	return Period{Start: truncateDay(f.DateFrom), End: truncateDay(f.DateTo).AddDate(0, 0, 1)}
}

// CountedStatuses returns the statuses that count as active in the report.
func (f RevenueFilter) CountedStatuses() []SubscriptionStatus {
	if f.Status != nil {
		return []SubscriptionStatus{*f.Status}
	}
	return LiveStatuses
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CurrencyAmount is a monetary total in one currency.
type CurrencyAmount struct {
	Currency valueobject.Currency `json:"currency"`
	Amount   decimal.Decimal      `json:"amount"`
}

// DailyRevenue is the completed-payment total of one day in one currency.
type DailyRevenue struct {
	Day      string               `json:"day"`
	Currency valueobject.Currency `json:"currency"`
	Amount   decimal.Decimal      `json:"amount"`
}

// SubscriptionCounts are the overlap-rule counters of a report.
type SubscriptionCounts struct {
	Active  int64 `json:"activeSubs"`
	New     int64 `json:"newSubs"`
	Churned int64 `json:"churnedSubs"`
}

// RevenueReport is the output of the revenue aggregator.
type RevenueReport struct {
	DateFrom      string             `json:"dateFrom"`
	DateTo        string             `json:"dateTo"`
	TotalPayments []CurrencyAmount   `json:"totalPayments"`
	Daily         []DailyRevenue     `json:"daily"`
	Subscriptions SubscriptionCounts `json:"subscriptions"`
	MRR           []CurrencyAmount   `json:"mrr"`
	ARR           []CurrencyAmount   `json:"arr"`
}

// SumPayments totals completed payments per currency and per (day, currency).
// Currencies are never combined.
func SumPayments(payments []Payment) ([]CurrencyAmount, []DailyRevenue) {
	totals := valueobject.NewLedger()
	type dayKey struct {
		day string
		cur valueobject.Currency
	}
	daily := make(map[dayKey]decimal.Decimal)

	for _, p := range payments {
		if p.Status != PaymentCompleted {
			continue
		}
		totals.Add(p.Currency, p.Amount)
		k := dayKey{day: p.PaymentDate.UTC().Format(time.DateOnly), cur: p.Currency}
		daily[k] = daily[k].Add(p.Amount)
	}

	series := make([]DailyRevenue, 0, len(daily))
	for k, amount := range daily {
		series = append(series, DailyRevenue{Day: k.day, Currency: k.cur, Amount: amount.Round(2)})
	}
	sort.Slice(series, func(i, j int) bool {
		if series[i].Day != series[j].Day {
			return series[i].Day < series[j].Day
		}
		return series[i].Currency < series[j].Currency
	})

	return ledgerAmounts(totals), series
}

// CountSubscriptions applies the overlap rule to subscriptions already
// narrowed by plan and subscriber type.
func CountSubscriptions(subs []Subscription, f RevenueFilter) SubscriptionCounts {
	window := f.Window()
	last := window.End.Add(-time.Nanosecond)
	counted := f.CountedStatuses()

	var c SubscriptionCounts
	for i := range subs {
		s := &subs[i]
		if !s.Overlaps(window.Start, last) {
			continue
		}
		if containsStatus(counted, s.Status) {
			c.Active++
		}
		if window.Contains(s.StartDate) && (f.Status == nil || *f.Status == s.Status) {
			c.New++
		}
		if s.Status == StatusExpired && s.EndDate != nil && window.Contains(*s.EndDate) &&
			(f.Status == nil || *f.Status == StatusExpired) {
			c.Churned++
		}
	}
	return c
}

// RunRate computes MRR and ARR from ACTIVE subscriptions. Each subscription
// contributes the monthly equivalent of its plan price, grouped by the price's
// currency. Subscriptions whose plan has no matching active price contribute nothing.
func RunRate(subs []Subscription, plans map[PlanCode]*PlanConfig) (mrr, arr []CurrencyAmount) {
	ledger := valueobject.NewLedger()
	for i := range subs {
		s := &subs[i]
		if s.Status != StatusActive {
			continue
		}
		plan, ok := plans[s.PlanCode]
		if !ok {
			continue
		}
		price, ok := pickPrice(plan, s)
		if !ok {
			continue
		}
		ledger.Add(price.Currency, price.MonthlyEquivalent())
	}

	mrr = ledgerAmounts(ledger)
	arr = make([]CurrencyAmount, len(mrr))
	for i, m := range mrr {
		arr[i] = CurrencyAmount{Currency: m.Currency, Amount: ledger.Get(m.Currency).Mul(decimal.NewFromInt(12)).Round(2)}
	}
	return mrr, arr
}

// pickPrice looks up the price for the subscription's interval, then for
// MONTH, since the catalog only guarantees monthly rows. Within an interval
// the subscription's own currency wins over the first active price.
func pickPrice(plan *PlanConfig, s *Subscription) (PlanPrice, bool) {
	subType := s.Scope.SubscriberType()
	intervals := []BillingInterval{IntervalMonth}
	if s.Interval.IsValid() && s.Interval != IntervalMonth {
		intervals = []BillingInterval{s.Interval, IntervalMonth}
	}
	for _, interval := range intervals {
		if p, ok := plan.ActivePrice(subType, interval, s.Currency); ok {
			return p, true
		}
		for _, p := range plan.Prices {
			if p.IsActive && p.SubscriberType == subType && p.Interval == interval {
				return p, true
			}
		}
	}
	return PlanPrice{}, false
}

func ledgerAmounts(l *valueobject.Ledger) []CurrencyAmount {
	totals := l.Totals()
	out := make([]CurrencyAmount, len(totals))
	for i, m := range totals {
		out[i] = CurrencyAmount{Currency: m.Currency(), Amount: m.Amount()}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}

func containsStatus(list []SubscriptionStatus, s SubscriptionStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
