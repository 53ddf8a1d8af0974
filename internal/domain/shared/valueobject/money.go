package valueobject

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Currency is an ISO 4217 currency code in upper case (e.g. "COP", "USD").
type Currency string

// DefaultCurrency is used when neither configuration nor input names one.
const DefaultCurrency Currency = "COP"

// ErrCurrencyMismatch is returned when two amounts in different currencies are combined.
var ErrCurrencyMismatch = errors.New("currency mismatch")

// ParseCurrency validates and normalizes an ISO 4217 code.
func ParseCurrency(code string) (Currency, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", errors.New("currency cannot be empty")
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("invalid currency %q: %w", code, err)
	}
	return Currency(unit.String()), nil
}

// MustParseCurrency is ParseCurrency for constants; it panics on invalid input.
func MustParseCurrency(code string) Currency {
	c, err := ParseCurrency(code)
	if err != nil {
		panic(err)
	}
	return c
}

// String returns the currency code
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether c is a known ISO 4217 code.
func (c Currency) IsValid() bool {
	_, err := currency.ParseISO(string(c))
	return err == nil
}

// Money is an immutable amount in one currency.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency
func NewMoney(amount decimal.Decimal, cur Currency) (Money, error) {
	if cur == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{amount: amount, currency: cur}, nil
}

// Zero returns a zero amount in the given currency
func Zero(cur Currency) Money {
	return Money{amount: decimal.Zero, currency: cur}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// Add sums two amounts of the same currency.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// MultiplyByInt returns m * factor
func (m Money) MultiplyByInt(factor int64) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(factor)), currency: m.currency}
}

// Round2 rounds half away from zero to two decimal places.
func (m Money) Round2() Money {
	return Money{amount: m.amount.Round(2), currency: m.currency}
}

// String formats as "60000.00 COP"
func (m Money) String() string {
	return m.amount.StringFixed(2) + " " + string(m.currency)
}

// Ledger accumulates amounts per currency. Amounts in different currencies
// are kept in separate buckets and never combined.
type Ledger struct {
	order   []Currency
	buckets map[Currency]decimal.Decimal
}

// NewLedger creates an empty ledger
func NewLedger() *Ledger {
	return &Ledger{buckets: make(map[Currency]decimal.Decimal)}
}

// Add records amount under cur.
func (l *Ledger) Add(cur Currency, amount decimal.Decimal) {
	prev, ok := l.buckets[cur]
	if !ok {
		l.order = append(l.order, cur)
	}
	l.buckets[cur] = prev.Add(amount)
}

// Totals returns one rounded Money per observed currency, in first-seen order.
func (l *Ledger) Totals() []Money {
	out := make([]Money, 0, len(l.order))
	for _, cur := range l.order {
		out = append(out, Money{amount: l.buckets[cur], currency: cur}.Round2())
	}
	return out
}

// Get returns the (unrounded) total for cur.
func (l *Ledger) Get(cur Currency) decimal.Decimal {
	return l.buckets[cur]
}

// Len returns the number of distinct currencies seen.
func (l *Ledger) Len() int {
	return len(l.order)
}
