package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	t.Run("normalizes lower case", func(t *testing.T) {
		c, err := ParseCurrency(" usd ")
		require.NoError(t, err)
		assert.Equal(t, Currency("USD"), c)
	})

	t.Run("rejects unknown code", func(t *testing.T) {
		_, err := ParseCurrency("XYZQ")
		assert.Error(t, err)
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := ParseCurrency("")
		assert.Error(t, err)
	})
}

func TestMoneyAdd(t *testing.T) {
	a, _ := NewMoney(decimal.NewFromInt(100), "COP")
	b, _ := NewMoney(decimal.NewFromInt(50), "COP")
	usd, _ := NewMoney(decimal.NewFromInt(1), "USD")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Amount().Equal(decimal.NewFromInt(150)))

	_, err = a.Add(usd)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestMoneyRound2(t *testing.T) {
	m, _ := NewMoney(decimal.RequireFromString("10.005"), "USD")
	assert.Equal(t, "10.01", m.Round2().Amount().StringFixed(2))
	assert.Equal(t, "10.01 USD", m.Round2().String())
}

func TestLedger(t *testing.T) {
	l := NewLedger()
	l.Add("COP", decimal.NewFromInt(60000))
	l.Add("USD", decimal.RequireFromString("12.345"))
	l.Add("COP", decimal.NewFromInt(40000))

	totals := l.Totals()
	require.Len(t, totals, 2)
	assert.Equal(t, Currency("COP"), totals[0].Currency())
	assert.True(t, totals[0].Amount().Equal(decimal.NewFromInt(100000)))
	assert.Equal(t, Currency("USD"), totals[1].Currency())
	assert.Equal(t, "12.35", totals[1].Amount().StringFixed(2))
	assert.Equal(t, 2, l.Len())
}
