package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/rezonia/ubl-ingest/internal/money"
)

func TestRound2(t *testing.T) {
	d := money.Round2(decimal.RequireFromString("100.555"))
	assert.True(t, d.Equal(decimal.RequireFromString("100.56")))
}

func TestRound6(t *testing.T) {
	d := money.Round6(decimal.RequireFromString("10.1234567"))
	assert.True(t, d.Equal(decimal.RequireFromString("10.123457")))
}

func TestMul(t *testing.T) {
	result := money.Mul(decimal.RequireFromString("10"), decimal.RequireFromString("8.474576"))
	assert.True(t, result.Equal(decimal.RequireFromString("84.74576")))
}

func TestDiv(t *testing.T) {
	result := money.Div(decimal.NewFromInt(100), decimal.NewFromInt(3))
	assert.True(t, result.Equal(decimal.RequireFromString("33.333333")))

	// Division by zero returns zero
	result = money.Div(decimal.NewFromInt(100), decimal.Zero)
	assert.True(t, result.IsZero())
}

func TestExclusiveOfTax(t *testing.T) {
	tests := []struct {
		name      string
		inclusive string
		percent   string
		expected  string
	}{
		{"18% off 11.80", "11.80", "18", "10"},
		{"18% off 118", "118", "18", "100"},
		{"10% off 110", "110", "10", "100"},
		{"0% passes through", "50", "0", "50"},
		{"repeating decimal rounds to 6 places", "100", "18", "84.745763"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := money.ExclusiveOfTax(
				decimal.RequireFromString(tt.inclusive),
				decimal.RequireFromString(tt.percent),
			)
			assert.True(t, result.Equal(decimal.RequireFromString(tt.expected)),
				"expected %s, got %s", tt.expected, result)
		})
	}
}

func TestSum(t *testing.T) {
	values := []decimal.Decimal{
		decimal.RequireFromString("1.10"),
		decimal.RequireFromString("2.20"),
		decimal.RequireFromString("3.30"),
	}
	assert.True(t, money.Sum(values).Equal(decimal.RequireFromString("6.60")))
	assert.True(t, money.Sum(nil).IsZero())
}

func TestIsPositive(t *testing.T) {
	assert.True(t, money.IsPositive(decimal.NewFromInt(1)))
	assert.False(t, money.IsPositive(decimal.Zero))
	assert.False(t, money.IsPositive(decimal.NewFromInt(-1)))
}
