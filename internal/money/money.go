// Package money wraps shopspring/decimal with the rounding conventions
// used across the canonical model: document totals and tax amounts carry
// two fractional digits, quantities and prices carry six.
package money

import (
	"github.com/shopspring/decimal"
)

// Zero is decimal zero
var Zero = decimal.Zero

// Precisions for the two families of monetary fields.
const (
	TotalPlaces = 2
	PricePlaces = 6
)

var hundred = decimal.NewFromInt(100)

// Round2 rounds to 2 places (document totals, tax amounts)
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(TotalPlaces)
}

// Round6 rounds to 6 places (quantities, unit prices, line values)
func Round6(d decimal.Decimal) decimal.Decimal {
	return d.Round(PricePlaces)
}

// Mul multiplies two decimals, rounds to 6 places
func Mul(a, b decimal.Decimal) decimal.Decimal {
	return a.Mul(b).Round(PricePlaces)
}

// Div divides a by b, rounds to 6 places; zero divisor yields zero
func Div(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return Zero
	}
	return a.DivRound(b, PricePlaces)
}

// ExclusiveOfTax removes a percentual tax from a tax-inclusive amount:
// amount / (1 + percent/100), rounded to 6 places.
func ExclusiveOfTax(inclusive, percent decimal.Decimal) decimal.Decimal {
	divisor := decimal.NewFromInt(1).Add(percent.Div(hundred))
	if divisor.IsZero() {
		return Zero
	}
	return inclusive.DivRound(divisor, PricePlaces)
}

// Sum sums a slice of decimals
func Sum(values []decimal.Decimal) decimal.Decimal {
	result := Zero
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}

// IsPositive returns true if decimal is greater than zero
func IsPositive(d decimal.Decimal) bool {
	return d.GreaterThan(Zero)
}
