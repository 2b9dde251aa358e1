package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// MaxAmount bounds every stored amount, so sums and percentages stay finite.
const MaxAmount = 1_000_000_000_000

// AmountInRange reports whether v is finite and no larger than MaxAmount in
// magnitude.
func AmountInRange(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && math.Abs(v) <= MaxAmount
}

// RoundAmount rounds a monetary value to two decimal places, half away from
// zero.
func RoundAmount(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// SumAmounts adds monetary values without accumulating float error.
func SumAmounts(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Round(2).InexactFloat64()
}

// Percent returns part/whole*100 rounded to two places, or 0 for a zero
// whole.
func Percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return decimal.NewFromFloat(part).
		Div(decimal.NewFromFloat(whole)).
		Mul(decimal.NewFromInt(100)).
		Round(2).
		InexactFloat64()
}
