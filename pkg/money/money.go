package money

import "github.com/shopspring/decimal"

// Scale is the fixed number of decimal places carried by monetary amounts.
const Scale = 2

var Zero = decimal.Zero

// FromFloat builds an amount from a float literal. Intended for fixtures and
// request parsing, not arithmetic.
func FromFloat(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value)
}

// Round applies the monetary rounding policy: half-up at two decimal places.
// Intermediate arithmetic stays unrounded; callers round final figures only.
func Round(value decimal.Decimal) decimal.Decimal {
	return value.Round(Scale)
}

// Percent returns value × pct/100, rounded per the monetary policy.
func Percent(value, pct decimal.Decimal) decimal.Decimal {
	return value.Mul(pct).Div(decimal.NewFromInt(100)).Round(Scale)
}

// Min returns the smaller of two amounts.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// FloorZero clamps negative amounts to zero.
func FloorZero(value decimal.Decimal) decimal.Decimal {
	if value.IsNegative() {
		return Zero
	}
	return value
}
