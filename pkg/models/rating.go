package models

import "github.com/shopspring/decimal"

// Unrated is the display sentinel for aggregates with no contributing
// ratings.
const Unrated = "--"

// FormatRating renders a rating or average for display: two decimal
// places, half-up rounding, "--" when no value exists. Callers compare
// and sort on the unrounded decimal, never on this string.
func FormatRating(d decimal.NullDecimal) string {
	if !d.Valid {
		return Unrated
	}
	return d.Decimal.StringFixed(2)
}

// SomeRating wraps a decimal in a valid NullDecimal.
func SomeRating(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
