package money

import "github.com/shopspring/decimal"

var (
	// Cent is the reconciliation tolerance.
	Cent = decimal.New(1, -2)
	// Unit is the tolerance applied when a borrower pays against an amount due.
	Unit = decimal.NewFromInt(1)
)

// Round2 rounds half away from zero to 2 decimal places.
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

func FromFloat(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// WithinCent reports whether a and b differ by at most one cent.
func WithinCent(a, b decimal.Decimal) bool { return a.Sub(b).Abs().LessThanOrEqual(Cent) }

// NonNegative floors d at zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Sum adds all values without intermediate rounding.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	out := decimal.Zero
	for _, v := range values {
		out = out.Add(v)
	}
	return out
}

// Format renders d with exactly two decimals, e.g. "1707.78".
func Format(d decimal.Decimal) string { return d.StringFixed(2) }

// ExceedsDue reports whether amount overshoots due by a full Unit or more.
// Anything short of that is absorbed as rounding slack.
func ExceedsDue(amount, due decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(due.Add(Unit))
}
