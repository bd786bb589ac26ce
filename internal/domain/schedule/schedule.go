package schedule

import (
	"regexp"
	"strconv"
	"time"

	"microlend-backend/internal/domain/errs"
	"microlend-backend/pkg/money"

	"github.com/shopspring/decimal"
)

var (
	reDigits = regexp.MustCompile(`\d+`)

	hundred    = decimal.NewFromInt(100)
	daysInYear = decimal.NewFromInt(365)
)

// Duration is the borrower-selected repayment length.
type Duration struct {
	Label string // e.g. "6 months"
	Days  int
}

type TermPlan struct {
	Number  int
	Amount  decimal.Decimal
	DueDate time.Time
}

type Plan struct {
	Months      int
	Days        int
	RatePercent float64
	Principal   decimal.Decimal
	Interest    decimal.Decimal
	Total       decimal.Decimal
	Installment decimal.Decimal
	Terms       []TermPlan
}

// DueDate is the due date of the final term.
func (p *Plan) DueDate() time.Time {
	if len(p.Terms) == 0 {
		return time.Time{}
	}
	return p.Terms[len(p.Terms)-1].DueDate
}

// MonthsOf extracts the month count from the first run of digits in the
// label, falling back to ceil(days/30).
func MonthsOf(d Duration) (int, error) {
	if s := reDigits.FindString(d.Label); s != "" {
		if m, err := strconv.Atoi(s); err == nil && m > 0 {
			return m, nil
		}
	}
	if d.Days <= 0 {
		return 0, errs.Newf(errs.KindInvalidDuration, "cannot determine months for duration %q", d.Label)
	}
	return (d.Days + 29) / 30, nil
}

// Calculate builds the repayment plan for principal over d, starting at start.
func Calculate(principal decimal.Decimal, rates RateTable, d Duration, start time.Time) (*Plan, error) {
	if !principal.IsPositive() {
		return nil, errs.ErrInvalidAmount
	}
	months, err := MonthsOf(d)
	if err != nil {
		return nil, err
	}
	rate, ok := rates.Lookup(months)
	if !ok {
		return nil, errs.Newf(errs.KindInterestRateNotFound, "no interest rate configured for %d months", months)
	}
	days := d.Days
	// a label carrying only a month count is priced on 30-day months
	if days <= 0 {
		days = months * 30
	}

	interest := money.Round2(principal.
		Mul(decimal.NewFromFloat(rate)).
		Mul(decimal.NewFromInt(int64(days))).
		Div(hundred.Mul(daysInYear)))
	total := money.Round2(principal.Add(interest))

	terms := Split(total, months, start)
	return &Plan{
		Months:      months,
		Days:        days,
		RatePercent: rate,
		Principal:   principal,
		Interest:    interest,
		Total:       total,
		Installment: terms[0].Amount,
		Terms:       terms,
	}, nil
}

// Split divides total into months installments due one month apart after
// start. The last installment absorbs the rounding remainder so the amounts
// sum to round2(total) exactly. Backfill of loans without terms relies on
// this being deterministic.
func Split(total decimal.Decimal, months int, start time.Time) []TermPlan {
	if months < 1 {
		months = 1
	}
	total = money.Round2(total)
	n := decimal.NewFromInt(int64(months))
	installment := money.Round2(total.Div(n))

	out := make([]TermPlan, months)
	for i := 1; i <= months; i++ {
		amount := installment
		if i == months {
			amount = total.Sub(installment.Mul(decimal.NewFromInt(int64(months - 1))))
		}
		out[i-1] = TermPlan{
			Number:  i,
			Amount:  amount,
			DueDate: start.AddDate(0, i, 0),
		}
	}
	return out
}
