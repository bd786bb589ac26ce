package loan

import (
	"time"

	"microlend-backend/internal/domain/errs"
	"microlend-backend/internal/domain/schedule"
	"microlend-backend/pkg/money"

	"github.com/shopspring/decimal"
)

// Balances is the derived state of a loan, a pure function of its terms.
type Balances struct {
	AmountPaid      decimal.Decimal
	RemainingAmount decimal.Decimal
	Status          Status
}

// Recompute derives the loan aggregates from the authoritative term rows.
func Recompute(l *Loan, terms []Term, now time.Time) Balances {
	paid := decimal.Zero
	for i := range terms {
		paid = paid.Add(terms[i].AmountPaid)
	}
	remaining := money.NonNegative(money.Round2(l.TotalAmount.Sub(paid)))
	return Balances{
		AmountPaid:      money.Round2(paid),
		RemainingAmount: remaining,
		Status:          DeriveStatus(terms, remaining, l.DueDate, now),
	}
}

// DeriveStatus: PAID iff every term is paid and at most a cent remains;
// otherwise OVERDUE when the loan or any unpaid term is past due.
func DeriveStatus(terms []Term, remaining decimal.Decimal, dueDate, now time.Time) Status {
	allPaid := len(terms) > 0
	overdue := DaysLate(now, dueDate) > 0
	for i := range terms {
		if terms[i].IsPaid() {
			continue
		}
		allPaid = false
		if DaysLate(now, terms[i].DueDate) > 0 {
			overdue = true
		}
	}
	switch {
	case allPaid && remaining.LessThanOrEqual(money.Cent):
		return StatusPaid
	case overdue:
		return StatusOverdue
	default:
		return StatusActive
	}
}

// Apply copies b onto the loan.
func (l *Loan) Apply(b Balances) {
	l.AmountPaid = b.AmountPaid
	l.RemainingAmount = b.RemainingAmount
	l.Status = b.Status
}

// DaysLate counts whole calendar days (UTC) from due to now; never negative.
func DaysLate(now, due time.Time) int {
	n, d := dateOf(now), dateOf(due)
	if !n.After(d) {
		return 0
	}
	return int(n.Sub(d).Hours() / 24)
}

// DaysUntil is the signed number of calendar days (UTC) from now to due.
func DaysUntil(now, due time.Time) int {
	return int(dateOf(due).Sub(dateOf(now)).Hours() / 24)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Penalty is daysLate * perDay, rounded to cents.
func Penalty(daysLate int, perDay decimal.Decimal) decimal.Decimal {
	if daysLate <= 0 || !perDay.IsPositive() {
		return decimal.Zero
	}
	return money.Round2(perDay.Mul(decimal.NewFromInt(int64(daysLate))))
}

// Outstanding is what remains of the scheduled amount, ignoring penalty.
func (t *Term) Outstanding() decimal.Decimal { return t.Amount.Sub(t.AmountPaid) }

// AmountDue is the outstanding amount plus the given penalty.
func (t *Term) AmountDue(penalty decimal.Decimal) decimal.Decimal {
	return t.Outstanding().Add(penalty)
}

// ApplyPayment adds amount to the term and reports whether it became PAID.
func (t *Term) ApplyPayment(amount decimal.Decimal, at time.Time) bool {
	t.AmountPaid = money.Round2(t.AmountPaid.Add(amount))
	if t.IsPaid() || t.AmountPaid.LessThan(t.Amount) {
		return false
	}
	t.Status = TermPaid
	t.PaidAt = &at
	return true
}

// MatchTermByAmount resolves a payment without a term reference by finding
// the single unpaid term whose outstanding amount is within a cent of amount.
// Kept for payments recorded before terms were referenced explicitly.
// Returns nil when nothing matches and a validation error when several do.
func MatchTermByAmount(terms []Term, amount decimal.Decimal) (*Term, error) {
	var found *Term
	for i := range terms {
		if terms[i].IsPaid() || !money.WithinCent(terms[i].Outstanding(), amount) {
			continue
		}
		if found != nil {
			return nil, errs.Newf(errs.KindValidation,
				"payment of %s matches more than one term; a term reference is required", money.Format(amount))
		}
		found = &terms[i]
	}
	return found, nil
}

// PenaltyOutstanding is the late penalty still owed on a term that was
// marked PAID once its scheduled amount was covered.
func (t *Term) PenaltyOutstanding() decimal.Decimal {
	if !t.IsPaid() {
		return decimal.Zero
	}
	return money.NonNegative(t.Amount.Add(t.PenaltyAmount).Sub(t.AmountPaid))
}

// SettlePenalties spreads amount over the outstanding penalties of paid
// terms, in term order, and returns the terms it changed. Nothing is changed
// when amount is more than those penalties add up to.
func SettlePenalties(terms []Term, amount decimal.Decimal) ([]*Term, error) {
	owed := decimal.Zero
	for i := range terms {
		owed = owed.Add(terms[i].PenaltyOutstanding())
	}
	if !owed.IsPositive() {
		return nil, errs.Newf(errs.KindValidation,
			"payment of %s matches no term; a term reference is required", money.Format(amount))
	}
	if amount.GreaterThan(owed) {
		return nil, errs.Newf(errs.KindValidation,
			"payment of %s exceeds outstanding penalties of %s", money.Format(amount), money.Format(owed))
	}

	var touched []*Term
	left := amount
	for i := range terms {
		if !left.IsPositive() {
			break
		}
		part := decimal.Min(left, terms[i].PenaltyOutstanding())
		if !part.IsPositive() {
			continue
		}
		terms[i].AmountPaid = money.Round2(terms[i].AmountPaid.Add(part))
		left = left.Sub(part)
		touched = append(touched, &terms[i])
	}
	return touched, nil
}

// BuildTerms turns a plan into unsaved term rows for the loan. newID
// supplies public term ids.
func BuildTerms(loanID uint64, plans []schedule.TermPlan, newID func() string) []Term {
	out := make([]Term, len(plans))
	for i, p := range plans {
		out[i] = Term{
			TermID:        newID(),
			LoanID:        loanID,
			TermNumber:    p.Number,
			Amount:        p.Amount,
			AmountPaid:    decimal.Zero,
			DueDate:       p.DueDate,
			Status:        TermPending,
			PenaltyAmount: decimal.Zero,
		}
	}
	return out
}
