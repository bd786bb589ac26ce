package loan

import (
	"context"
	"time"

	"microlend-backend/internal/domain/loan"
	"microlend-backend/internal/domain/loantype"
	"microlend-backend/internal/domain/schedule"
	"microlend-backend/internal/domain/uow"
	"microlend-backend/internal/usecase/support"
	"microlend-backend/pkg/id"
)

type Reconciled struct {
	Loan       *loan.Loan
	Terms      []loan.Term
	Before     loan.Status
	Backfilled bool
	Changed    bool
}

// PaidOff reports whether this reconciliation moved the loan to PAID.
func (r *Reconciled) PaidOff() bool {
	return r.Before != loan.StatusPaid && r.Loan.Status == loan.StatusPaid
}

// ReconcileTx backfills missing terms and recomputes the loan aggregates.
// The loan row must already be locked by the surrounding transaction.
func ReconcileTx(ctx context.Context, r uow.Repos, l *loan.Loan, now time.Time) (*Reconciled, error) {
	out := &Reconciled{Loan: l, Before: l.Status}

	terms, err := r.Loans.ListTerms(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		terms, err = BackfillTerms(ctx, r.LoanTypes, l)
		if err != nil {
			return nil, err
		}
		if err := r.Loans.CreateTerms(ctx, terms); err != nil {
			return nil, err
		}
		out.Backfilled = true
	}
	out.Terms = terms

	b := loan.Recompute(l, terms, now)
	if l.AmountPaid.Equal(b.AmountPaid) && l.RemainingAmount.Equal(b.RemainingAmount) && l.Status == b.Status {
		return out, nil
	}
	l.Apply(b)
	if err := r.Loans.Save(ctx, l); err != nil {
		return nil, err
	}
	out.Changed = true
	return out, nil
}

// BackfillTerms rebuilds the schedule of a loan stored without terms, using
// the same split as origination so the result matches an eager schedule.
func BackfillTerms(ctx context.Context, types loantype.Repository, l *loan.Loan) ([]loan.Term, error) {
	dur, err := types.GetDurationByID(ctx, l.DurationID)
	if err != nil {
		return nil, support.NotFound(err, "payment duration")
	}
	months, err := schedule.MonthsOf(dur.Schedule())
	if err != nil {
		return nil, err
	}
	return loan.BuildTerms(l.ID, schedule.Split(l.TotalAmount, months, l.CreatedAt), id.NewID32), nil
}
