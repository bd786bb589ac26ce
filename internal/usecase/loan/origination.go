package loan

import (
	"context"
	"errors"
	"time"

	"microlend-backend/internal/domain/application"
	"microlend-backend/internal/domain/credit"
	"microlend-backend/internal/domain/errs"
	"microlend-backend/internal/domain/loan"
	"microlend-backend/internal/domain/loantype"
	"microlend-backend/internal/domain/schedule"
	"microlend-backend/internal/domain/uow"
	"microlend-backend/internal/domain/user"
	"microlend-backend/internal/usecase/support"
	"microlend-backend/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Origination is the result of turning an application into a loan.
type Origination struct {
	Loan     *loan.Loan
	Terms    []loan.Term
	Plan     *schedule.Plan
	Duration *loantype.PaymentDuration
	Borrower *user.User
	// Borrower score and limit before the limit was reserved.
	SnapshotScore float64
	SnapshotLimit decimal.Decimal
}

// Originate creates the loan, its terms and reserves the borrower's limit.
// It must run inside the caller's transaction with the application row
// already locked; it locks the borrower row itself. Nothing is written when
// any step fails before the first insert, and the caller's rollback covers
// the rest.
func Originate(ctx context.Context, r uow.Repos, app *application.Application, now time.Time) (*Origination, error) {
	if _, err := r.Loans.GetByApplicationID(ctx, app.ID); err == nil {
		return nil, errs.ErrLoanAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	lt, err := r.LoanTypes.GetByID(ctx, app.LoanTypeID)
	if err != nil {
		return nil, support.NotFound(err, "loan type")
	}
	dur, err := r.LoanTypes.GetDurationByID(ctx, app.DurationID)
	if err != nil {
		return nil, support.NotFound(err, "payment duration")
	}
	rates, err := lt.Rates()
	if err != nil {
		return nil, errs.Newf(errs.KindInterestRateNotFound, "loan type %d has an unreadable rate table", lt.ID)
	}
	plan, err := schedule.Calculate(app.RequestedAmount, rates, dur.Schedule(), now)
	if err != nil {
		return nil, err
	}

	borrower, err := r.Users.GetByUserIDForUpdate(ctx, app.BorrowerID)
	if err != nil {
		return nil, support.NotFound(err, "borrower")
	}
	snapScore, snapLimit := borrower.CreditScore, borrower.LoanLimit

	l := &loan.Loan{
		LoanID:          id.NewID32(),
		ApplicationID:   app.ID,
		BorrowerID:      app.BorrowerID,
		LoanTypeID:      app.LoanTypeID,
		DurationID:      app.DurationID,
		PrincipalAmount: plan.Principal,
		InterestRate:    plan.RatePercent,
		TotalAmount:     plan.Total,
		AmountPaid:      decimal.Zero,
		RemainingAmount: plan.Total,
		DueDate:         plan.DueDate(),
		Status:          loan.StatusActive,
		CreatedAt:       now,
	}
	if err := r.Loans.Create(ctx, l); err != nil {
		return nil, err
	}

	terms := loan.BuildTerms(l.ID, plan.Terms, id.NewID32)
	if err := r.Loans.CreateTerms(ctx, terms); err != nil {
		return nil, err
	}

	credit.Apply(borrower, credit.ForOrigination(plan.Principal))
	if err := r.Users.Save(ctx, borrower); err != nil {
		return nil, err
	}

	return &Origination{
		Loan:          l,
		Terms:         terms,
		Plan:          plan,
		Duration:      dur,
		Borrower:      borrower,
		SnapshotScore: snapScore,
		SnapshotLimit: snapLimit,
	}, nil
}
