package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"microlend-backend/internal/domain/application"
	"microlend-backend/internal/domain/errs"
	"microlend-backend/internal/domain/loan"
	"microlend-backend/internal/domain/notify"
	"microlend-backend/internal/domain/uow"
	"microlend-backend/internal/infrastructure/metrics"
	"microlend-backend/internal/infrastructure/tracing"
	"microlend-backend/internal/usecase/support"
	"microlend-backend/pkg/money"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type Usecase struct {
	repos uow.Repos
	uow   uow.UnitOfWork
	fx    *support.Effects
	log   *zap.Logger
	now   func() time.Time
}

// NewUsecase: repos serve plain reads, tx runs every write.
func NewUsecase(repos uow.Repos, tx uow.UnitOfWork, fx *support.Effects, log *zap.Logger) *Usecase {
	if fx == nil {
		fx = support.NopEffects()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{repos: repos, uow: tx, fx: fx, log: log, now: support.Clock}
}

// WithClock overrides the time source.
func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

// Get returns the loan with balances recomputed from its terms. When the
// recomputed state cannot be persisted the in-memory result is returned.
func (u *Usecase) Get(ctx context.Context, loanID, actorID string) (*LoanDTO, error) {
	ctx, span := tracing.Tracer().Start(ctx, "loan.Get")
	defer span.End()
	span.SetAttributes(attribute.String("loan_id", loanID))

	actor, err := support.Actor(ctx, u.repos.Users, actorID)
	if err != nil {
		return nil, err
	}
	l, err := u.repos.Loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, support.NotFound(err, "loan")
	}
	if !support.CanSee(actor, l.BorrowerID) {
		return nil, errs.New(errs.KindUnauthorized, "loan belongs to another borrower")
	}

	res, err := u.ReconcileByID(ctx, loanID, "read")
	if err == nil {
		return ToDTO(res.Loan, res.Terms), nil
	}
	u.log.Warn("reconcile on read failed, serving in-memory balances", zap.String("loan_id", loanID), zap.Error(err))
	return u.inMemory(ctx, l)
}

func (u *Usecase) inMemory(ctx context.Context, l *loan.Loan) (*LoanDTO, error) {
	terms, err := u.repos.Loans.ListTerms(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		if terms, err = BackfillTerms(ctx, u.repos.LoanTypes, l); err != nil {
			u.log.Warn("cannot synthesize terms", zap.String("loan_id", l.LoanID), zap.Error(err))
			terms = nil
		}
	}
	l.Apply(loan.Recompute(l, terms, u.now()))
	dto := ToDTO(l, terms)
	dto.Stale = true
	return dto, nil
}

// Reconcile is the explicit, staff-triggered recomputation.
func (u *Usecase) Reconcile(ctx context.Context, loanID, actorID string) (*LoanDTO, error) {
	ctx, span := tracing.Tracer().Start(ctx, "loan.Reconcile")
	defer span.End()

	if _, err := support.Staff(ctx, u.repos.Users, actorID); err != nil {
		return nil, err
	}
	res, err := u.ReconcileByID(ctx, loanID, "manual")
	if err != nil {
		return nil, err
	}
	if res.Backfilled || res.Changed {
		u.log.Info("loan reconciled",
			zap.String("loan_id", loanID),
			zap.Bool("backfilled", res.Backfilled),
			zap.String("status", string(res.Loan.Status)))
	}
	return ToDTO(res.Loan, res.Terms), nil
}

// ReconcileByID runs ReconcileTx under the loan lock. source labels the
// metric (read, manual, reminder).
func (u *Usecase) ReconcileByID(ctx context.Context, loanID, source string) (*Reconciled, error) {
	var res *Reconciled
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		var err error
		res, err = ReconcileTx(ctx, r, l, u.now())
		return err
	})
	metrics.Reconciliations.WithLabelValues(source, metrics.Status(err)).Inc()
	if err != nil {
		return nil, support.NotFound(err, "loan")
	}
	return res, nil
}

// ListByBorrower lists a borrower's loans, newest first, without terms.
func (u *Usecase) ListByBorrower(ctx context.Context, borrowerID, actorID string) ([]LoanDTO, error) {
	actor, err := support.Actor(ctx, u.repos.Users, actorID)
	if err != nil {
		return nil, err
	}
	if !support.CanSee(actor, borrowerID) {
		return nil, errs.New(errs.KindUnauthorized, "cannot list another borrower's loans")
	}
	loans, err := u.repos.Loans.ListByBorrowerID(ctx, borrowerID)
	if err != nil {
		return nil, err
	}
	out := make([]LoanDTO, 0, len(loans))
	for i := range loans {
		out = append(out, *ToDTO(&loans[i], nil))
	}
	return out, nil
}

// CreateFromApprovedApplication repairs an APPROVED application that has no
// loan. The application status is left as is.
func (u *Usecase) CreateFromApprovedApplication(ctx context.Context, applicationID, actorID string) (*LoanDTO, error) {
	ctx, span := tracing.Tracer().Start(ctx, "loan.CreateFromApprovedApplication")
	defer span.End()

	staff, err := support.Staff(ctx, u.repos.Users, actorID)
	if err != nil {
		return nil, err
	}
	if u.uow == nil {
		return nil, errors.New("loan usecase: no unit of work")
	}

	var o *Origination
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		app, err := r.Applications.GetByApplicationIDForUpdate(ctx, applicationID)
		if err != nil {
			return support.NotFound(err, "application")
		}
		if app.Status != application.StatusApproved {
			return errs.Newf(errs.KindValidation, "application is %s, not APPROVED", app.Status)
		}
		o, err = Originate(ctx, r, app, u.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	u.log.Info("loan created from approved application",
		zap.String("application_id", applicationID),
		zap.String("loan_id", o.Loan.LoanID))
	Announce(ctx, u.fx, o, applicationID, staff.UserID)
	return ToDTO(o.Loan, o.Terms), nil
}

// Announce sends the post-commit origination SMS and activity record.
func Announce(ctx context.Context, fx *support.Effects, o *Origination, applicationID, actorID string) {
	first := o.Terms[0]
	body := fmt.Sprintf("Your loan of %s has been approved for %s. Installment %d of %s is due on %s.",
		money.Format(o.Loan.PrincipalAmount), o.Duration.Label,
		first.TermNumber, money.Format(first.Amount), first.DueDate.Format("2006-01-02"))
	fx.SMS(ctx, o.Borrower.Phone, body, o.Borrower.UserID)

	fx.Activity(ctx, notify.Activity{
		UserID:      actorID,
		Action:      notify.ActionLoanCreated,
		EntityType:  "loan",
		EntityID:    o.Loan.LoanID,
		Description: fmt.Sprintf("Loan of %s created for %d months", money.Format(o.Loan.PrincipalAmount), o.Plan.Months),
		Metadata: map[string]any{
			"application_id": applicationID,
			"borrower_id":    o.Loan.BorrowerID,
			"total_amount":   money.Format(o.Loan.TotalAmount),
			"terms":          len(o.Terms),
		},
	})
}
