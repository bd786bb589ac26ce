package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"microlend-backend/internal/domain/application"
	"microlend-backend/internal/domain/errs"
	"microlend-backend/internal/domain/notify"
	"microlend-backend/internal/domain/uow"
	"microlend-backend/internal/domain/user"
	"microlend-backend/internal/infrastructure/metrics"
	"microlend-backend/internal/infrastructure/tracing"
	loanuc "microlend-backend/internal/usecase/loan"
	"microlend-backend/internal/usecase/support"
	"microlend-backend/pkg/id"
	"microlend-backend/pkg/money"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Usecase struct {
	repos uow.Repos
	uow   uow.UnitOfWork
	fx    *support.Effects
	log   *zap.Logger
	now   func() time.Time
}

func NewUsecase(repos uow.Repos, tx uow.UnitOfWork, fx *support.Effects, log *zap.Logger) *Usecase {
	if fx == nil {
		fx = support.NopEffects()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{repos: repos, uow: tx, fx: fx, log: log, now: support.Clock}
}

func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

// Submit files a new PENDING application for an approved borrower.
func (u *Usecase) Submit(ctx context.Context, in SubmitInput) (*ApplicationDTO, error) {
	ctx, span := tracing.Tracer().Start(ctx, "application.Submit")
	defer span.End()

	amount := money.Round2(in.Amount)
	if !amount.IsPositive() {
		return nil, errs.ErrInvalidAmount
	}

	var a *application.Application
	var borrower *user.User
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		// the borrower lock serializes concurrent submissions
		borrower, err = r.Users.GetByUserIDForUpdate(ctx, in.BorrowerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.New(errs.KindUnauthorized, "unknown borrower")
			}
			return err
		}
		if !borrower.CanBorrow() {
			return errs.New(errs.KindUnauthorized, "borrower is not approved to borrow")
		}

		lt, err := r.LoanTypes.GetByID(ctx, in.LoanTypeID)
		if err != nil {
			return support.NotFound(err, "loan type")
		}
		if !lt.IsActive {
			return errs.New(errs.KindValidation, "loan type is not available")
		}
		if !lt.Accepts(amount) {
			return errs.Newf(errs.KindValidation, "amount must be between %s and %s",
				money.Format(lt.MinAmount), money.Format(lt.MaxAmount))
		}
		dur, err := r.LoanTypes.GetDurationByID(ctx, in.DurationID)
		if err != nil {
			return support.NotFound(err, "payment duration")
		}
		if !dur.IsActive {
			return errs.ErrInvalidDuration
		}
		if amount.GreaterThan(borrower.LoanLimit) {
			return errs.Newf(errs.KindAmountExceeded, "amount exceeds available loan limit of %s", money.Format(borrower.LoanLimit))
		}

		if _, err := r.Applications.GetPendingByBorrowerID(ctx, in.BorrowerID); err == nil {
			return errs.New(errs.KindValidation, "borrower already has a pending application")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		a = &application.Application{
			ApplicationID:   id.NewID32(),
			BorrowerID:      in.BorrowerID,
			LoanTypeID:      in.LoanTypeID,
			DurationID:      in.DurationID,
			RequestedAmount: amount,
			Purpose:         strings.TrimSpace(in.Purpose),
			Status:          application.StatusPending,
		}
		return r.Applications.Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	u.log.Info("application submitted", zap.String("application_id", a.ApplicationID), zap.String("borrower_id", a.BorrowerID))
	u.notifyStaff(ctx, notify.Notification{
		Type:       notify.TypeApplicationSubmitted,
		Title:      "New loan application",
		Message:    fmt.Sprintf("%s applied for %s", borrower.Name, money.Format(a.RequestedAmount)),
		Link:       "/applications/" + a.ApplicationID,
		EntityType: "loan_application",
		EntityID:   a.ApplicationID,
	})
	u.fx.Activity(ctx, notify.Activity{
		UserID:      a.BorrowerID,
		Action:      notify.ActionApplicationSubmitted,
		EntityType:  "loan_application",
		EntityID:    a.ApplicationID,
		Description: fmt.Sprintf("Applied for %s", money.Format(a.RequestedAmount)),
	})

	dto := toDTO(a)
	return &dto, nil
}

// Evaluate approves or rejects a PENDING application. Approval originates
// the loan in the same transaction.
func (u *Usecase) Evaluate(ctx context.Context, in EvaluateInput) (out *EvaluationDTO, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "application.Evaluate")
	defer span.End()
	span.SetAttributes(attribute.String("application_id", in.ApplicationID), attribute.String("decision", in.Decision))

	decision := application.Status(strings.ToUpper(strings.TrimSpace(in.Decision)))
	defer func() {
		label := string(decision)
		if decision != application.StatusApproved && decision != application.StatusRejected {
			label = "INVALID"
		}
		metrics.Evaluations.WithLabelValues(label, metrics.Status(err)).Inc()
	}()

	evaluator, err := support.Staff(ctx, u.repos.Users, in.EvaluatorID)
	if err != nil {
		return nil, err
	}
	if u.uow == nil {
		return nil, errors.New("application usecase: no unit of work")
	}
	reason := strings.TrimSpace(in.Reason)

	var (
		app      *application.Application
		borrower *user.User
		o        *loanuc.Origination
	)
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		app, err = r.Applications.GetByApplicationIDForUpdate(ctx, in.ApplicationID)
		if err != nil {
			return support.NotFound(err, "application")
		}
		if !app.IsPending() {
			return errs.Newf(errs.KindAlreadyProcessed, "application already %s", app.Status)
		}
		if _, err := r.Loans.GetByApplicationID(ctx, app.ID); err == nil {
			return errs.ErrLoanAlreadyExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := u.now()
		switch decision {
		case application.StatusRejected:
			if reason == "" {
				return errs.New(errs.KindValidation, "rejection requires a reason")
			}
			borrower, err = r.Users.GetByUserID(ctx, app.BorrowerID)
			if err != nil {
				return support.NotFound(err, "borrower")
			}
			app.Evaluate(application.StatusRejected, evaluator.UserID, now, borrower.CreditScore, borrower.LoanLimit, reason)

		case application.StatusApproved:
			o, err = loanuc.Originate(ctx, r, app, now)
			if err != nil {
				return err
			}
			borrower = o.Borrower
			app.Evaluate(application.StatusApproved, evaluator.UserID, now, o.SnapshotScore, o.SnapshotLimit, "")

		default:
			return errs.Newf(errs.KindValidation, "decision must be APPROVED or REJECTED, got %q", in.Decision)
		}
		return r.Applications.Save(ctx, app)
	})
	if err != nil {
		return nil, err
	}

	out = &EvaluationDTO{Application: toDTO(app)}
	if o != nil {
		u.log.Info("application approved",
			zap.String("application_id", app.ApplicationID),
			zap.String("loan_id", o.Loan.LoanID),
			zap.String("total", money.Format(o.Loan.TotalAmount)))
		loanuc.Announce(ctx, u.fx, o, app.ApplicationID, evaluator.UserID)
		u.fx.Activity(ctx, notify.Activity{
			UserID:      evaluator.UserID,
			Action:      notify.ActionApplicationApproved,
			EntityType:  "loan_application",
			EntityID:    app.ApplicationID,
			Description: "Application approved",
		})
		out.Loan = loanuc.ToDTO(o.Loan, o.Terms)
		return out, nil
	}

	u.log.Info("application rejected", zap.String("application_id", app.ApplicationID))
	u.fx.SMS(ctx, borrower.Phone,
		fmt.Sprintf("Your loan application for %s was rejected. Reason: %s", money.Format(app.RequestedAmount), reason),
		borrower.UserID)
	u.fx.Activity(ctx, notify.Activity{
		UserID:      evaluator.UserID,
		Action:      notify.ActionApplicationRejected,
		EntityType:  "loan_application",
		EntityID:    app.ApplicationID,
		Description: "Application rejected: " + reason,
	})
	return out, nil
}

// Delete removes a PENDING application. Borrowers may only delete their own.
func (u *Usecase) Delete(ctx context.Context, applicationID, actorID string) error {
	actor, err := support.Actor(ctx, u.repos.Users, actorID)
	if err != nil {
		return err
	}
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		app, err := r.Applications.GetByApplicationIDForUpdate(ctx, applicationID)
		if err != nil {
			return support.NotFound(err, "application")
		}
		if !support.CanSee(actor, app.BorrowerID) {
			return errs.New(errs.KindUnauthorized, "application belongs to another borrower")
		}
		if !app.IsPending() {
			return errs.Newf(errs.KindAlreadyProcessed, "application already %s", app.Status)
		}
		return r.Applications.Delete(ctx, app)
	})
	if err != nil {
		return err
	}
	u.fx.Activity(ctx, notify.Activity{
		UserID:      actor.UserID,
		Action:      notify.ActionApplicationDeleted,
		EntityType:  "loan_application",
		EntityID:    applicationID,
		Description: "Pending application deleted",
	})
	return nil
}

func (u *Usecase) notifyStaff(ctx context.Context, n notify.Notification) {
	staff, err := u.repos.Users.ListStaffUserIDs(ctx)
	if err != nil {
		u.log.Warn("list staff for notification", zap.Error(err))
		return
	}
	u.fx.Notify(ctx, staff, n)
}
