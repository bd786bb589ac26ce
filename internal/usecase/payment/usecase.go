package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"microlend-backend/internal/domain/credit"
	"microlend-backend/internal/domain/errs"
	"microlend-backend/internal/domain/loan"
	"microlend-backend/internal/domain/loantype"
	"microlend-backend/internal/domain/notify"
	"microlend-backend/internal/domain/payment"
	"microlend-backend/internal/domain/uow"
	"microlend-backend/internal/domain/user"
	"microlend-backend/internal/infrastructure/metrics"
	"microlend-backend/internal/infrastructure/tracing"
	loanuc "microlend-backend/internal/usecase/loan"
	"microlend-backend/internal/usecase/support"
	"microlend-backend/pkg/id"
	"microlend-backend/pkg/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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

// Submit records a PENDING payment. Term and loan paid amounts are left
// alone until staff approve it; only a newly accrued late penalty is written.
func (u *Usecase) Submit(ctx context.Context, in SubmitInput) (out *SubmitDTO, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "payment.Submit")
	defer span.End()
	span.SetAttributes(attribute.String("loan_id", in.LoanID), attribute.String("term_id", in.TermID))
	defer func() { metrics.Payments.WithLabelValues("submit", metrics.Status(err)).Inc() }()

	amount := money.Round2(in.Amount)
	if !amount.IsPositive() {
		return nil, errs.ErrInvalidAmount
	}
	if in.Penalty != nil && in.Penalty.IsNegative() {
		return nil, errs.New(errs.KindValidation, "penalty must not be negative")
	}
	ptype := payment.Type(strings.ToUpper(strings.TrimSpace(in.PaymentType)))
	if ptype == "" {
		ptype = payment.TypeInstallment
	}
	if !payment.ValidType(ptype) {
		return nil, errs.Newf(errs.KindValidation, "unknown payment type %q", in.PaymentType)
	}
	receipt := strings.TrimSpace(in.ReceiptRef)
	if receipt == "" {
		receipt = "RCPT-" + strings.ToUpper(uuid.NewString())
	}

	actor, err := support.Actor(ctx, u.repos.Users, in.BorrowerID)
	if err != nil {
		return nil, err
	}

	var (
		p    *payment.Payment
		l    *loan.Loan
		term *loan.Term
	)
	out = &SubmitDTO{Penalty: decimal.Zero}
	err = u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, locked *loan.Loan) error {
		l = locked
		if l.BorrowerID != actor.UserID {
			return errs.New(errs.KindUnauthorized, "loan belongs to another borrower")
		}
		if l.Status == loan.StatusPaid {
			return errs.New(errs.KindAlreadyProcessed, "loan is already paid")
		}

		if in.TermID == "" {
			if amount.GreaterThan(l.RemainingAmount) {
				return errs.Newf(errs.KindAmountExceeded, "amount %s exceeds remaining balance %s",
					money.Format(amount), money.Format(l.RemainingAmount))
			}
			out.AmountDue = l.RemainingAmount
		} else {
			var err error
			term, err = r.Loans.GetTermByTermID(ctx, in.TermID)
			if err != nil {
				return support.NotFound(err, "term")
			}
			if term.LoanID != l.ID {
				return errs.New(errs.KindNotFound, "term not found")
			}
			if term.IsPaid() {
				return errs.ErrTermAlreadyPaid
			}
			if err := u.accruePenalty(ctx, r, l, term, amount, in.Penalty, out); err != nil {
				return err
			}
		}

		p = &payment.Payment{
			PaymentID:   id.NewID32(),
			LoanID:      l.ID,
			BorrowerID:  l.BorrowerID,
			Amount:      amount,
			PaymentType: ptype,
			Method:      strings.TrimSpace(in.Method),
			ReceiptRef:  receipt,
			Status:      payment.StatusPending,
		}
		if term != nil {
			p.TermID = &term.ID
		}
		return r.Payments.Create(ctx, p)
	})
	if err != nil {
		return nil, support.NotFound(err, "loan")
	}

	u.log.Info("payment submitted",
		zap.String("payment_id", p.PaymentID),
		zap.String("loan_id", l.LoanID),
		zap.String("amount", money.Format(amount)),
		zap.String("penalty", money.Format(out.Penalty)))

	u.notifyStaff(ctx, notify.Notification{
		Type:       notify.TypePaymentSubmitted,
		Title:      "Payment awaiting approval",
		Message:    fmt.Sprintf("%s submitted a payment of %s", actor.Name, money.Format(amount)),
		Link:       "/loans/" + l.LoanID + "/payments",
		EntityType: "payment",
		EntityID:   p.PaymentID,
	})
	u.fx.Activity(ctx, notify.Activity{
		UserID:      actor.UserID,
		Action:      notify.ActionPaymentSubmitted,
		EntityType:  "payment",
		EntityID:    p.PaymentID,
		Description: fmt.Sprintf("Submitted payment of %s", money.Format(amount)),
		Metadata:    map[string]any{"loan_id": l.LoanID, "receipt_ref": p.ReceiptRef},
	})

	out.Payment = toDTO(p, l.LoanID, term)
	return out, nil
}

// accruePenalty validates amount against the term's amount due and, the first
// time a penalty applies, stores it on the term and adds it to the loan.
// Precedence: explicit > stored > calculated.
func (u *Usecase) accruePenalty(ctx context.Context, r uow.Repos, l *loan.Loan, term *loan.Term,
	amount decimal.Decimal, explicit *decimal.Decimal, out *SubmitDTO) error {

	daysLate := loan.DaysLate(u.now(), term.DueDate)
	penalty := decimal.Zero
	switch {
	case explicit != nil:
		penalty = money.Round2(*explicit)
	case term.PenaltyAmount.IsPositive():
		penalty = term.PenaltyAmount
	case daysLate > 0:
		lt, err := r.LoanTypes.GetByID(ctx, l.LoanTypeID)
		if err != nil {
			return support.NotFound(err, "loan type")
		}
		penalty = loan.Penalty(daysLate, lt.LatePaymentPenaltyPerDay)
	}

	due := term.AmountDue(penalty)
	if money.ExceedsDue(amount, due) {
		return errs.Newf(errs.KindAmountExceeded, "amount %s exceeds amount due %s", money.Format(amount), money.Format(due))
	}
	out.Penalty, out.AmountDue, out.DaysLate = penalty, due, daysLate

	if term.PenaltyAmount.IsPositive() || !penalty.IsPositive() {
		return nil
	}
	term.PenaltyAmount = penalty
	term.DaysLate = daysLate
	if err := r.Loans.SaveTerm(ctx, term); err != nil {
		return err
	}
	l.TotalAmount = money.Round2(l.TotalAmount.Add(penalty))
	l.RemainingAmount = money.Round2(l.RemainingAmount.Add(penalty))
	return r.Loans.Save(ctx, l)
}

// Approve applies a PENDING payment to its term (or, for a legacy payment
// matching no installment, to penalties left on paid terms), reconciles the
// loan and, when the loan becomes PAID, rewards the borrower. Locks are
// taken in the order payment, loan, user.
func (u *Usecase) Approve(ctx context.Context, paymentID, approverID string) (out *ApprovalDTO, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "payment.Approve")
	defer span.End()
	span.SetAttributes(attribute.String("payment_id", paymentID))
	defer func() { metrics.Payments.WithLabelValues("approve", metrics.Status(err)).Inc() }()

	approver, err := support.Staff(ctx, u.repos.Users, approverID)
	if err != nil {
		return nil, err
	}

	var (
		p        *payment.Payment
		term     *loan.Term
		res      *loanuc.Reconciled
		borrower *user.User
	)
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		p, err = r.Payments.GetByPaymentIDForUpdate(ctx, paymentID)
		if err != nil {
			return support.NotFound(err, "payment")
		}
		if !p.IsPending() {
			return errs.Newf(errs.KindAlreadyProcessed, "payment already %s", p.Status)
		}
		l, err := r.Loans.GetByIDForUpdate(ctx, p.LoanID)
		if err != nil {
			return support.NotFound(err, "loan")
		}
		terms, err := r.Loans.ListTerms(ctx, l.ID)
		if err != nil {
			return err
		}

		if term, err = resolveTerm(terms, p); err != nil {
			return err
		}
		now := u.now()
		if term != nil {
			due := term.AmountDue(term.PenaltyAmount)
			if money.ExceedsDue(p.Amount, due) {
				return errs.Newf(errs.KindAmountExceeded, "payment %s exceeds the term's remaining due %s",
					money.Format(p.Amount), money.Format(due))
			}
			term.ApplyPayment(p.Amount, now)
			if err := r.Loans.SaveTerm(ctx, term); err != nil {
				return err
			}
		} else {
			// no unpaid installment matches: the amount can only go to late
			// penalties left on terms that are already PAID
			settled, err := loan.SettlePenalties(terms, p.Amount)
			if err != nil {
				return err
			}
			for _, st := range settled {
				if err := r.Loans.SaveTerm(ctx, st); err != nil {
					return err
				}
			}
			if len(settled) == 1 {
				term = settled[0]
				p.TermID = &term.ID
			}
		}

		p.Complete(approver.UserID, now)
		if err := r.Payments.Save(ctx, p); err != nil {
			return err
		}

		if res, err = loanuc.ReconcileTx(ctx, r, l, now); err != nil {
			return err
		}
		if !res.PaidOff() {
			borrower, err = r.Users.GetByUserID(ctx, l.BorrowerID)
			return support.NotFound(err, "borrower")
		}

		borrower, err = r.Users.GetByUserIDForUpdate(ctx, l.BorrowerID)
		if err != nil {
			return support.NotFound(err, "borrower")
		}
		var lt *loantype.LoanType
		if lt, err = r.LoanTypes.GetByID(ctx, l.LoanTypeID); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			lt = nil
		}
		credit.Apply(borrower, credit.ForPayoff(l.PrincipalAmount, lt))
		return r.Users.Save(ctx, borrower)
	})
	if err != nil {
		return nil, err
	}

	l := res.Loan
	paidOff := res.PaidOff()
	u.log.Info("payment approved",
		zap.String("payment_id", p.PaymentID),
		zap.String("loan_id", l.LoanID),
		zap.String("remaining", money.Format(l.RemainingAmount)),
		zap.String("status", string(l.Status)))
	u.announceApproval(ctx, p, l, term, borrower, approver.UserID, paidOff)

	out = &ApprovalDTO{
		Payment: toDTO(p, l.LoanID, term),
		Loan:    *loanuc.ToDTO(l, res.Terms),
		PaidOff: paidOff,
	}
	return out, nil
}

// resolveTerm picks the payment's explicit term, or for legacy rows the one
// unpaid term whose outstanding amount matches. nil means no match.
func resolveTerm(terms []loan.Term, p *payment.Payment) (*loan.Term, error) {
	if p.TermID == nil {
		return loan.MatchTermByAmount(terms, p.Amount)
	}
	for i := range terms {
		if terms[i].ID != *p.TermID {
			continue
		}
		if terms[i].IsPaid() {
			return nil, errs.ErrTermAlreadyPaid
		}
		return &terms[i], nil
	}
	return nil, errs.New(errs.KindNotFound, "term not found")
}

func (u *Usecase) announceApproval(ctx context.Context, p *payment.Payment, l *loan.Loan, term *loan.Term,
	borrower *user.User, approverID string, paidOff bool) {

	covered := ""
	if term != nil {
		covered = fmt.Sprintf(" for the %s installment", term.DueDate.Format("January 2006"))
	}
	body := fmt.Sprintf("Your payment of %s%s has been approved. Remaining balance: %s.",
		money.Format(p.Amount), covered, money.Format(l.RemainingAmount))
	if paidOff {
		body += " Your loan is fully paid. Thank you!"
	}
	u.fx.SMS(ctx, borrower.Phone, body, borrower.UserID)

	u.fx.Notify(ctx, []string{borrower.UserID}, notify.Notification{
		Type:       notify.TypePaymentApproved,
		Title:      "Payment approved",
		Message:    body,
		Link:       "/loans/" + l.LoanID,
		EntityType: "payment",
		EntityID:   p.PaymentID,
	})
	if paidOff {
		metrics.LoansPaidOff.Inc()
		u.fx.Notify(ctx, []string{borrower.UserID}, notify.Notification{
			Type:       notify.TypeLoanPaid,
			Title:      "Loan paid off",
			Message:    fmt.Sprintf("Your credit score is now %.2f and your loan limit %s.", borrower.CreditScore, money.Format(borrower.LoanLimit)),
			Link:       "/loans/" + l.LoanID,
			EntityType: "loan",
			EntityID:   l.LoanID,
		})
	}
	u.fx.Activity(ctx, notify.Activity{
		UserID:      approverID,
		Action:      notify.ActionPaymentApproved,
		EntityType:  "payment",
		EntityID:    p.PaymentID,
		Description: fmt.Sprintf("Approved payment of %s", money.Format(p.Amount)),
		Metadata: map[string]any{
			"loan_id":   l.LoanID,
			"remaining": money.Format(l.RemainingAmount),
			"paid_off":  paidOff,
		},
	})
}

// Reject marks a PENDING payment FAILED. The ledger is not touched.
func (u *Usecase) Reject(ctx context.Context, paymentID, rejecterID, reason string) (out *PaymentDTO, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "payment.Reject")
	defer span.End()
	defer func() { metrics.Payments.WithLabelValues("reject", metrics.Status(err)).Inc() }()

	rejecter, err := support.Staff(ctx, u.repos.Users, rejecterID)
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, errs.New(errs.KindValidation, "rejection requires a reason")
	}

	var p *payment.Payment
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		p, err = r.Payments.GetByPaymentIDForUpdate(ctx, paymentID)
		if err != nil {
			return support.NotFound(err, "payment")
		}
		if !p.IsPending() {
			return errs.Newf(errs.KindAlreadyProcessed, "payment already %s", p.Status)
		}
		p.Fail(rejecter.UserID, reason, u.now())
		return r.Payments.Save(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	loanID := ""
	if l, err := u.repos.Loans.GetByID(ctx, p.LoanID); err == nil {
		loanID = l.LoanID
	}
	if borrower, err := u.repos.Users.GetByUserID(ctx, p.BorrowerID); err == nil {
		u.fx.SMS(ctx, borrower.Phone,
			fmt.Sprintf("Your payment of %s was rejected. Reason: %s", money.Format(p.Amount), reason),
			borrower.UserID)
	} else {
		u.log.Warn("reject: borrower lookup for sms", zap.String("payment_id", p.PaymentID), zap.Error(err))
	}
	u.fx.Activity(ctx, notify.Activity{
		UserID:      rejecter.UserID,
		Action:      notify.ActionPaymentRejected,
		EntityType:  "payment",
		EntityID:    p.PaymentID,
		Description: "Payment rejected: " + reason,
	})

	dto := toDTO(p, loanID, nil)
	return &dto, nil
}

// ListByLoan lists a loan's payments, newest first.
func (u *Usecase) ListByLoan(ctx context.Context, loanID, actorID string) ([]PaymentDTO, error) {
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
	ps, err := u.repos.Payments.ListByLoanID(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	terms, err := u.repos.Loans.ListTerms(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	byPK := make(map[uint64]*loan.Term, len(terms))
	for i := range terms {
		byPK[terms[i].ID] = &terms[i]
	}

	out := make([]PaymentDTO, 0, len(ps))
	for i := range ps {
		var t *loan.Term
		if ps[i].TermID != nil {
			t = byPK[*ps[i].TermID]
		}
		out = append(out, toDTO(&ps[i], l.LoanID, t))
	}
	return out, nil
}

func (u *Usecase) notifyStaff(ctx context.Context, n notify.Notification) {
	staff, err := u.repos.Users.ListStaffUserIDs(ctx)
	if err != nil {
		u.log.Warn("list staff for notification", zap.Error(err))
		return
	}
	u.fx.Notify(ctx, staff, n)
}
