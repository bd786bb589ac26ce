package uow

import (
	"context"

	"microlend-backend/internal/domain/application"
	"microlend-backend/internal/domain/loan"
	"microlend-backend/internal/domain/loantype"
	"microlend-backend/internal/domain/payment"
	"microlend-backend/internal/domain/user"
)

// Repos are bound to one transaction.
type Repos struct {
	Users        user.Repository
	LoanTypes    loantype.Repository
	Applications application.Repository
	Loans        loan.Repository
	Payments     payment.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock loan first, then pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
