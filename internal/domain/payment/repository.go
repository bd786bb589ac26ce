package payment

import "context"

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByPaymentID(ctx context.Context, paymentID string) (*Payment, error)
	// Row lock; taken before the loan lock on approval and rejection.
	GetByPaymentIDForUpdate(ctx context.Context, paymentID string) (*Payment, error)
	Save(ctx context.Context, p *Payment) error
	ListByLoanID(ctx context.Context, loanID uint64) ([]Payment, error)
}
