package loantype

import "context"

// Reference data is maintained elsewhere; the core only reads it.
type Repository interface {
	GetByID(ctx context.Context, id uint64) (*LoanType, error)
	GetDurationByID(ctx context.Context, id uint64) (*PaymentDuration, error)
}
