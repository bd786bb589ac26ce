package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	Save(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	GetByID(ctx context.Context, id uint64) (*Loan, error)
	// Row-locked reads; every mutation of the loan aggregate goes through one.
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	GetByIDForUpdate(ctx context.Context, id uint64) (*Loan, error)
	GetByApplicationID(ctx context.Context, applicationID uint64) (*Loan, error)
	ListByBorrowerID(ctx context.Context, borrowerID string) ([]Loan, error)
	// ACTIVE and OVERDUE loans, oldest first.
	ListOpen(ctx context.Context, limit int) ([]Loan, error)

	CreateTerms(ctx context.Context, terms []Term) error
	ListTerms(ctx context.Context, loanID uint64) ([]Term, error)
	GetTermByTermID(ctx context.Context, termID string) (*Term, error)
	SaveTerm(ctx context.Context, t *Term) error
}
