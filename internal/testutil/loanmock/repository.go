package loanmock

import (
	"context"

	domain "microlend-backend/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Writes default to no-op success; reads default to context.Canceled.
type Repo struct {
	CreateFn               func(ctx context.Context, l *domain.Loan) error
	SaveFn                 func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDFn          func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetByIDFn              func(ctx context.Context, id uint64) (*domain.Loan, error)
	GetByLoanIDForUpdateFn func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetByIDForUpdateFn     func(ctx context.Context, id uint64) (*domain.Loan, error)
	GetByApplicationIDFn   func(ctx context.Context, applicationID uint64) (*domain.Loan, error)
	ListByBorrowerIDFn     func(ctx context.Context, borrowerID string) ([]domain.Loan, error)
	ListOpenFn             func(ctx context.Context, limit int) ([]domain.Loan, error)
	CreateTermsFn          func(ctx context.Context, terms []domain.Term) error
	ListTermsFn            func(ctx context.Context, loanID uint64) ([]domain.Term, error)
	GetTermByTermIDFn      func(ctx context.Context, termID string) (*domain.Term, error)
	SaveTermFn             func(ctx context.Context, t *domain.Term) error
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Loan, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDForUpdateFn != nil {
		return m.GetByLoanIDForUpdateFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByIDForUpdate(ctx context.Context, id uint64) (*domain.Loan, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByApplicationID(ctx context.Context, applicationID uint64) (*domain.Loan, error) {
	if m.GetByApplicationIDFn != nil {
		return m.GetByApplicationIDFn(ctx, applicationID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByBorrowerID(ctx context.Context, borrowerID string) ([]domain.Loan, error) {
	if m.ListByBorrowerIDFn != nil {
		return m.ListByBorrowerIDFn(ctx, borrowerID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListOpen(ctx context.Context, limit int) ([]domain.Loan, error) {
	if m.ListOpenFn != nil {
		return m.ListOpenFn(ctx, limit)
	}
	return nil, context.Canceled
}

func (m *Repo) CreateTerms(ctx context.Context, terms []domain.Term) error {
	if m.CreateTermsFn != nil {
		return m.CreateTermsFn(ctx, terms)
	}
	return nil
}

func (m *Repo) ListTerms(ctx context.Context, loanID uint64) ([]domain.Term, error) {
	if m.ListTermsFn != nil {
		return m.ListTermsFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetTermByTermID(ctx context.Context, termID string) (*domain.Term, error) {
	if m.GetTermByTermIDFn != nil {
		return m.GetTermByTermIDFn(ctx, termID)
	}
	return nil, context.Canceled
}

func (m *Repo) SaveTerm(ctx context.Context, t *domain.Term) error {
	if m.SaveTermFn != nil {
		return m.SaveTermFn(ctx, t)
	}
	return nil
}
