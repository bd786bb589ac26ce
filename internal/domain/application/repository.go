package application

import "context"

type Repository interface {
	Create(ctx context.Context, a *Application) error
	GetByApplicationID(ctx context.Context, applicationID string) (*Application, error)
	// Row lock; serializes concurrent evaluations of one application.
	GetByApplicationIDForUpdate(ctx context.Context, applicationID string) (*Application, error)
	GetByID(ctx context.Context, id uint64) (*Application, error)
	GetPendingByBorrowerID(ctx context.Context, borrowerID string) (*Application, error)
	Save(ctx context.Context, a *Application) error
	Delete(ctx context.Context, a *Application) error
}
