package user

import "context"

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByUserID(ctx context.Context, userID string) (*User, error)
	// Row-locked read for credit/limit mutations.
	GetByUserIDForUpdate(ctx context.Context, userID string) (*User, error)
	Save(ctx context.Context, u *User) error
	// Public ids of active staff accounts, used for notification fan-out.
	ListStaffUserIDs(ctx context.Context) ([]string, error)
}
