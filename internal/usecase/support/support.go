// Package support holds helpers shared by the use cases.
package support

import (
	"context"
	"errors"
	"time"

	"microlend-backend/internal/domain/errs"
	"microlend-backend/internal/domain/user"

	"gorm.io/gorm"
)

// NotFound maps gorm.ErrRecordNotFound to a NOT_FOUND business error and
// passes anything else through.
func NotFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.Newf(errs.KindNotFound, "%s not found", what)
	}
	return err
}

// Actor loads the acting user; unknown or inactive users are unauthorized.
func Actor(ctx context.Context, users user.Repository, userID string) (*user.User, error) {
	if userID == "" {
		return nil, errs.New(errs.KindUnauthorized, "missing acting user")
	}
	u, err := users.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.KindUnauthorized, "unknown user")
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, errs.New(errs.KindUnauthorized, "user is inactive")
	}
	return u, nil
}

// Staff is Actor restricted to ADMIN/STAFF.
func Staff(ctx context.Context, users user.Repository, userID string) (*user.User, error) {
	u, err := Actor(ctx, users, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsStaff() {
		return nil, errs.New(errs.KindUnauthorized, "staff only")
	}
	return u, nil
}

// CanSee reports whether actor may read data owned by borrowerID.
func CanSee(actor *user.User, borrowerID string) bool {
	return actor.IsStaff() || actor.UserID == borrowerID
}

// Clock returns UTC now truncated to the second, the precision every
// datetime column stores.
func Clock() time.Time { return time.Now().UTC().Truncate(time.Second) }
