package support

import (
	"context"
	"errors"
	"testing"

	"microlend-backend/internal/domain/errs"
	"microlend-backend/internal/domain/notify"
	"microlend-backend/internal/domain/user"
	"microlend-backend/internal/testutil/notifymock"

	"gorm.io/gorm"
)

type usersStub struct {
	user.Repository
	byID map[string]*user.User
}

func (s usersStub) GetByUserID(_ context.Context, id string) (*user.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func TestNotFound(t *testing.T) {
	if err := NotFound(gorm.ErrRecordNotFound, "loan"); !errors.Is(err, errs.ErrNotFound) || err.Error() != "loan not found" {
		t.Fatalf("got %v", err)
	}
	other := errors.New("db down")
	if err := NotFound(other, "loan"); err != other {
		t.Fatalf("non-notfound must pass through, got %v", err)
	}
}

func TestStaffAndActor(t *testing.T) {
	users := usersStub{byID: map[string]*user.User{
		"staff":    {UserID: "staff", Role: user.RoleStaff, IsActive: true},
		"admin":    {UserID: "admin", Role: user.RoleAdmin, IsActive: true},
		"borrower": {UserID: "borrower", Role: user.RoleBorrower, IsActive: true},
		"inactive": {UserID: "inactive", Role: user.RoleStaff, IsActive: false},
	}}
	ctx := context.Background()

	tests := []struct {
		id      string
		staffOK bool
		actorOK bool
	}{
		{"staff", true, true},
		{"admin", true, true},
		{"borrower", false, true},
		{"inactive", false, false},
		{"ghost", false, false},
		{"", false, false},
	}
	for _, tt := range tests {
		_, err := Staff(ctx, users, tt.id)
		if (err == nil) != tt.staffOK {
			t.Fatalf("Staff(%q) err=%v", tt.id, err)
		}
		if err != nil && !errors.Is(err, errs.ErrUnauthorized) {
			t.Fatalf("Staff(%q) want UNAUTHORIZED, got %v", tt.id, err)
		}
		if _, err := Actor(ctx, users, tt.id); (err == nil) != tt.actorOK {
			t.Fatalf("Actor(%q) err=%v", tt.id, err)
		}
	}
}

func TestCanSee(t *testing.T) {
	b := &user.User{UserID: "b1", Role: user.RoleBorrower}
	s := &user.User{UserID: "s1", Role: user.RoleStaff}
	if !CanSee(b, "b1") || CanSee(b, "b2") || !CanSee(s, "b2") {
		t.Fatal("unexpected visibility")
	}
}

func TestEffects_SwallowErrors(t *testing.T) {
	rec := &notifymock.Recorder{Err: errors.New("gateway down")}
	fx := NewEffects(rec, rec, rec, nil)
	ctx := context.Background()

	fx.SMS(ctx, "+1555", "hello", "u1")
	fx.SMS(ctx, "", "no phone", "u2")
	fx.Notify(ctx, []string{"s1"}, notify.Notification{Type: notify.TypePaymentSubmitted})
	fx.Notify(ctx, nil, notify.Notification{Type: notify.TypePaymentSubmitted})
	fx.Activity(ctx, notify.Activity{Action: notify.ActionPaymentApproved})

	if rec.SMSCount() != 1 {
		t.Fatalf("sms without phone must be skipped, got %d", rec.SMSCount())
	}
	if len(rec.Notified) != 1 || len(rec.Activities) != 1 {
		t.Fatalf("unexpected calls: %+v", rec)
	}

	NopEffects().SMS(ctx, "+1", "x", "u")
}
