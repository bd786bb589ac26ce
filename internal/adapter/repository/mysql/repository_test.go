package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"microlend-backend/internal/domain/application"
	loanDomain "microlend-backend/internal/domain/loan"
	"microlend-backend/internal/domain/payment"
	"microlend-backend/internal/domain/schedule"
	"microlend-backend/internal/domain/user"
	"microlend-backend/internal/testutil/sqlitedb"
	"microlend-backend/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func TestUserRepository(t *testing.T) {
	db := sqlitedb.Open(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	staff := sqlitedb.SeedStaff(t, db)
	b := sqlitedb.SeedBorrower(t, db, 50, "20000.00")
	inactive := &user.User{UserID: id.NewID32(), Role: user.RoleAdmin, IsActive: false}
	if err := repo.Create(ctx, inactive); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByUserIDForUpdate(ctx, b.UserID)
	if err != nil {
		t.Fatalf("GetByUserIDForUpdate: %v", err)
	}
	if !got.CanBorrow() || !got.LoanLimit.Equal(decimal.NewFromInt(20000)) {
		t.Fatalf("unexpected borrower %+v", got)
	}

	got.LoanLimit = decimal.RequireFromString("9999.99")
	got.CreditScore = 55
	if err := repo.Save(ctx, got); err != nil {
		t.Fatalf("Save: %v", err)
	}
	again, _ := repo.GetByUserID(ctx, b.UserID)
	if !again.LoanLimit.Equal(decimal.RequireFromString("9999.99")) || again.CreditScore != 55 {
		t.Fatalf("save not persisted: %+v", again)
	}

	ids, err := repo.ListStaffUserIDs(ctx)
	if err != nil {
		t.Fatalf("ListStaffUserIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != staff.UserID {
		t.Fatalf("staff ids=%v", ids)
	}

	if _, err := repo.GetByUserID(ctx, "nope"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("want ErrRecordNotFound, got %v", err)
	}
}

func TestLoanTypeRepository(t *testing.T) {
	db := sqlitedb.Open(t)
	ctx := context.Background()
	repo := NewLoanTypeRepository(db)

	lt := sqlitedb.SeedLoanType(t, db, sqlitedb.LoanTypeOpts{Rates: schedule.RateTable{6: 5, 12: 7.5}, PenaltyPerDay: "10"})
	dur := sqlitedb.SeedDuration(t, db, "6 months", 182)

	got, err := repo.GetByID(ctx, lt.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	rates, err := got.Rates()
	if err != nil || rates[12] != 7.5 {
		t.Fatalf("rates=%v err=%v", rates, err)
	}
	if !got.LatePaymentPenaltyPerDay.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("penalty=%s", got.LatePaymentPenaltyPerDay)
	}
	gd, err := repo.GetDurationByID(ctx, dur.ID)
	if err != nil || gd.Days != 182 || gd.Label != "6 months" {
		t.Fatalf("duration=%+v err=%v", gd, err)
	}
}

func TestApplicationRepository(t *testing.T) {
	db := sqlitedb.Open(t)
	ctx := context.Background()
	repo := NewApplicationRepository(db)

	a := makeApplication("BR-1", 1, 1)
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	pending, err := repo.GetPendingByBorrowerID(ctx, "BR-1")
	if err != nil || pending.ApplicationID != a.ApplicationID {
		t.Fatalf("GetPendingByBorrowerID: %+v %v", pending, err)
	}

	locked, err := repo.GetByApplicationIDForUpdate(ctx, a.ApplicationID)
	if err != nil {
		t.Fatalf("ForUpdate: %v", err)
	}
	locked.Status = application.StatusRejected
	locked.RejectionReason = "incomplete"
	if err := repo.Save(ctx, locked); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := repo.GetPendingByBorrowerID(ctx, "BR-1"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("rejected app must not be pending, got %v", err)
	}

	byPK, err := repo.GetByID(ctx, a.ID)
	if err != nil || byPK.RejectionReason != "incomplete" {
		t.Fatalf("GetByID: %+v %v", byPK, err)
	}

	if err := repo.Delete(ctx, byPK); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByApplicationID(ctx, a.ApplicationID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("want deleted, got %v", err)
	}
}

func TestLoanRepository_LoanAndTerms(t *testing.T) {
	db := sqlitedb.Open(t)
	ctx := context.Background()
	repo := NewLoanRepository(db)

	l := makeLoan(7, "BR-9")
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// unique application_id
	if err := repo.Create(ctx, makeLoan(7, "BR-9")); err == nil {
		t.Fatal("expected unique violation on application_id")
	}

	start := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	terms := loanDomain.BuildTerms(l.ID, schedule.Split(l.TotalAmount, 6, start), id.NewID32)
	if err := repo.CreateTerms(ctx, terms); err != nil {
		t.Fatalf("CreateTerms: %v", err)
	}

	got, err := repo.ListTerms(ctx, l.ID)
	if err != nil || len(got) != 6 {
		t.Fatalf("ListTerms: n=%d err=%v", len(got), err)
	}
	sum := decimal.Zero
	for i, tm := range got {
		if tm.TermNumber != i+1 {
			t.Fatalf("terms out of order: %d at %d", tm.TermNumber, i)
		}
		sum = sum.Add(tm.Amount)
	}
	if !sum.Equal(l.TotalAmount) {
		t.Fatalf("sum=%s total=%s", sum, l.TotalAmount)
	}
	if !got[5].Amount.Equal(decimal.RequireFromString("1707.78")) {
		t.Fatalf("last term=%s", got[5].Amount)
	}
	if !got[0].DueDate.Equal(time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("first due=%v", got[0].DueDate)
	}

	tm, err := repo.GetTermByTermID(ctx, got[2].TermID)
	if err != nil || tm.TermNumber != 3 {
		t.Fatalf("GetTermByTermID: %+v %v", tm, err)
	}
	tm.ApplyPayment(tm.Amount, time.Now().UTC())
	if err := repo.SaveTerm(ctx, tm); err != nil {
		t.Fatalf("SaveTerm: %v", err)
	}
	again, _ := repo.GetTermByTermID(ctx, tm.TermID)
	if !again.IsPaid() || again.PaidAt == nil {
		t.Fatalf("term not paid: %+v", again)
	}

	byApp, err := repo.GetByApplicationID(ctx, 7)
	if err != nil || byApp.LoanID != l.LoanID {
		t.Fatalf("GetByApplicationID: %+v %v", byApp, err)
	}
	if byPK, err := repo.GetByID(ctx, l.ID); err != nil || byPK.LoanID != l.LoanID {
		t.Fatalf("GetByID: %+v %v", byPK, err)
	}
	locked, err := repo.GetByIDForUpdate(ctx, l.ID)
	if err != nil || locked.LoanID != l.LoanID {
		t.Fatalf("GetByIDForUpdate: %+v %v", locked, err)
	}
}

func TestLoanRepository_Lists(t *testing.T) {
	db := sqlitedb.Open(t)
	ctx := context.Background()
	repo := NewLoanRepository(db)

	statuses := []loanDomain.Status{loanDomain.StatusActive, loanDomain.StatusPaid, loanDomain.StatusOverdue}
	for i, st := range statuses {
		l := makeLoan(uint64(i+1), "BR-1")
		l.Status = st
		if err := repo.Create(ctx, l); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	other := makeLoan(99, "BR-2")
	if err := repo.Create(ctx, other); err != nil {
		t.Fatalf("Create: %v", err)
	}

	mine, err := repo.ListByBorrowerID(ctx, "BR-1")
	if err != nil || len(mine) != 3 {
		t.Fatalf("ListByBorrowerID: n=%d err=%v", len(mine), err)
	}

	open, err := repo.ListOpen(ctx, 0)
	if err != nil || len(open) != 3 {
		t.Fatalf("ListOpen: n=%d err=%v", len(open), err)
	}
	for _, l := range open {
		if l.Status == loanDomain.StatusPaid {
			t.Fatal("paid loan listed as open")
		}
	}
	limited, _ := repo.ListOpen(ctx, 1)
	if len(limited) != 1 {
		t.Fatalf("limit ignored: %d", len(limited))
	}
}

func TestPaymentRepository(t *testing.T) {
	db := sqlitedb.Open(t)
	ctx := context.Background()
	repo := NewPaymentRepository(db)

	termPK := uint64(3)
	p := &payment.Payment{
		PaymentID:   id.NewID32(),
		LoanID:      1,
		BorrowerID:  "BR-1",
		TermID:      &termPK,
		Amount:      decimal.RequireFromString("1707.76"),
		PaymentType: payment.TypeInstallment,
		Method:      "BANK_TRANSFER",
		ReceiptRef:  "RCPT-1",
		Status:      payment.StatusPending,
	}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	locked, err := repo.GetByPaymentIDForUpdate(ctx, p.PaymentID)
	if err != nil || !locked.IsPending() || locked.TermID == nil || *locked.TermID != 3 {
		t.Fatalf("ForUpdate: %+v %v", locked, err)
	}
	locked.Complete("STAFF-1", time.Now().UTC())
	if err := repo.Save(ctx, locked); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ := repo.GetByPaymentID(ctx, p.PaymentID)
	if got.Status != payment.StatusCompleted || got.ApprovedBy == nil || *got.ApprovedBy != "STAFF-1" {
		t.Fatalf("not completed: %+v", got)
	}

	list, err := repo.ListByLoanID(ctx, 1)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListByLoanID: n=%d err=%v", len(list), err)
	}
	if none, _ := repo.ListByLoanID(ctx, 2); len(none) != 0 {
		t.Fatalf("foreign loan payments leaked: %d", len(none))
	}
}
