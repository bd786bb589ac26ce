// Package sqlitedb opens migrated in-memory databases and seeds reference
// rows for repository and use case tests.
package sqlitedb

import (
	"testing"

	"microlend-backend/internal/domain/loantype"
	"microlend-backend/internal/domain/schedule"
	"microlend-backend/internal/domain/user"
	"microlend-backend/internal/infrastructure/db"
	"microlend-backend/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a fresh, migrated in-memory database. The pool is pinned to
// one connection: every sqlite connection to ":memory:" is its own database.
func Open(t testing.TB, extra ...any) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(gdb, extra...); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return gdb
}

func mustCreate(t testing.TB, gdb *gorm.DB, v any) {
	t.Helper()
	if err := gdb.Create(v).Error; err != nil {
		t.Fatalf("seed %T: %v", v, err)
	}
}

func SeedStaff(t testing.TB, gdb *gorm.DB) *user.User {
	t.Helper()
	u := &user.User{
		UserID:    id.NewID32(),
		Name:      "Staff",
		Phone:     "+10000000001",
		Role:      user.RoleStaff,
		IsActive:  true,
		LoanLimit: decimal.Zero,
	}
	mustCreate(t, gdb, u)
	return u
}

// SeedBorrower creates an active, approved borrower.
func SeedBorrower(t testing.TB, gdb *gorm.DB, score float64, limit string) *user.User {
	t.Helper()
	st := user.StatusApproved
	u := &user.User{
		UserID:      id.NewID32(),
		Name:        "Borrower",
		Phone:       "+10000000002",
		Role:        user.RoleBorrower,
		Status:      &st,
		IsActive:    true,
		CreditScore: score,
		LoanLimit:   decimal.RequireFromString(limit),
	}
	mustCreate(t, gdb, u)
	return u
}

type LoanTypeOpts struct {
	Rates         schedule.RateTable
	Min, Max      string
	ScoreBonus    float64
	LimitBonus    string
	PenaltyPerDay string
}

func SeedLoanType(t testing.TB, gdb *gorm.DB, o LoanTypeOpts) *loantype.LoanType {
	t.Helper()
	orZero := func(s string) decimal.Decimal {
		if s == "" {
			return decimal.Zero
		}
		return decimal.RequireFromString(s)
	}
	lt := &loantype.LoanType{
		Name:                      "Micro",
		MinAmount:                 orZero(o.Min),
		MaxAmount:                 orZero(o.Max),
		CreditScoreOnCompletion:   o.ScoreBonus,
		LimitIncreaseOnCompletion: orZero(o.LimitBonus),
		LatePaymentPenaltyPerDay:  orZero(o.PenaltyPerDay),
		IsActive:                  true,
	}
	lt.SetRates(o.Rates)
	mustCreate(t, gdb, lt)
	return lt
}

func SeedDuration(t testing.TB, gdb *gorm.DB, label string, days int) *loantype.PaymentDuration {
	t.Helper()
	d := &loantype.PaymentDuration{Label: label, Days: days, IsActive: true}
	mustCreate(t, gdb, d)
	return d
}
