package loantype

import (
	"time"

	"microlend-backend/internal/domain/schedule"

	"github.com/shopspring/decimal"
)

const DefaultCreditScoreOnCompletion = 5.0

// Table: loan_types
type LoanType struct {
	ID                        uint64          `gorm:"primaryKey;column:id" json:"id"`
	Name                      string          `gorm:"size:128" json:"name"`
	MinAmount                 decimal.Decimal `gorm:"type:decimal(18,2)" json:"min_amount"`
	MaxAmount                 decimal.Decimal `gorm:"type:decimal(18,2)" json:"max_amount"`
	InterestRatesByMonth      string          `gorm:"column:interest_rates_by_month;type:text" json:"interest_rates_by_month"`
	CreditScoreOnCompletion   float64         `gorm:"type:decimal(5,2)" json:"credit_score_on_completion"`
	LimitIncreaseOnCompletion decimal.Decimal `gorm:"type:decimal(18,2)" json:"limit_increase_on_completion"`
	LatePaymentPenaltyPerDay  decimal.Decimal `gorm:"type:decimal(18,2)" json:"late_payment_penalty_per_day"`
	IsActive                  bool            `json:"is_active"`
	CreatedAt                 time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                 time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (LoanType) TableName() string { return "loan_types" }

// Rates parses the stored month→rate JSON.
func (lt *LoanType) Rates() (schedule.RateTable, error) {
	return schedule.ParseRateTable(lt.InterestRatesByMonth)
}

func (lt *LoanType) SetRates(t schedule.RateTable) { lt.InterestRatesByMonth = t.String() }

// Accepts reports whether amount lies within the type's bounds. A zero max
// means unbounded.
func (lt *LoanType) Accepts(amount decimal.Decimal) bool {
	if amount.LessThan(lt.MinAmount) {
		return false
	}
	return lt.MaxAmount.IsZero() || amount.LessThanOrEqual(lt.MaxAmount)
}

// Table: payment_durations
type PaymentDuration struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"id"`
	Label     string    `gorm:"size:64" json:"label"`
	Days      int       `json:"days"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PaymentDuration) TableName() string { return "payment_durations" }

func (p *PaymentDuration) Schedule() schedule.Duration {
	return schedule.Duration{Label: p.Label, Days: p.Days}
}
