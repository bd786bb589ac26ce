package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusOverdue Status = "OVERDUE"
	StatusPaid    Status = "PAID"
)

type TermStatus string

const (
	TermPending TermStatus = "PENDING"
	TermPaid    TermStatus = "PAID"
)

// Table: loans. One row per approved application.
type Loan struct {
	ID              uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID          string          `gorm:"size:32;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	ApplicationID   uint64          `gorm:"not null;uniqueIndex:ux_loans_application_id" json:"-"`
	BorrowerID      string          `gorm:"size:32;index:idx_loans_borrower" json:"borrower_id"`
	LoanTypeID      uint64          `gorm:"not null" json:"loan_type_id"`
	DurationID      uint64          `gorm:"not null" json:"duration_id"`
	PrincipalAmount decimal.Decimal `gorm:"type:decimal(18,2)" json:"principal_amount"`
	InterestRate    float64         `gorm:"type:decimal(6,2)" json:"interest_rate"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,2)" json:"total_amount"`
	AmountPaid      decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount_paid"`
	RemainingAmount decimal.Decimal `gorm:"type:decimal(18,2)" json:"remaining_amount"`
	DueDate         time.Time       `json:"due_date"`
	Status          Status          `gorm:"type:varchar(16);index" json:"status"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

func (l *Loan) IsOpen() bool { return l.Status != StatusPaid }

// Table: loan_terms. Installments of a loan, numbered from 1.
type Term struct {
	ID            uint64          `gorm:"primaryKey;column:id" json:"-"`
	TermID        string          `gorm:"size:32;uniqueIndex:ux_loan_terms_term_id" json:"term_id"`
	LoanID        uint64          `gorm:"not null;uniqueIndex:ux_loan_terms_loan_number,priority:1" json:"-"`
	TermNumber    int             `gorm:"not null;uniqueIndex:ux_loan_terms_loan_number,priority:2" json:"term_number"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount"`
	AmountPaid    decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount_paid"`
	DueDate       time.Time       `json:"due_date"`
	Status        TermStatus      `gorm:"type:varchar(16)" json:"status"`
	DaysLate      int             `json:"days_late"`
	PenaltyAmount decimal.Decimal `gorm:"type:decimal(18,2)" json:"penalty_amount"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Term) TableName() string { return "loan_terms" }

func (t *Term) IsPaid() bool { return t.Status == TermPaid }
