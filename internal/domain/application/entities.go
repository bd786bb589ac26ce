package application

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Table: loan_applications
type Application struct {
	ID                  uint64              `gorm:"primaryKey;column:id" json:"-"`
	ApplicationID       string              `gorm:"size:32;uniqueIndex:ux_loan_applications_application_id" json:"application_id"`
	BorrowerID          string              `gorm:"size:32;index:idx_loan_applications_borrower" json:"borrower_id"`
	LoanTypeID          uint64              `gorm:"not null" json:"loan_type_id"`
	DurationID          uint64              `gorm:"not null" json:"duration_id"`
	RequestedAmount     decimal.Decimal     `gorm:"type:decimal(18,2)" json:"requested_amount"`
	Purpose             string              `gorm:"size:255" json:"purpose,omitempty"`
	Status              Status              `gorm:"type:varchar(16);index" json:"status"`
	EvaluatedBy         *string             `gorm:"size:32" json:"evaluated_by,omitempty"`
	EvaluatedAt         *time.Time          `json:"evaluated_at,omitempty"`
	CreditScoreSnapshot *float64            `gorm:"type:decimal(5,2)" json:"credit_score_snapshot,omitempty"`
	LoanLimitSnapshot   decimal.NullDecimal `gorm:"type:decimal(18,2)" json:"loan_limit_snapshot"`
	RejectionReason     string              `gorm:"type:text" json:"rejection_reason,omitempty"`
	CreatedAt           time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Application) TableName() string { return "loan_applications" }

func (a *Application) IsPending() bool { return a.Status == StatusPending }

// Evaluate records a one-shot decision. Callers check IsPending first.
func (a *Application) Evaluate(decision Status, evaluatorID string, at time.Time, score float64, limit decimal.Decimal, reason string) {
	a.Status = decision
	a.EvaluatedBy = &evaluatorID
	a.EvaluatedAt = &at
	a.CreditScoreSnapshot = &score
	a.LoanLimitSnapshot = decimal.NewNullDecimal(limit)
	a.RejectionReason = reason
}
