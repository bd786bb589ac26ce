package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

type Type string

const (
	TypeInstallment Type = "INSTALLMENT"
	TypePartial     Type = "PARTIAL"
	TypeFull        Type = "FULL"
)

// Table: payments. Counts toward the ledger only once COMPLETED.
type Payment struct {
	ID              uint64          `gorm:"primaryKey;column:id" json:"-"`
	PaymentID       string          `gorm:"size:32;uniqueIndex:ux_payments_payment_id" json:"payment_id"`
	LoanID          uint64          `gorm:"not null;index:idx_payments_loan" json:"-"`
	BorrowerID      string          `gorm:"size:32;index" json:"borrower_id"`
	TermID          *uint64         `json:"-"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount"`
	PaymentType     Type            `gorm:"type:varchar(16)" json:"payment_type"`
	Method          string          `gorm:"size:32" json:"method"`
	ReceiptRef      string          `gorm:"size:64" json:"receipt_ref"`
	Status          Status          `gorm:"type:varchar(16);index" json:"status"`
	ApprovedBy      *string         `gorm:"size:32" json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	RejectedBy      *string         `gorm:"size:32" json:"rejected_by,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty"`
	RejectionReason string          `gorm:"size:255" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }

func (p *Payment) IsPending() bool { return p.Status == StatusPending }

func (p *Payment) Complete(approverID string, at time.Time) {
	p.Status = StatusCompleted
	p.ApprovedBy = &approverID
	p.ApprovedAt = &at
}

func (p *Payment) Fail(rejecterID, reason string, at time.Time) {
	p.Status = StatusFailed
	p.RejectedBy = &rejecterID
	p.RejectedAt = &at
	p.RejectionReason = reason
}

func ValidType(t Type) bool {
	switch t {
	case TypeInstallment, TypePartial, TypeFull:
		return true
	}
	return false
}
