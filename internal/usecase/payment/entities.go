package payment

import (
	"time"

	"microlend-backend/internal/domain/loan"
	"microlend-backend/internal/domain/payment"
	loanuc "microlend-backend/internal/usecase/loan"

	"github.com/shopspring/decimal"
)

type SubmitInput struct {
	LoanID      string
	BorrowerID  string // acting borrower
	TermID      string // optional; legacy payments omit it
	Amount      decimal.Decimal
	PaymentType string
	Method      string
	ReceiptRef  string
	// Penalty overrides both the stored and the calculated late penalty.
	Penalty *decimal.Decimal
}

type PaymentDTO struct {
	PaymentID       string          `json:"payment_id"`
	LoanID          string          `json:"loan_id"`
	BorrowerID      string          `json:"borrower_id"`
	TermID          string          `json:"term_id,omitempty"`
	TermNumber      int             `json:"term_number,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentType     string          `json:"payment_type"`
	Method          string          `json:"method"`
	ReceiptRef      string          `json:"receipt_ref"`
	Status          string          `json:"status"`
	ApprovedBy      *string         `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	RejectedBy      *string         `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

type SubmitDTO struct {
	Payment   PaymentDTO      `json:"payment"`
	Penalty   decimal.Decimal `json:"penalty"`
	AmountDue decimal.Decimal `json:"amount_due"`
	DaysLate  int             `json:"days_late"`
}

type ApprovalDTO struct {
	Payment PaymentDTO     `json:"payment"`
	Loan    loanuc.LoanDTO `json:"loan"`
	PaidOff bool           `json:"paid_off"`
}

func toDTO(p *payment.Payment, loanID string, term *loan.Term) PaymentDTO {
	out := PaymentDTO{
		PaymentID:       p.PaymentID,
		LoanID:          loanID,
		BorrowerID:      p.BorrowerID,
		Amount:          p.Amount,
		PaymentType:     string(p.PaymentType),
		Method:          p.Method,
		ReceiptRef:      p.ReceiptRef,
		Status:          string(p.Status),
		ApprovedBy:      p.ApprovedBy,
		ApprovedAt:      p.ApprovedAt,
		RejectedBy:      p.RejectedBy,
		RejectedAt:      p.RejectedAt,
		RejectionReason: p.RejectionReason,
		CreatedAt:       p.CreatedAt,
	}
	if term != nil {
		out.TermID = term.TermID
		out.TermNumber = term.TermNumber
	}
	return out
}
