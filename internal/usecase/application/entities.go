package application

import (
	"time"

	"microlend-backend/internal/domain/application"
	loanuc "microlend-backend/internal/usecase/loan"

	"github.com/shopspring/decimal"
)

type SubmitInput struct {
	BorrowerID string
	LoanTypeID uint64
	DurationID uint64
	Amount     decimal.Decimal
	Purpose    string
}

type EvaluateInput struct {
	ApplicationID string
	EvaluatorID   string
	Decision      string // APPROVED | REJECTED
	Reason        string
}

type ApplicationDTO struct {
	ApplicationID   string          `json:"application_id"`
	BorrowerID      string          `json:"borrower_id"`
	LoanTypeID      uint64          `json:"loan_type_id"`
	DurationID      uint64          `json:"duration_id"`
	RequestedAmount decimal.Decimal `json:"requested_amount"`
	Purpose         string          `json:"purpose,omitempty"`
	Status          string          `json:"status"`
	EvaluatedBy     *string         `json:"evaluated_by,omitempty"`
	EvaluatedAt     *time.Time      `json:"evaluated_at,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// EvaluationDTO carries the decided application and, on approval, the loan.
type EvaluationDTO struct {
	Application ApplicationDTO  `json:"application"`
	Loan        *loanuc.LoanDTO `json:"loan,omitempty"`
}

func toDTO(a *application.Application) ApplicationDTO {
	return ApplicationDTO{
		ApplicationID:   a.ApplicationID,
		BorrowerID:      a.BorrowerID,
		LoanTypeID:      a.LoanTypeID,
		DurationID:      a.DurationID,
		RequestedAmount: a.RequestedAmount,
		Purpose:         a.Purpose,
		Status:          string(a.Status),
		EvaluatedBy:     a.EvaluatedBy,
		EvaluatedAt:     a.EvaluatedAt,
		RejectionReason: a.RejectionReason,
		CreatedAt:       a.CreatedAt,
	}
}
