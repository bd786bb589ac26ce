package loan

import (
	"time"

	"microlend-backend/internal/domain/loan"

	"github.com/shopspring/decimal"
)

type TermDTO struct {
	TermID        string          `json:"term_id"`
	TermNumber    int             `json:"term_number"`
	Amount        decimal.Decimal `json:"amount"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	DueDate       time.Time       `json:"due_date"`
	Status        string          `json:"status"`
	DaysLate      int             `json:"days_late"`
	PenaltyAmount decimal.Decimal `json:"penalty_amount"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
}

type LoanDTO struct {
	LoanID          string          `json:"loan_id"`
	BorrowerID      string          `json:"borrower_id"`
	LoanTypeID      uint64          `json:"loan_type_id"`
	DurationID      uint64          `json:"duration_id"`
	PrincipalAmount decimal.Decimal `json:"principal_amount"`
	InterestRate    float64         `json:"interest_rate"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	DueDate         time.Time       `json:"due_date"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	Terms           []TermDTO       `json:"terms,omitempty"`
	// Stale is set when balances were recomputed but could not be saved.
	Stale bool `json:"stale,omitempty"`
}

func toTermDTO(t loan.Term) TermDTO {
	return TermDTO{
		TermID:        t.TermID,
		TermNumber:    t.TermNumber,
		Amount:        t.Amount,
		AmountPaid:    t.AmountPaid,
		DueDate:       t.DueDate,
		Status:        string(t.Status),
		DaysLate:      t.DaysLate,
		PenaltyAmount: t.PenaltyAmount,
		PaidAt:        t.PaidAt,
	}
}

// ToDTO renders a loan and, when given, its terms.
func ToDTO(l *loan.Loan, terms []loan.Term) *LoanDTO {
	out := &LoanDTO{
		LoanID:          l.LoanID,
		BorrowerID:      l.BorrowerID,
		LoanTypeID:      l.LoanTypeID,
		DurationID:      l.DurationID,
		PrincipalAmount: l.PrincipalAmount,
		InterestRate:    l.InterestRate,
		TotalAmount:     l.TotalAmount,
		AmountPaid:      l.AmountPaid,
		RemainingAmount: l.RemainingAmount,
		DueDate:         l.DueDate,
		Status:          string(l.Status),
		CreatedAt:       l.CreatedAt,
	}
	if len(terms) > 0 {
		out.Terms = make([]TermDTO, len(terms))
		for i := range terms {
			out.Terms[i] = toTermDTO(terms[i])
		}
	}
	return out
}
