// Package credit holds the borrower credit score and limit rules.
package credit

import (
	"microlend-backend/internal/domain/loantype"
	"microlend-backend/internal/domain/user"

	"github.com/shopspring/decimal"
)

const (
	MinScore = 0.0
	MaxScore = 100.0
)

type Adjustment struct {
	Score float64
	Limit decimal.Decimal
}

// ForOrigination reserves the principal against the borrower's limit.
func ForOrigination(principal decimal.Decimal) Adjustment {
	return Adjustment{Limit: principal.Neg()}
}

// ForPayoff restores the principal and adds the loan type's completion bonuses.
func ForPayoff(principal decimal.Decimal, lt *loantype.LoanType) Adjustment {
	a := Adjustment{Score: loantype.DefaultCreditScoreOnCompletion, Limit: principal}
	if lt != nil {
		a.Score = lt.CreditScoreOnCompletion
		a.Limit = a.Limit.Add(lt.LimitIncreaseOnCompletion)
	}
	return a
}

// Apply mutates u with a, clamping the score to [0,100] and the limit at 0.
func Apply(u *user.User, a Adjustment) {
	score := u.CreditScore + a.Score
	if score < MinScore {
		score = MinScore
	}
	if score > MaxScore {
		score = MaxScore
	}
	u.CreditScore = score

	limit := u.LoanLimit.Add(a.Limit).Round(2)
	if limit.IsNegative() {
		limit = decimal.Zero
	}
	u.LoanLimit = limit
}
