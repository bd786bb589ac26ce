package mysql

import (
	"context"

	"microlend-backend/internal/domain/loantype"

	"gorm.io/gorm"
)

type LoanTypeRepository struct{ db *gorm.DB }

func NewLoanTypeRepository(db *gorm.DB) *LoanTypeRepository { return &LoanTypeRepository{db: db} }

func (r *LoanTypeRepository) GetByID(ctx context.Context, id uint64) (*loantype.LoanType, error) {
	var out loantype.LoanType
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *LoanTypeRepository) GetDurationByID(ctx context.Context, id uint64) (*loantype.PaymentDuration, error) {
	var out loantype.PaymentDuration
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}
