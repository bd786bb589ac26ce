package user

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleStaff    Role = "STAFF"
	RoleBorrower Role = "BORROWER"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Table: users. Borrowers and staff share the table; Status is nil for staff.
type User struct {
	ID          uint64          `gorm:"primaryKey;column:id" json:"-"`
	UserID      string          `gorm:"size:32;uniqueIndex:ux_users_user_id" json:"user_id"`
	Name        string          `gorm:"size:128" json:"name"`
	Phone       string          `gorm:"size:32" json:"phone"`
	Role        Role            `gorm:"type:varchar(16);index" json:"role"`
	Status      *Status         `gorm:"type:varchar(16)" json:"status,omitempty"`
	IsActive    bool            `json:"is_active"`
	CreditScore float64         `gorm:"type:decimal(5,2)" json:"credit_score"`
	LoanLimit   decimal.Decimal `gorm:"type:decimal(18,2)" json:"loan_limit"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) IsStaff() bool { return u.Role == RoleAdmin || u.Role == RoleStaff }

func (u *User) IsBorrower() bool { return u.Role == RoleBorrower }

// CanBorrow reports whether the user is an active, approved borrower.
func (u *User) CanBorrow() bool {
	return u.IsBorrower() && u.IsActive && u.Status != nil && *u.Status == StatusApproved
}
