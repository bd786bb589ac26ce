// Package notify declares the side-effect ports the core calls after a
// ledger change commits. Failures never affect ledger state.
package notify

import "context"

type SMSSender interface {
	SendSMS(ctx context.Context, phone, body, userID string) error
}

type Notification struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	Link       string `json:"link,omitempty"`
	EntityType string `json:"entity_type,omitempty"`
	EntityID   string `json:"entity_id,omitempty"`
}

type Notifier interface {
	NotifyUsers(ctx context.Context, userIDs []string, n Notification) error
}

type Activity struct {
	UserID      string         `json:"user_id" bson:"user_id"`
	Action      string         `json:"action" bson:"action"`
	EntityType  string         `json:"entity_type" bson:"entity_type"`
	EntityID    string         `json:"entity_id" bson:"entity_id"`
	Description string         `json:"description" bson:"description"`
	Metadata    map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

type ActivityLogger interface {
	LogActivity(ctx context.Context, a Activity) error
}

// Notification types.
const (
	TypeApplicationSubmitted = "APPLICATION_SUBMITTED"
	TypePaymentSubmitted     = "PAYMENT_SUBMITTED"
	TypePaymentApproved      = "PAYMENT_APPROVED"
	TypeLoanPaid             = "LOAN_PAID"
)

// Activity actions.
const (
	ActionApplicationSubmitted = "APPLICATION_SUBMITTED"
	ActionApplicationApproved  = "APPLICATION_APPROVED"
	ActionApplicationRejected  = "APPLICATION_REJECTED"
	ActionApplicationDeleted   = "APPLICATION_DELETED"
	ActionLoanCreated          = "LOAN_CREATED"
	ActionPaymentSubmitted     = "PAYMENT_SUBMITTED"
	ActionPaymentApproved      = "PAYMENT_APPROVED"
	ActionPaymentRejected      = "PAYMENT_REJECTED"
)

// Nop satisfies every port and does nothing.
type Nop struct{}

func (Nop) SendSMS(context.Context, string, string, string) error    { return nil }
func (Nop) NotifyUsers(context.Context, []string, Notification) error { return nil }
func (Nop) LogActivity(context.Context, Activity) error               { return nil }
