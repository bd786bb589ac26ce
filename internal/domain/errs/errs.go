package errs

import (
	"errors"
	"fmt"
)

// Kind is the stable, machine-readable part of a business error.
type Kind string

const (
	KindUnauthorized         Kind = "UNAUTHORIZED"
	KindNotFound             Kind = "NOT_FOUND"
	KindInvalidAmount        Kind = "INVALID_AMOUNT"
	KindAmountExceeded       Kind = "AMOUNT_EXCEEDED"
	KindTermAlreadyPaid      Kind = "TERM_ALREADY_PAID"
	KindAlreadyProcessed     Kind = "ALREADY_PROCESSED"
	KindLoanAlreadyExists    Kind = "LOAN_ALREADY_EXISTS"
	KindInterestRateNotFound Kind = "INTEREST_RATE_NOT_FOUND"
	KindInvalidDuration      Kind = "INVALID_DURATION"
	KindValidation           Kind = "VALIDATION_ERROR"
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches any *Error of the same Kind, so errors.Is(err, ErrNotFound)
// holds for every not-found error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrUnauthorized         = New(KindUnauthorized, "not allowed")
	ErrNotFound             = New(KindNotFound, "not found")
	ErrInvalidAmount        = New(KindInvalidAmount, "amount must be greater than zero")
	ErrAmountExceeded       = New(KindAmountExceeded, "amount exceeds amount due")
	ErrTermAlreadyPaid      = New(KindTermAlreadyPaid, "term already paid")
	ErrAlreadyProcessed     = New(KindAlreadyProcessed, "already processed")
	ErrLoanAlreadyExists    = New(KindLoanAlreadyExists, "loan already exists for application")
	ErrInterestRateNotFound = New(KindInterestRateNotFound, "interest rate not found")
	ErrInvalidDuration      = New(KindInvalidDuration, "invalid payment duration")
	ErrValidation           = New(KindValidation, "validation failed")
)

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
