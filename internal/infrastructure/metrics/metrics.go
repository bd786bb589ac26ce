package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Evaluations counts application decisions by outcome.
	Evaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "microlend_application_evaluations_total",
			Help: "Loan application evaluations",
		},
		[]string{"decision", "status"},
	)

	// Payments counts payment operations (submit, approve, reject).
	Payments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "microlend_payment_operations_total",
			Help: "Payment submissions and decisions",
		},
		[]string{"operation", "status"},
	)

	Reconciliations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "microlend_loan_reconciliations_total",
			Help: "Loan aggregate recomputations",
		},
		[]string{"source", "status"},
	)

	LoansPaidOff = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "microlend_loans_paid_off_total",
			Help: "Loans that transitioned to PAID",
		},
	)

	Reminders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "microlend_reminders_total",
			Help: "Repayment reminders by outcome",
		},
		[]string{"status"},
	)

	// Idempotency counts how mutating requests were resolved by the
	// idempotency middleware (stored, replayed, conflict, dropped, unavailable).
	Idempotency = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "microlend_idempotency_requests_total",
			Help: "Mutating requests by idempotency outcome",
		},
		[]string{"outcome"},
	)

	// SideEffectFailures counts swallowed SMS/notification/activity errors.
	SideEffectFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "microlend_side_effect_failures_total",
			Help: "Post-commit side effects that failed",
		},
		[]string{"kind"},
	)
)

// Status maps an error to the status label.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
