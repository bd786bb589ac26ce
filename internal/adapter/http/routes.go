package http

import "github.com/labstack/echo/v4"

type Handlers struct {
	Health        *Handler
	Applications  *ApplicationHandler
	Loans         *LoanHandler
	Payments      *PaymentHandler
	Notifications *NotificationHandler
}

// Register mounts the API. mw wraps every route except /health.
func Register(e *echo.Echo, h Handlers, mw ...echo.MiddlewareFunc) {
	e.GET("/health", h.Health.Health)

	api := e.Group("", mw...)
	api.POST("/applications", h.Applications.Submit)
	api.POST("/applications/:application_id/evaluate", h.Applications.Evaluate)
	api.POST("/applications/:application_id/loan", h.Applications.CreateLoan)
	api.DELETE("/applications/:application_id", h.Applications.Delete)

	api.GET("/loans/:loan_id", h.Loans.GetLoan)
	api.POST("/loans/:loan_id/reconcile", h.Loans.Reconcile)
	api.GET("/loans/:loan_id/payments", h.Payments.ListByLoan)
	api.POST("/loans/:loan_id/payments", h.Payments.Submit)
	api.GET("/borrowers/:borrower_id/loans", h.Loans.ListByBorrower)

	api.POST("/payments/:payment_id/approve", h.Payments.Approve)
	api.POST("/payments/:payment_id/reject", h.Payments.Reject)

	api.GET("/notifications", h.Notifications.Unread)
}
