package http

import (
	"context"
	"net/http"

	loanuc "microlend-backend/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

type LoanService interface {
	Get(ctx context.Context, loanID, actorID string) (*loanuc.LoanDTO, error)
	Reconcile(ctx context.Context, loanID, actorID string) (*loanuc.LoanDTO, error)
	ListByBorrower(ctx context.Context, borrowerID, actorID string) ([]loanuc.LoanDTO, error)
	CreateFromApprovedApplication(ctx context.Context, applicationID, actorID string) (*loanuc.LoanDTO, error)
}

type LoanHandler struct{ uc LoanService }

func NewLoanHandler(uc LoanService) *LoanHandler { return &LoanHandler{uc: uc} }

// GetLoan returns the loan with balances recomputed from its terms.
func (h *LoanHandler) GetLoan(c echo.Context) error {
	actor, err := requireActor(c)
	if actor == "" {
		return err
	}
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Reconcile(c echo.Context) error {
	actor, err := requireActor(c)
	if actor == "" {
		return err
	}
	dto, err := h.uc.Reconcile(c.Request().Context(), c.Param("loan_id"), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ListByBorrower(c echo.Context) error {
	actor, err := requireActor(c)
	if actor == "" {
		return err
	}
	loans, err := h.uc.ListByBorrower(c.Request().Context(), c.Param("borrower_id"), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loans": loans})
}
