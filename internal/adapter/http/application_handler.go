package http

import (
	"context"
	"net/http"

	appuc "microlend-backend/internal/usecase/application"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type ApplicationService interface {
	Submit(ctx context.Context, in appuc.SubmitInput) (*appuc.ApplicationDTO, error)
	Evaluate(ctx context.Context, in appuc.EvaluateInput) (*appuc.EvaluationDTO, error)
	Delete(ctx context.Context, applicationID, actorID string) error
}

type ApplicationHandler struct {
	apps  ApplicationService
	loans LoanService
}

func NewApplicationHandler(apps ApplicationService, loans LoanService) *ApplicationHandler {
	return &ApplicationHandler{apps: apps, loans: loans}
}

type submitApplicationReq struct {
	LoanTypeID uint64  `json:"loan_type_id" validate:"required,gt=0"`
	DurationID uint64  `json:"duration_id"  validate:"required,gt=0"`
	Amount     float64 `json:"amount"       validate:"required,gt=0,dec2"`
	Purpose    string  `json:"purpose"      validate:"max=255"`
}

func (h *ApplicationHandler) Submit(c echo.Context) error {
	actor, err := requireActor(c)
	if actor == "" {
		return err
	}
	var req submitApplicationReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.apps.Submit(c.Request().Context(), appuc.SubmitInput{
		BorrowerID: actor,
		LoanTypeID: req.LoanTypeID,
		DurationID: req.DurationID,
		Amount:     decimal.NewFromFloat(req.Amount),
		Purpose:    req.Purpose,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

type evaluateReq struct {
	Decision string `json:"decision" validate:"required"`
	Reason   string `json:"reason"   validate:"max=1000"`
}

func (h *ApplicationHandler) Evaluate(c echo.Context) error {
	actor, err := requireActor(c)
	if actor == "" {
		return err
	}
	var req evaluateReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.apps.Evaluate(c.Request().Context(), appuc.EvaluateInput{
		ApplicationID: c.Param("application_id"),
		EvaluatorID:   actor,
		Decision:      req.Decision,
		Reason:        req.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// CreateLoan originates the loan of an APPROVED application that has none.
func (h *ApplicationHandler) CreateLoan(c echo.Context) error {
	actor, err := requireActor(c)
	if actor == "" {
		return err
	}
	dto, err := h.loans.CreateFromApprovedApplication(c.Request().Context(), c.Param("application_id"), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *ApplicationHandler) Delete(c echo.Context) error {
	actor, err := requireActor(c)
	if actor == "" {
		return err
	}
	if err := h.apps.Delete(c.Request().Context(), c.Param("application_id"), actor); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
