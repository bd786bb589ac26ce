package http

import (
	"context"
	"net/http"

	payuc "microlend-backend/internal/usecase/payment"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type PaymentService interface {
	Submit(ctx context.Context, in payuc.SubmitInput) (*payuc.SubmitDTO, error)
	Approve(ctx context.Context, paymentID, approverID string) (*payuc.ApprovalDTO, error)
	Reject(ctx context.Context, paymentID, rejecterID, reason string) (*payuc.PaymentDTO, error)
	ListByLoan(ctx context.Context, loanID, actorID string) ([]payuc.PaymentDTO, error)
}

type PaymentHandler struct{ uc PaymentService }

func NewPaymentHandler(uc PaymentService) *PaymentHandler { return &PaymentHandler{uc: uc} }

type submitPaymentReq struct {
	TermID      string   `json:"term_id"      validate:"omitempty,hex32"`
	Amount      float64  `json:"amount"       validate:"required,gt=0,dec2"`
	PaymentType string   `json:"payment_type" validate:"omitempty,oneof=INSTALLMENT PARTIAL FULL"`
	Method      string   `json:"method"       validate:"max=32"`
	ReceiptRef  string   `json:"receipt_ref"  validate:"max=64"`
	Penalty     *float64 `json:"penalty"      validate:"omitempty,gte=0,dec2"`
}

func (h *PaymentHandler) Submit(c echo.Context) error {
	actor, err := requireActor(c)
	if actor == "" {
		return err
	}
	var req submitPaymentReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	in := payuc.SubmitInput{
		LoanID:      c.Param("loan_id"),
		BorrowerID:  actor,
		TermID:      req.TermID,
		Amount:      decimal.NewFromFloat(req.Amount),
		PaymentType: req.PaymentType,
		Method:      req.Method,
		ReceiptRef:  req.ReceiptRef,
	}
	if req.Penalty != nil {
		p := decimal.NewFromFloat(*req.Penalty)
		in.Penalty = &p
	}
	dto, err := h.uc.Submit(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *PaymentHandler) ListByLoan(c echo.Context) error {
	actor, err := requireActor(c)
	if actor == "" {
		return err
	}
	ps, err := h.uc.ListByLoan(c.Request().Context(), c.Param("loan_id"), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"payments": ps})
}

func (h *PaymentHandler) Approve(c echo.Context) error {
	actor, err := requireActor(c)
	if actor == "" {
		return err
	}
	dto, err := h.uc.Approve(c.Request().Context(), c.Param("payment_id"), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type rejectReq struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

func (h *PaymentHandler) Reject(c echo.Context) error {
	actor, err := requireActor(c)
	if actor == "" {
		return err
	}
	var req rejectReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Reject(c.Request().Context(), c.Param("payment_id"), actor, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
