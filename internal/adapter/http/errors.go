package http

import (
	"net/http"
	"strings"

	"microlend-backend/internal/adapter/middleware"
	"microlend-backend/internal/domain/errs"

	"github.com/labstack/echo/v4"
)

var kindStatus = map[errs.Kind]int{
	errs.KindUnauthorized:         http.StatusForbidden,
	errs.KindNotFound:             http.StatusNotFound,
	errs.KindInvalidAmount:        http.StatusUnprocessableEntity,
	errs.KindAmountExceeded:       http.StatusUnprocessableEntity,
	errs.KindValidation:           http.StatusUnprocessableEntity,
	errs.KindInvalidDuration:      http.StatusUnprocessableEntity,
	errs.KindInterestRateNotFound: http.StatusUnprocessableEntity,
	errs.KindTermAlreadyPaid:      http.StatusConflict,
	errs.KindAlreadyProcessed:     http.StatusConflict,
	errs.KindLoanAlreadyExists:    http.StatusConflict,
}

// writeError maps business errors to their status; anything else is a 500
// with a generic body.
func writeError(c echo.Context, err error) error {
	kind, ok := errs.KindOf(err)
	if !ok {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusBadRequest
	}
	return c.JSON(status, ErrorResponse{Error: err.Error(), Code: string(kind)})
}

// bindAndValidate writes the 400/422 response itself and reports false when
// the request should stop.
func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Code:    string(errs.KindValidation),
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}

// actorID is the acting user from the Ax-User-Id header.
func actorID(c echo.Context) string {
	return strings.TrimSpace(c.Request().Header.Get(middleware.HeaderUserID))
}

func requireActor(c echo.Context) (string, error) {
	id := actorID(c)
	if id == "" {
		return "", c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing Ax-User-Id", Code: string(errs.KindUnauthorized)})
	}
	return id, nil
}
