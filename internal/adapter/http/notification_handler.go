package http

import (
	"context"
	"net/http"
	"strconv"

	notifyadp "microlend-backend/internal/adapter/notify"

	"github.com/labstack/echo/v4"
)

const (
	defaultInboxLimit = 20
	maxInboxLimit     = 100
)

type Inbox interface {
	Unread(ctx context.Context, userID string, limit int) ([]notifyadp.Notification, error)
}

type NotificationHandler struct{ inbox Inbox }

func NewNotificationHandler(inbox Inbox) *NotificationHandler {
	return &NotificationHandler{inbox: inbox}
}

// Unread lists the acting user's unread in-app notifications, newest first.
// ?limit= caps the page (default 20, at most 100).
func (h *NotificationHandler) Unread(c echo.Context) error {
	actor, err := requireActor(c)
	if actor == "" {
		return err
	}
	limit := defaultInboxLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxInboxLimit {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid request",
				Details: []FieldError{{Field: "limit", Message: "must be between 1 and 100"}},
			})
		}
		limit = n
	}
	items, err := h.inbox.Unread(c.Request().Context(), actor, limit)
	if err != nil {
		return writeError(c, err)
	}
	if items == nil {
		items = []notifyadp.Notification{}
	}
	return c.JSON(http.StatusOK, map[string]any{"notifications": items})
}
