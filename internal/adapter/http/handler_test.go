package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

type healthBody struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
	Time         string            `json:"time"`
}

func checkHealth(t *testing.T, h *Handler) (int, healthBody) {
	t.Helper()
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)
	if err := h.Health(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var body healthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v; raw=%s", err, rec.Body.String())
	}
	return rec.Code, body
}

func up(context.Context) error { return nil }

func TestHealth(t *testing.T) {
	refused := func(context.Context) error { return errors.New("connection refused") }

	cases := []struct {
		name     string
		checks   []Check
		wantCode int
		want     healthBody
	}{
		{"no dependencies", nil, http.StatusOK, healthBody{Status: "ok", Dependencies: map[string]string{}}},
		{"all up", []Check{{"mysql", up}, {"redis", up}}, http.StatusOK,
			healthBody{Status: "ok", Dependencies: map[string]string{"mysql": "ok", "redis": "ok"}}},
		{"redis down", []Check{{"mysql", up}, {"redis", refused}}, http.StatusServiceUnavailable,
			healthBody{Status: "degraded", Dependencies: map[string]string{"mysql": "ok", "redis": "connection refused"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start := time.Now().UTC().Add(-time.Second)
			code, body := checkHealth(t, NewHandler(tc.checks...))
			if code != tc.wantCode || body.Status != tc.want.Status {
				t.Fatalf("got %d %q, want %d %q", code, body.Status, tc.wantCode, tc.want.Status)
			}
			if len(body.Dependencies) != len(tc.want.Dependencies) {
				t.Fatalf("dependencies = %v", body.Dependencies)
			}
			for k, v := range tc.want.Dependencies {
				if body.Dependencies[k] != v {
					t.Fatalf("%s = %q, want %q", k, body.Dependencies[k], v)
				}
			}
			ts, err := time.Parse(time.RFC3339Nano, body.Time)
			if err != nil || ts.Location() != time.UTC || ts.Before(start) {
				t.Fatalf("time %q err=%v", body.Time, err)
			}
		})
	}
}

func TestHealth_ChecksShareDeadline(t *testing.T) {
	var deadline bool
	h := NewHandler(Check{Name: "mysql", Ping: func(ctx context.Context) error {
		_, deadline = ctx.Deadline()
		return nil
	}})
	if code, _ := checkHealth(t, h); code != http.StatusOK || !deadline {
		t.Fatalf("code=%d deadline=%v", code, deadline)
	}
}
