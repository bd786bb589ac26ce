package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"microlend-backend/internal/infrastructure/metrics"
	pid "microlend-backend/pkg/id"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// lifetime of the in-progress marker if the handler never finishes
	provisionalLockTTL = 60 * time.Second
	// accepted distance between Ax-Request-At and server time
	maxClockSkew = 10 * time.Minute
	storeTimeout = 2 * time.Second

	HeaderUserID    = "Ax-User-Id"
	HeaderRequestID = "Ax-Request-Id"
	HeaderRequestAt = "Ax-Request-At"
)

type idempEntry struct {
	InProgress  bool      `json:"in_progress"`
	Code        int       `json:"code"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	RequestID   string    `json:"request_id"`
	RequestAtMS int64     `json:"request_at_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// replayable reports whether e holds a finished response.
func (e idempEntry) replayable() bool { return !e.InProgress && e.Code != 0 && len(e.Body) > 0 }

// requestHeaders are the validated idempotency headers of one request.
type requestHeaders struct {
	requestID string
	requestAt time.Time
	userID    string
}

// readHeaders validates the three Ax-* headers against now.
func readHeaders(h http.Header, now time.Time) (requestHeaders, string) {
	var out requestHeaders
	out.requestID = strings.TrimSpace(h.Get(HeaderRequestID))
	switch {
	case out.requestID == "":
		return out, "missing " + HeaderRequestID
	case !validReqID(out.requestID):
		return out, "invalid " + HeaderRequestID + " format"
	}

	at, err := parseAxRequestAt(h.Get(HeaderRequestAt))
	if err != nil {
		return out, err.Error()
	}
	if at.Before(now.Add(-maxClockSkew)) || at.After(now.Add(maxClockSkew)) {
		return out, HeaderRequestAt + " too skewed"
	}
	out.requestAt = at

	out.userID = strings.TrimSpace(h.Get(HeaderUserID))
	switch {
	case out.userID == "":
		return out, "missing " + HeaderUserID
	case !pid.Valid(out.userID):
		return out, "invalid " + HeaderUserID
	}
	return out, ""
}

type respRecorder struct {
	w    http.ResponseWriter
	buf  *bytes.Buffer
	code int
}

func (r *respRecorder) Header() http.Header { return r.w.Header() }
func (r *respRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.w.Write(b)
}
func (r *respRecorder) WriteHeader(statusCode int) { r.code = statusCode; r.w.WriteHeader(statusCode) }

type guard struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func errJSON(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

// IdempotencyMiddleware makes mutating requests safe to retry. Each request
// is keyed on method, route, Ax-User-Id and Ax-Request-Id; a retry with the
// same key and body replays the stored response. Ax-Request-At must be epoch
// seconds/millis or RFC 3339 with a zone. Server errors (5xx) are not
// stored, so a client may retry them with the same id.
func IdempotencyMiddleware(rdb *redis.Client, ttl time.Duration, log *zap.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	g := &guard{rdb: rdb, ttl: ttl, log: log.Named("idempotency")}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}
			return g.handle(c, next)
		}
	}
}

func (g *guard) handle(c echo.Context, next echo.HandlerFunc) error {
	req := c.Request()
	hdr, problem := readHeaders(req.Header, nowUTC())
	if problem != "" {
		return errJSON(c, http.StatusBadRequest, problem)
	}

	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}
	req.Body = io.NopCloser(bytes.NewBuffer(body))
	hash := bodyHash(body)

	key := buildKey(req.Method, c.Path(), hdr.userID, hdr.requestID)
	ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
	defer cancel()

	ok, err := provisionalSet(ctx, g.rdb, key, idempEntry{
		InProgress:  true,
		BodySHA256:  hash,
		RequestID:   hdr.requestID,
		RequestAtMS: hdr.requestAt.UnixMilli(),
		CreatedAt:   nowUTC(),
	})
	if err != nil {
		g.log.Error("reserve key", zap.String("key", key), zap.Error(err))
		metrics.Idempotency.WithLabelValues("unavailable").Inc()
		return errJSON(c, http.StatusServiceUnavailable, "idempotency store unavailable")
	}
	if !ok {
		return g.existing(ctx, c, key, hash)
	}

	rec := &respRecorder{w: c.Response().Writer, buf: &bytes.Buffer{}, code: http.StatusOK}
	c.Response().Writer = rec
	if err := next(c); err != nil {
		c.Error(err)
	}

	// the request context may already be gone once the handler returns
	if rec.code >= http.StatusInternalServerError {
		if err := dropEntry(context.Background(), g.rdb, key); err != nil {
			g.log.Warn("drop entry", zap.String("key", key), zap.Error(err))
		}
		metrics.Idempotency.WithLabelValues("dropped").Inc()
		return nil
	}
	final := idempEntry{
		Code:        rec.code,
		Body:        rec.buf.Bytes(),
		BodySHA256:  hash,
		RequestID:   hdr.requestID,
		RequestAtMS: hdr.requestAt.UnixMilli(),
		CreatedAt:   nowUTC(),
	}
	if err := saveFinal(context.Background(), g.rdb, key, final, g.ttl); err != nil {
		g.log.Warn("save entry", zap.String("key", key), zap.Error(err))
	}
	metrics.Idempotency.WithLabelValues("stored").Inc()
	return nil
}

// existing resolves a request whose key is already reserved.
func (g *guard) existing(ctx context.Context, c echo.Context, key, hash string) error {
	cur, err := loadEntry(ctx, g.rdb, key)
	if err != nil {
		g.log.Warn("load entry", zap.String("key", key), zap.Error(err))
	}
	switch {
	case cur.BodySHA256 != "" && cur.BodySHA256 != hash:
		metrics.Idempotency.WithLabelValues("conflict").Inc()
		return errJSON(c, http.StatusConflict, HeaderRequestID+" reused with different body")
	case cur.replayable():
		metrics.Idempotency.WithLabelValues("replayed").Inc()
		return c.Blob(cur.Code, echo.MIMEApplicationJSON, cur.Body)
	default:
		metrics.Idempotency.WithLabelValues("conflict").Inc()
		return errJSON(c, http.StatusConflict, "request is already in progress")
	}
}
