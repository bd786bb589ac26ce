package support

import (
	"context"

	"microlend-backend/internal/domain/notify"
	"microlend-backend/internal/infrastructure/metrics"

	"go.uber.org/zap"
)

// Effects dispatches post-commit side effects. Every failure is logged and
// counted, never returned.
type Effects struct {
	sms      notify.SMSSender
	notifier notify.Notifier
	activity notify.ActivityLogger
	log      *zap.Logger
}

// NewEffects accepts nil for any port and substitutes a no-op.
func NewEffects(sms notify.SMSSender, n notify.Notifier, a notify.ActivityLogger, log *zap.Logger) *Effects {
	if sms == nil {
		sms = notify.Nop{}
	}
	if n == nil {
		n = notify.Nop{}
	}
	if a == nil {
		a = notify.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Effects{sms: sms, notifier: n, activity: a, log: log}
}

// NopEffects discards everything.
func NopEffects() *Effects { return NewEffects(nil, nil, nil, nil) }

func (e *Effects) SMS(ctx context.Context, phone, body, userID string) {
	if phone == "" {
		e.log.Debug("sms skipped: no phone", zap.String("user_id", userID))
		return
	}
	if err := e.sms.SendSMS(ctx, phone, body, userID); err != nil {
		e.failed("sms", err, zap.String("user_id", userID))
	}
}

func (e *Effects) Notify(ctx context.Context, userIDs []string, n notify.Notification) {
	if len(userIDs) == 0 {
		return
	}
	if err := e.notifier.NotifyUsers(ctx, userIDs, n); err != nil {
		e.failed("notification", err, zap.String("type", n.Type), zap.Int("recipients", len(userIDs)))
	}
}

func (e *Effects) Activity(ctx context.Context, a notify.Activity) {
	if err := e.activity.LogActivity(ctx, a); err != nil {
		e.failed("activity", err, zap.String("action", a.Action), zap.String("entity_id", a.EntityID))
	}
}

func (e *Effects) failed(kind string, err error, fields ...zap.Field) {
	metrics.SideEffectFailures.WithLabelValues(kind).Inc()
	e.log.Warn("side effect failed", append(fields, zap.String("kind", kind), zap.Error(err))...)
}
