package notifymock

import (
	"context"
	"sync"

	"microlend-backend/internal/domain/notify"
)

type SMS struct {
	Phone, Body, UserID string
}

type Sent struct {
	UserIDs      []string
	Notification notify.Notification
}

// Recorder captures every side effect. Set Err to make all calls fail.
type Recorder struct {
	mu         sync.Mutex
	Err        error
	SMS        []SMS
	Notified   []Sent
	Activities []notify.Activity
}

func (r *Recorder) SendSMS(_ context.Context, phone, body, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SMS = append(r.SMS, SMS{Phone: phone, Body: body, UserID: userID})
	return r.Err
}

func (r *Recorder) NotifyUsers(_ context.Context, userIDs []string, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Notified = append(r.Notified, Sent{UserIDs: append([]string(nil), userIDs...), Notification: n})
	return r.Err
}

func (r *Recorder) LogActivity(_ context.Context, a notify.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Activities = append(r.Activities, a)
	return r.Err
}

// Actions lists recorded activity actions in order.
func (r *Recorder) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Activities))
	for _, a := range r.Activities {
		out = append(out, a.Action)
	}
	return out
}

func (r *Recorder) SMSCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.SMS)
}
