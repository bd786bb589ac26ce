// Package notify implements the side-effect ports: an SMS outbox on redis,
// in-app notifications in MySQL and an activity log in MongoDB or zap.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// OutboxMessage is the JSON pushed to the SMS queue for the gateway worker.
type OutboxMessage struct {
	UserID   string    `json:"user_id"`
	Phone    string    `json:"phone"`
	Body     string    `json:"body"`
	QueuedAt time.Time `json:"queued_at"`
}

// SMSOutbox queues messages with LPUSH; a gateway worker drains the list
// with BRPOP.
type SMSOutbox struct {
	rdb *redis.Client
	key string
}

func NewSMSOutbox(rdb *redis.Client, key string) *SMSOutbox {
	return &SMSOutbox{rdb: rdb, key: key}
}

func (o *SMSOutbox) SendSMS(ctx context.Context, phone, body, userID string) error {
	b, err := json.Marshal(OutboxMessage{UserID: userID, Phone: phone, Body: body, QueuedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return o.rdb.LPush(ctx, o.key, b).Err()
}
