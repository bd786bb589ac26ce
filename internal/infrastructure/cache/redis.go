package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

func OpenRedis(addr string, db int) (*redis.Client, error) {
	r := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return r, nil
}

// Marker records "already done" flags with an expiry.
type Marker struct {
	rdb    *redis.Client
	prefix string
}

func NewMarker(rdb *redis.Client, prefix string) *Marker {
	return &Marker{rdb: rdb, prefix: prefix}
}

// Once sets key if absent and reports whether this caller set it.
func (m *Marker) Once(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return m.rdb.SetNX(ctx, m.prefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

// Clear removes key so a later Once succeeds again.
func (m *Marker) Clear(ctx context.Context, key string) error {
	return m.rdb.Del(ctx, m.prefix+key).Err()
}
