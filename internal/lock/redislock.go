// Package lock provides a Redis mutex keyed by name.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the lock is still held by someone else after Wait.
var ErrNotAcquired = errors.New("lock: not acquired")

var releaseScript = redis.NewScript(`if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0`)

// Redis is a SET NX lock. TTL bounds how long a crashed holder blocks others.
type Redis struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration
	Wait   time.Duration
	Retry  time.Duration
}

// Do runs fn while holding the lock named key. The lock is released only if
// this caller still owns it.
func (l Redis) Do(ctx context.Context, key string, fn func(context.Context) error) error {
	if l.Client == nil {
		return errors.New("lock: redis client not configured")
	}
	ttl := l.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	retry := l.Retry
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	name := key
	if l.Prefix != "" {
		name = l.Prefix + ":" + key
	}
	token := uuid.NewString()
	deadline := time.Now().Add(l.Wait)

	for {
		acquired, err := l.Client.SetNX(ctx, name, token, ttl).Result()
		if err != nil {
			return err
		}
		if acquired {
			break
		}
		if !time.Now().Before(deadline) {
			return ErrNotAcquired
		}
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	defer func() {
		_ = releaseScript.Run(context.WithoutCancel(ctx), l.Client, []string{name}, token).Err()
	}()
	return fn(ctx)
}
