package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// FixedWindow adapts a ulule limiter to Limiter.
type FixedWindow struct {
	L *limiter.Limiter
}

// NewFixedWindow parses a rate such as "60-M" and binds it to store. A nil
// store uses process memory.
func NewFixedWindow(rate string, store limiter.Store) (*FixedWindow, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse rate %q: %w", rate, err)
	}
	if store == nil {
		store = memory.NewStore()
	}
	return &FixedWindow{L: limiter.New(store, r)}, nil
}

// NewRedisStore shares counters between API replicas.
func NewRedisStore(rdb *redis.Client) (limiter.Store, error) {
	return limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{
		Prefix:   "ratelimit",
		MaxRetry: 3,
	})
}

// Allow implements Limiter.
func (f *FixedWindow) Allow(ctx context.Context, key string) (Decision, error) {
	c, err := f.L.Get(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:   !c.Reached,
		Limit:     int(c.Limit),
		Remaining: int(c.Remaining),
		Reset:     time.Unix(c.Reset, 0),
	}, nil
}
