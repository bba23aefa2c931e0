package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/seeds-admin/internal/order"
)

const maxUpdateAttempts = 5

// ErrConflict is returned when a cart kept changing underneath an update.
var ErrConflict = errors.New("cart: concurrent modification")

// Cart is the working set of lines for one admin user.
type Cart struct {
	UserID    string           `json:"userId"`
	Items     []order.CartItem `json:"items"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Store persists carts.
type Store interface {
	Load(ctx context.Context, userID string) (Cart, error)
	Update(ctx context.Context, userID string, fn func(*Cart) error) (Cart, error)
	Delete(ctx context.Context, userID string) error
}

// RedisStore keeps each cart as one JSON value with a sliding TTL.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
	Now    func() time.Time
}

func (s RedisStore) key(userID string) string { return "cart:" + userID }

func (s RedisStore) ttl() time.Duration {
	if s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func (s RedisStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Load returns the stored cart or an empty one.
func (s RedisStore) Load(ctx context.Context, userID string) (Cart, error) {
	return decodeCart(s.Client.Get(ctx, s.key(userID)), userID)
}

// Update applies fn under optimistic locking and stores the result.
func (s RedisStore) Update(ctx context.Context, userID string, fn func(*Cart) error) (Cart, error) {
	key := s.key(userID)
	var out Cart
	txf := func(tx *redis.Tx) error {
		c, err := decodeCart(tx.Get(ctx, key), userID)
		if err != nil {
			return err
		}
		if err := fn(&c); err != nil {
			return err
		}
		c.UpdatedAt = s.now().UTC()
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("cart: encode: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl())
			return nil
		})
		if err == nil {
			out = c
		}
		return err
	}
	for i := 0; i < maxUpdateAttempts; i++ {
		err := s.Client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return out, err
	}
	return Cart{}, ErrConflict
}

// Delete removes the cart.
func (s RedisStore) Delete(ctx context.Context, userID string) error {
	return s.Client.Del(ctx, s.key(userID)).Err()
}

func decodeCart(cmd *redis.StringCmd, userID string) (Cart, error) {
	data, err := cmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return Cart{UserID: userID, Items: []order.CartItem{}}, nil
	}
	if err != nil {
		return Cart{}, err
	}
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return Cart{}, fmt.Errorf("cart: decode: %w", err)
	}
	if c.Items == nil {
		c.Items = []order.CartItem{}
	}
	return c, nil
}
