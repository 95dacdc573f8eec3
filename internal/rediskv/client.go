package rediskv

import (
	"context"
	"math"
	"time"

	"github.com/go-redis/redis/v8"
)

// retryAttempts bounds the exponential backoff on transient errors, per
// spec.md §4.9 ("retries transient errors with exponential backoff
// (bounded attempts)").
const retryAttempts = 4

// Client wraps a go-redis client with the validator and retry policy
// spec.md §4.9 requires of every operation, matching the teacher's
// manager.go field shape (a single *redis.Client reached through every
// helper) generalized into typed per-structure wrappers.
type Client struct {
	rdb *redis.Client
	val *Validator
}

// New wraps an existing go-redis client.
func New(rdb *redis.Client) *Client {
	return &Client{rdb: rdb, val: NewValidator()}
}

func withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		err = fn()
		if err == nil || !isTransient(err) {
			return err
		}
		backoff := time.Duration(math.Pow(2, float64(attempt))) * 20 * time.Millisecond
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func isTransient(err error) bool {
	return err != nil && err != redis.Nil
}

// --- Hash ---

// HSet validates key/field/value then sets one hash field.
func (c *Client) HSet(ctx context.Context, key, field string, value string) error {
	if err := c.val.Key(key); err != nil {
		return err
	}
	if err := c.val.Field(field); err != nil {
		return err
	}
	if err := c.val.Value([]byte(value)); err != nil {
		return err
	}
	return withRetry(ctx, func() error { return c.rdb.HSet(ctx, key, field, value).Err() })
}

// HGet reads one hash field.
func (c *Client) HGet(ctx context.Context, key, field string) (string, error) {
	if err := c.val.Key(key); err != nil {
		return "", err
	}
	var out string
	err := withRetry(ctx, func() error {
		v, err := c.rdb.HGet(ctx, key, field).Result()
		out = v
		return err
	})
	return out, err
}

// HGetAll reads every field of key.
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if err := c.val.Key(key); err != nil {
		return nil, err
	}
	var out map[string]string
	err := withRetry(ctx, func() error {
		v, err := c.rdb.HGetAll(ctx, key).Result()
		out = v
		return err
	})
	return out, err
}

// HDel removes hash fields.
func (c *Client) HDel(ctx context.Context, key string, fields ...string) error {
	if err := c.val.Key(key); err != nil {
		return err
	}
	return withRetry(ctx, func() error { return c.rdb.HDel(ctx, key, fields...).Err() })
}

// --- Sorted set (room:list:time:index etc.) ---

// ZAdd adds one scored member, per spec.md §6's room index layout.
func (c *Client) ZAdd(ctx context.Context, key string, score float64, member string) error {
	if err := c.val.Key(key); err != nil {
		return err
	}
	return withRetry(ctx, func() error {
		return c.rdb.ZAdd(ctx, key, &redis.Z{Score: score, Member: member}).Err()
	})
}

// ZRange returns members in score order within [start, stop].
func (c *Client) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	if err := c.val.Key(key); err != nil {
		return nil, err
	}
	var out []string
	err := withRetry(ctx, func() error {
		v, err := c.rdb.ZRange(ctx, key, start, stop).Result()
		out = v
		return err
	})
	return out, err
}

// ZRem removes a member from a sorted set.
func (c *Client) ZRem(ctx context.Context, key, member string) error {
	if err := c.val.Key(key); err != nil {
		return err
	}
	return withRetry(ctx, func() error { return c.rdb.ZRem(ctx, key, member).Err() })
}

// --- List ---

// LPush pushes a value onto the head of a list (e.g. a free-id pool).
func (c *Client) LPush(ctx context.Context, key string, value string) error {
	if err := c.val.Key(key); err != nil {
		return err
	}
	return withRetry(ctx, func() error { return c.rdb.LPush(ctx, key, value).Err() })
}

// RPop pops a value from the tail of a list.
func (c *Client) RPop(ctx context.Context, key string) (string, error) {
	if err := c.val.Key(key); err != nil {
		return "", err
	}
	var out string
	err := withRetry(ctx, func() error {
		v, err := c.rdb.RPop(ctx, key).Result()
		out = v
		return err
	})
	return out, err
}

// --- Geo (player/room world-position lookups) ---

// GeoAdd records a named point's longitude/latitude.
func (c *Client) GeoAdd(ctx context.Context, key, member string, lon, lat float64) error {
	if err := c.val.Key(key); err != nil {
		return err
	}
	return withRetry(ctx, func() error {
		return c.rdb.GeoAdd(ctx, key, &redis.GeoLocation{Name: member, Longitude: lon, Latitude: lat}).Err()
	})
}

// GeoSearchByRadius returns members within radiusMeters of (lon, lat).
func (c *Client) GeoSearchByRadius(ctx context.Context, key string, lon, lat, radiusMeters float64) ([]string, error) {
	if err := c.val.Key(key); err != nil {
		return nil, err
	}
	var out []string
	err := withRetry(ctx, func() error {
		v, err := c.rdb.GeoSearch(ctx, key, &redis.GeoSearchQuery{
			Longitude: lon, Latitude: lat, Radius: radiusMeters, RadiusUnit: "m",
		}).Result()
		out = v
		return err
	})
	return out, err
}

// --- Pipelined atomic compound operations ---

// SetWithTTLRenewal performs the primary HSet plus a TTL renewal on key
// atomically via a single pipeline, per spec.md §4.9.
func (c *Client) SetWithTTLRenewal(ctx context.Context, key, field, value string, ttl time.Duration) error {
	if err := c.val.Key(key); err != nil {
		return err
	}
	if err := c.val.Field(field); err != nil {
		return err
	}
	return withRetry(ctx, func() error {
		pipe := c.rdb.TxPipeline()
		pipe.HSet(ctx, key, field, value)
		pipe.Expire(ctx, key, ttl)
		_, err := pipe.Exec(ctx)
		return err
	})
}

// DecrementThenDeleteIfZero atomically decrements a counter and deletes
// the key if it reaches zero, the compound op spec.md §4.9 names
// explicitly (e.g. a room's remaining-slot counter hitting zero).
func (c *Client) DecrementThenDeleteIfZero(ctx context.Context, key string, by int64) (int64, error) {
	if err := c.val.Key(key); err != nil {
		return 0, err
	}
	var remaining int64
	err := withRetry(ctx, func() error {
		newVal, err := c.rdb.DecrBy(ctx, key, by).Result()
		if err != nil {
			return err
		}
		remaining = newVal
		if newVal <= 0 {
			return c.rdb.Del(ctx, key).Err()
		}
		return nil
	})
	return remaining, err
}

// Ping validates connectivity; used at startup and by the monitoring
// toggle's health probe.
func (c *Client) Ping(ctx context.Context) error {
	return withRetry(ctx, func() error { return c.rdb.Ping(ctx).Err() })
}
