package redis

import (
	"context"
	"time"
)

const (
	dailyCounterLayout = "20060102"
	dailyCounterTTL    = 48 * time.Hour
)

// FixedWindowAllow counts one hit against scope and reports whether it is within limit
// for the current window.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	count, err := c.incrExpiring(ctx, c.RateLimitKey(scope), window)
	if err != nil {
		return false, 0, err
	}
	return count <= limit, count, nil
}

// NextDailySequence returns the next value of a counter that restarts every UTC day.
// Day keys expire after two days.
func (c *Client) NextDailySequence(ctx context.Context, name string, day time.Time) (int64, error) {
	return c.incrExpiring(ctx, c.CounterKey(name+":"+day.UTC().Format(dailyCounterLayout)), dailyCounterTTL)
}

// incrExpiring increments key and starts its TTL on the first hit only, so the window
// is anchored at the first request.
func (c *Client) incrExpiring(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if c.store == nil {
		return 0, errNotInitialized
	}
	count, err := c.store.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if ttl > 0 && count == 1 {
		if err := c.store.Expire(ctx, key, ttl).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}
