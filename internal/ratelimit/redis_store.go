package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// takeScript charges one request against a hash {count, reset}. The window
// is reset when its deadline (unix ms) has passed.
//
// KEYS[1] = window key
// ARGV[1] = limit, ARGV[2] = window ms, ARGV[3] = now ms
// Returns {allowed, count, reset_ms}.
var takeScript = redis.NewScript(`
local limit = tonumber(ARGV[1])
local size = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local reset = tonumber(redis.call('HGET', KEYS[1], 'reset') or '0')
if reset <= now then
  reset = now + size
  redis.call('HSET', KEYS[1], 'count', 0, 'reset', reset)
  redis.call('PEXPIREAT', KEYS[1], reset)
end
local count = tonumber(redis.call('HGET', KEYS[1], 'count') or '0')
if count >= limit then
  return {0, count, reset}
end
count = redis.call('HINCRBY', KEYS[1], 'count', 1)
return {1, count, reset}
`)

// refundScript decrements count only while the window ending at ARGV[1] is current.
var refundScript = redis.NewScript(`
local reset = redis.call('HGET', KEYS[1], 'reset')
if reset and tonumber(reset) == tonumber(ARGV[1]) then
  local count = tonumber(redis.call('HGET', KEYS[1], 'count') or '0')
  if count > 0 then
    redis.call('HINCRBY', KEYS[1], 'count', -1)
  end
end
return 1
`)

// RedisStore shares fixed-window counters across instances. Expired windows
// are reclaimed by Redis key expiry.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func (s *RedisStore) Take(ctx context.Context, key string, limit int, size time.Duration) (Decision, error) {
	if s.client == nil {
		return Decision{}, fmt.Errorf("redis client is nil")
	}
	res, err := takeScript.Run(ctx, s.client, []string{redisKeyPrefix + key},
		limit, size.Milliseconds(), s.now().UnixMilli()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit take: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("rate limit take: unexpected reply %v", res)
	}

	count := int(res[1])
	d := Decision{
		Allowed: res[0] == 1,
		Limit:   limit,
		Count:   count,
		ResetAt: time.UnixMilli(res[2]),
	}
	if d.Allowed {
		d.Remaining = limit - count
	}
	return d, nil
}

func (s *RedisStore) Refund(ctx context.Context, key string, resetAt time.Time) error {
	if s.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := refundScript.Run(ctx, s.client, []string{redisKeyPrefix + key}, resetAt.UnixMilli()).Err(); err != nil {
		return fmt.Errorf("rate limit refund: %w", err)
	}
	return nil
}
