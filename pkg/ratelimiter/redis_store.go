package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// takeScript refills and consumes a bucket stored as a hash
// {tokens, refilled_at}. It returns {allowed, remaining, refilled_at}.
var takeScript = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local interval = tonumber(ARGV[3])
local n = tonumber(ARGV[4])
local now = tonumber(ARGV[5])
local ttl = tonumber(ARGV[6])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'refilled_at')
local tokens = tonumber(state[1])
local refilled = tonumber(state[2])
if tokens == nil or refilled == nil then
	tokens = capacity
	refilled = now
end

local elapsed = now - refilled
if elapsed >= interval then
	local intervals = math.min(math.floor(elapsed / interval), math.floor(capacity / rate) + 1)
	tokens = math.min(tokens + intervals * rate, capacity)
	refilled = now
end

local allowed = 0
if tokens >= n then
	tokens = tokens - n
	allowed = 1
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'refilled_at', refilled)
redis.call('PEXPIRE', KEYS[1], ttl)
return {allowed, tokens, refilled}
`)

// RedisStore implements Store on Redis so every instance shares the buckets.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Take(ctx context.Context, key string, n int, now time.Time, cfg Config) (Result, error) {
	vals, err := takeScript.Run(ctx, s.client, []string{key},
		cfg.Capacity,
		cfg.RefillRate,
		cfg.RefillInterval.Milliseconds(),
		n,
		now.UnixMilli(),
		(cfg.fullAfter() + cfg.RefillInterval).Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("redis take tokens: %w", err)
	}
	if len(vals) != 3 {
		return Result{}, fmt.Errorf("redis take tokens: unexpected reply of %d values", len(vals))
	}

	return Result{
		Allowed:   vals[0] == 1,
		Limit:     cfg.Capacity,
		Remaining: int(vals[1]),
		ResetAt:   time.UnixMilli(vals[2]).Add(cfg.RefillInterval),
	}, nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
