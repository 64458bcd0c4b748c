package secondfactor

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultReplayKeyPrefix = "second_factor:replay:"

// acceptStepScript stores ARGV[1] unless the stored step is greater or equal.
var acceptStepScript = redis.NewScript(`
local last = tonumber(redis.call('GET', KEYS[1]) or '-1')
local step = tonumber(ARGV[1])
if step <= last then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return 1
`)

// RedisReplayGuard implements ReplayGuard on Redis so every instance behind a
// load balancer sees the same accepted steps.
type RedisReplayGuard struct {
	client redis.Scripter
	prefix string
	ttl    time.Duration
}

// NewRedisReplayGuard creates a guard storing one key per account for ttl.
// An empty prefix falls back to DefaultReplayKeyPrefix.
func NewRedisReplayGuard(client redis.Scripter, prefix string, ttl time.Duration) *RedisReplayGuard {
	if prefix == "" {
		prefix = DefaultReplayKeyPrefix
	}
	return &RedisReplayGuard{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (g *RedisReplayGuard) Accept(ctx context.Context, accountID string, step int64) (bool, error) {
	res, err := acceptStepScript.Run(ctx, g.client, []string{g.prefix + accountID}, step, g.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("redis replay guard: %w", err)
	}
	return res == 1, nil
}
