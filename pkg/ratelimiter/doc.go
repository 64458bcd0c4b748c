// Package ratelimiter throttles repeated attempts per key with a token bucket.
//
// It guards one-time password endpoints against guessing: a 6-digit code has a
// million values, so every account gets a small bucket of attempts that
// refills slowly and is reset after a successful verification.
//
// A bucket holds at most Capacity tokens and regains RefillRate tokens every
// RefillInterval. A rejected attempt consumes nothing, so a locked-out caller
// gets an attempt back after the next refill.
//
// # Usage
//
//	store := ratelimiter.NewMemoryStore()
//	defer store.Close()
//
//	limiter, err := ratelimiter.New(store, ratelimiter.Config{
//		Capacity:       5,
//		RefillRate:     1,
//		RefillInterval: time.Minute,
//	})
//	if err != nil {
//		return err
//	}
//
//	res, err := limiter.Allow(ctx, accountID)
//	if err != nil {
//		return err
//	}
//	if !res.Allowed {
//		w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter(time.Now()).Seconds())))
//		// 429
//	}
//
// # Storage
//
// MemoryStore keeps buckets in process memory and drops idle ones in the
// background. RedisStore keeps them in Redis hashes updated by a Lua script, so
// all instances behind a load balancer share one budget per key.
package ratelimiter
