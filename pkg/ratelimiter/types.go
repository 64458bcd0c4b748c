package ratelimiter

import "time"

// Result is the outcome of a single attempt.
type Result struct {
	Allowed   bool
	Limit     int       // bucket capacity
	Remaining int       // attempts left after this one
	ResetAt   time.Time // next refill
}

// RetryAfter returns how long a rejected caller should wait, relative to now.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed || !r.ResetAt.After(now) {
		return 0
	}
	return r.ResetAt.Sub(now)
}

// Config is the token bucket shape: Capacity attempts at most, RefillRate of
// them returned every RefillInterval.
type Config struct {
	Enabled        bool          `env:"SECOND_FACTOR_ATTEMPT_LIMIT" envDefault:"true"`
	Capacity       int           `env:"SECOND_FACTOR_ATTEMPT_CAPACITY" envDefault:"5"`
	RefillRate     int           `env:"SECOND_FACTOR_ATTEMPT_REFILL_RATE" envDefault:"1"`
	RefillInterval time.Duration `env:"SECOND_FACTOR_ATTEMPT_REFILL_INTERVAL" envDefault:"1m"`
	KeyPrefix      string        `env:"SECOND_FACTOR_ATTEMPT_KEY_PREFIX" envDefault:"second_factor:attempts:"`
}

// fullAfter is how long an emptied bucket takes to refill completely.
func (c Config) fullAfter() time.Duration {
	intervals := (c.Capacity + c.RefillRate - 1) / c.RefillRate
	return time.Duration(intervals) * c.RefillInterval
}
