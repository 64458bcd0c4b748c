package session

import "time"

// Config holds session lifetimes. Anonymous sessions exist before the primary
// login binds an account; authenticated ones after.
type Config struct {
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"sid"`

	AnonIdleTimeout time.Duration `env:"SESSION_ANON_IDLE_TIMEOUT" envDefault:"30m"`
	AnonMaxLifetime time.Duration `env:"SESSION_ANON_MAX_LIFETIME" envDefault:"24h"`

	AuthIdleTimeout time.Duration `env:"SESSION_AUTH_IDLE_TIMEOUT" envDefault:"2h"`
	AuthMaxLifetime time.Duration `env:"SESSION_AUTH_MAX_LIFETIME" envDefault:"720h"`

	// CleanupInterval applies to the memory store only; 0 disables it.
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"5m"`
}

func DefaultConfig() Config {
	return Config{
		CookieName:      "sid",
		AnonIdleTimeout: 30 * time.Minute,
		AnonMaxLifetime: 24 * time.Hour,
		AuthIdleTimeout: 2 * time.Hour,
		AuthMaxLifetime: 30 * 24 * time.Hour,
		CleanupInterval: 5 * time.Minute,
	}
}

// Timeouts returns the idle timeout and max lifetime for the session kind.
func (c Config) Timeouts(authenticated bool) (idle, lifetime time.Duration) {
	if authenticated {
		return c.AuthIdleTimeout, c.AuthMaxLifetime
	}
	return c.AnonIdleTimeout, c.AnonMaxLifetime
}

// NewFromConfig creates a Manager from cfg. A store and a cookie manager (or
// transport) still come from opts.
func NewFromConfig(cfg Config, opts ...Option) *Manager {
	return New(append([]Option{WithConfig(cfg)}, opts...)...)
}
