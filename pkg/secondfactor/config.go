package secondfactor

// Config holds the second-factor settings loaded from the environment.
type Config struct {
	ReplayProtection bool   `env:"SECOND_FACTOR_REPLAY_PROTECTION" envDefault:"true"`                  // Reject codes of an already used step
	ReplayKeyPrefix  string `env:"SECOND_FACTOR_REPLAY_KEY_PREFIX" envDefault:"second_factor:replay:"` // Redis key prefix for accepted steps
}
