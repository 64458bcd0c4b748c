package totp

// Config holds engine parameters loaded from the environment.
type Config struct {
	Period uint32 `env:"TOTP_PERIOD" envDefault:"30"` // Step size in seconds
	Digits uint8  `env:"TOTP_DIGITS" envDefault:"6"`  // Code length
	Skew   uint32 `env:"TOTP_SKEW" envDefault:"1"`    // Accepted steps either side of now
}

// DefaultConfig returns the RFC 6238 defaults.
func DefaultConfig() Config {
	return Config{
		Period: DefaultPeriod,
		Digits: DefaultDigits,
		Skew:   DefaultSkew,
	}
}

// Options converts the config into engine options. A zero period or digit count
// falls back to the default; a zero skew means exact-step matching.
func (c Config) Options() []Option {
	opts := make([]Option, 0, 3)
	if c.Period != 0 {
		opts = append(opts, WithPeriod(c.Period))
	}
	if c.Digits != 0 {
		opts = append(opts, WithDigits(c.Digits))
	}
	opts = append(opts, WithSkew(c.Skew))
	return opts
}

// Validate reports ErrInvalidParameters for out-of-range values.
func (c Config) Validate() error {
	_, err := newParams(c.Options())
	return err
}
