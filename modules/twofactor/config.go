package twofactor

// Config holds the HTTP flow settings.
type Config struct {
	Issuer          string `env:"SECOND_FACTOR_ISSUER" envDefault:"twofactor"`
	DefaultRedirect string `env:"SECOND_FACTOR_DEFAULT_REDIRECT" envDefault:"/"`
	ChallengePath   string `env:"SECOND_FACTOR_CHALLENGE_PATH" envDefault:"/second-factor"`
	SetupPath       string `env:"SECOND_FACTOR_SETUP_PATH" envDefault:"/second-factor/setup"`
	QRCodeSize      int    `env:"SECOND_FACTOR_QR_SIZE" envDefault:"256"`
}

// DefaultConfig returns the configuration used when no environment is loaded.
func DefaultConfig() Config {
	return Config{
		Issuer:          "twofactor",
		DefaultRedirect: "/",
		ChallengePath:   "/second-factor",
		SetupPath:       "/second-factor/setup",
		QRCodeSize:      256,
	}
}
