// Package config loads typed configuration structs from environment variables
// with github.com/caarlos0/env/v11, after reading an optional .env file with
// github.com/joho/godotenv.
//
// Every package of the service declares its own Config struct with env tags
// (TOTP_PERIOD, SECOND_FACTOR_ISSUER, PG_CONN_URL and so on); the daemon loads
// each one with Load:
//
//	var totpCfg totp.Config
//	config.MustLoad(&totpCfg)
//
// Parsed values are cached per type. ResetCache clears the cache in tests.
package config
