package secretbox

type Config struct {
	EncryptionKey string `env:"SECOND_FACTOR_ENCRYPTION_KEY,required"` // Base64-encoded 32-byte master key
}
