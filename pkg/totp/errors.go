package totp

import "errors"

var (
	ErrFailedToGenerateSecret = errors.New("failed to generate TOTP secret")
	ErrInvalidSecret          = errors.New("invalid secret")
	ErrInvalidParameters      = errors.New("invalid TOTP parameters")
	ErrInvalidTimestamp       = errors.New("timestamp before unix epoch")
	ErrMissingAccountName     = errors.New("missing account name")
	ErrMissingIssuer          = errors.New("missing issuer")
)
