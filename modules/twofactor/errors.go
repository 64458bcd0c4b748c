package twofactor

import "errors"

var (
	ErrInvalidOTP        = errors.New("invalid one-time password")
	ErrSetupOTPIncorrect = errors.New("submitted one-time password was not correct")
	ErrSetupNotStarted   = errors.New("second factor setup has not been started")
	ErrSetupNotAllowed   = errors.New("second factor must be passed before adding another one")
	ErrAccountRequired   = errors.New("account is required")
	ErrTooManyAttempts   = errors.New("too many one-time password attempts")
)
