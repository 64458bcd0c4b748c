package secondfactor

import "errors"

var (
	// ErrSessionNotAvailable indicates the authentication status could not be persisted to the session.
	ErrSessionNotAvailable = errors.New("second_factor.session_not_available")

	// ErrVerificationRequired indicates an attempt to authenticate without a successful verification.
	ErrVerificationRequired = errors.New("second_factor.verification_required")

	// ErrInvalidTransition indicates the status machine has no edge for the requested event.
	ErrInvalidTransition = errors.New("second_factor.invalid_transition")

	// ErrInvalidFactor indicates a factor is missing its account, kind or secret.
	ErrInvalidFactor = errors.New("second_factor.invalid_factor")

	// ErrFactorExists indicates a factor with the same ID is already stored.
	ErrFactorExists = errors.New("second_factor.already_exists")
)
