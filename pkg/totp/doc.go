// Package totp implements Time-based One-Time Passwords (RFC 6238) on top of
// HOTP (RFC 4226): secret generation, code computation, windowed verification
// and otpauth provisioning URIs for authenticator apps.
//
// The package is pure computation. It performs no I/O, keeps no state and is
// safe for concurrent use.
//
// # Usage
//
//	secret, _ := totp.GenerateSecret()
//
//	uri, _ := totp.ProvisioningURI("alice@example.com", secret, "Acme")
//	// render uri as a QR code
//
//	ok, err := totp.VerifyCode(secret, submitted, time.Now())
//	if err != nil {
//	    // ErrInvalidSecret or ErrInvalidParameters: configuration problem
//	}
//
// Codes default to 6 digits with a 30 second step and a skew of one step in
// each direction; WithDigits, WithPeriod and WithSkew override them. Submitted
// codes are compared in constant time against every step in the window.
//
// VerifyCode does not remember accepted codes, so a valid code can be replayed
// until its window closes. MatchStep returns the matched step for callers that
// want to reject reuse.
//
// # Error Handling
//
// Malformed secrets fail with ErrInvalidSecret, unsupported digits, period or
// skew with ErrInvalidParameters. A wrong code is not an error: it is reported
// as false.
package totp
