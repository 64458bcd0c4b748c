package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// SecretSize is the number of random bytes in a generated secret (160 bits, RFC 4226 recommendation).
const SecretSize = 20

var (
	// ValidateSecretKeyRegex ensures Base32 format: uppercase A-Z, digits 2-7, optional padding
	ValidateSecretKeyRegex = regexp.MustCompile("^[A-Z2-7]+=*$")

	encoding = base32.StdEncoding.WithPadding(base32.NoPadding)
)

// GenerateSecret returns a new Base32-encoded secret without padding.
// The bytes come from crypto/rand.
func GenerateSecret() (string, error) {
	secret := make([]byte, SecretSize)
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Join(ErrFailedToGenerateSecret, err)
	}
	return encoding.EncodeToString(secret), nil
}

// DecodeSecret normalizes a Base32 secret (case, whitespace, padding) and decodes it.
func DecodeSecret(secret string) ([]byte, error) {
	secret = strings.ToUpper(strings.Join(strings.Fields(secret), ""))
	if secret == "" || !ValidateSecretKeyRegex.MatchString(secret) {
		return nil, ErrInvalidSecret
	}

	key, err := encoding.DecodeString(strings.TrimRight(secret, "="))
	if err != nil {
		return nil, errors.Join(ErrInvalidSecret, err)
	}
	if len(key) == 0 {
		return nil, ErrInvalidSecret
	}
	return key, nil
}

// CanonicalSecret returns secret in the form authenticator apps expect:
// upper-case base32 without whitespace or padding.
func CanonicalSecret(secret string) (string, error) {
	key, err := DecodeSecret(secret)
	if err != nil {
		return "", err
	}
	return encoding.EncodeToString(key), nil
}

// Counter returns floor(unix(t) / period).
func Counter(t time.Time, period uint32) (int64, error) {
	if period == 0 {
		return 0, errors.Join(ErrInvalidParameters, errors.New("period must be positive"))
	}
	unix := t.Unix()
	if unix < 0 {
		return 0, ErrInvalidTimestamp
	}
	return unix / int64(period), nil
}

// HOTP implements RFC 4226: HMAC-SHA1 over the big-endian counter followed by
// dynamic truncation to the requested number of zero-padded digits.
func HOTP(key []byte, counter uint64, digits int) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	// Dynamic truncation: low nibble of the last byte selects a 31-bit window
	offset := sum[len(sum)-1] & 0x0f
	code := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	mod := uint32(1)
	for range digits {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", digits, code%mod)
}

// ComputeCode derives the code for the step containing t.
func ComputeCode(secret string, t time.Time, opts ...Option) (string, error) {
	p, err := newParams(opts)
	if err != nil {
		return "", err
	}

	key, err := DecodeSecret(secret)
	if err != nil {
		return "", err
	}

	counter, err := Counter(t, p.period)
	if err != nil {
		return "", err
	}

	return HOTP(key, uint64(counter), int(p.digits)), nil
}

// VerifyCode reports whether code matches the step containing t or any step
// within the configured skew. Malformed codes are a plain mismatch.
//
// Replay of a valid code inside its window is not prevented here; callers that
// need it track the step returned by MatchStep.
func VerifyCode(secret, code string, t time.Time, opts ...Option) (bool, error) {
	_, ok, err := MatchStep(secret, code, t, opts...)
	return ok, err
}

// MatchStep is VerifyCode that also returns the counter value the code matched.
// Every step in the window is compared in constant time; there is no early exit.
func MatchStep(secret, code string, t time.Time, opts ...Option) (int64, bool, error) {
	p, err := newParams(opts)
	if err != nil {
		return 0, false, err
	}

	key, err := DecodeSecret(secret)
	if err != nil {
		return 0, false, err
	}

	counter, err := Counter(t, p.period)
	if err != nil {
		return 0, false, err
	}

	code = strings.TrimSpace(code)
	if !isNumeric(code, int(p.digits)) {
		return 0, false, nil
	}

	var (
		matched int
		step    int64
	)
	submitted := []byte(code)
	skew := int64(p.skew)
	for i := -skew; i <= skew; i++ {
		c := counter + i
		if c < 0 {
			continue
		}
		expected := HOTP(key, uint64(c), int(p.digits))
		eq := subtle.ConstantTimeCompare([]byte(expected), submitted)
		// Keep the first matching step without branching on the comparison
		first := eq & (1 - matched)
		step = int64(subtle.ConstantTimeSelect(first, int(c), int(step)))
		matched |= eq
	}

	return step, matched == 1, nil
}

func isNumeric(code string, digits int) bool {
	if len(code) != digits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
