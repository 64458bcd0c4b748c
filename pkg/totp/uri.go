package totp

import (
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ProvisioningURI builds the otpauth URI authenticator apps scan from a QR code:
//
//	otpauth://totp/<account>?secret=<secret>&period=<period>&issuer=<issuer>
//
// The query is assembled by hand because apps in the wild depend on this exact
// field order, which url.Values.Encode would sort away. A digits parameter is
// appended only for non-default code lengths. The secret is written in its
// canonical form.
func ProvisioningURI(account, secret, issuer string, opts ...Option) (string, error) {
	p, err := newParams(opts)
	if err != nil {
		return "", err
	}

	account = strings.TrimSpace(account)
	if account == "" {
		return "", ErrMissingAccountName
	}
	if strings.TrimSpace(issuer) == "" {
		return "", ErrMissingIssuer
	}
	secret, err = CanonicalSecret(secret)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("otpauth://totp/")
	b.WriteString(url.PathEscape(norm.NFC.String(account)))
	b.WriteString("?secret=")
	b.WriteString(secret)
	b.WriteString("&period=")
	b.WriteString(strconv.FormatUint(uint64(p.period), 10))
	b.WriteString("&issuer=")
	b.WriteString(url.QueryEscape(norm.NFC.String(issuer)))
	if p.digits != DefaultDigits {
		b.WriteString("&digits=")
		b.WriteString(strconv.Itoa(int(p.digits)))
	}

	return b.String(), nil
}
