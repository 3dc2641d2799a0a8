package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	Digits = 6  // code length (RFC 4226 default)
	Period = 30 // seconds per time step (RFC 6238 default)

	// Skew is the number of time steps accepted on either side of the
	// current one to tolerate clock drift between server and device.
	Skew = 1

	algorithm = "SHA1"
)

var (
	// SecretKeyRegex matches Base32 without lowercase: A-Z, 2-7, optional padding.
	SecretKeyRegex = regexp.MustCompile("^[A-Z2-7]+=*$")

	codeRegex = regexp.MustCompile(fmt.Sprintf(`^\d{%d}$`, Digits))
)

// KeyParams describes a provisioning URI for an authenticator app.
type KeyParams struct {
	Secret      string // Base32-encoded shared secret (required)
	AccountName string // user-facing label, typically the email (required)
	Issuer      string // service name shown in the authenticator app (required)
}

func (p KeyParams) validate() error {
	if p.Secret == "" {
		return ErrMissingSecret
	}
	if !SecretKeyRegex.MatchString(p.Secret) {
		return ErrInvalidSecret
	}
	if p.AccountName == "" {
		return ErrMissingAccountName
	}
	if p.Issuer == "" {
		return ErrMissingIssuer
	}
	return nil
}

// GenerateSecretKey returns a new Base32-encoded 160-bit shared secret.
// Entropy comes from crypto/rand; 20 bytes is the RFC 4226 recommendation.
func GenerateSecretKey() (string, error) {
	secret := make([]byte, 20)
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Join(ErrFailedToGenerateSecretKey, err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret), nil
}

// ProvisioningURI builds the otpauth:// URI for the given key parameters,
// following the Key Uri Format understood by authenticator apps:
// https://github.com/google/google-authenticator/wiki/Key-Uri-Format
func ProvisioningURI(params KeyParams) (string, error) {
	if err := params.validate(); err != nil {
		return "", err
	}

	label := fmt.Sprintf("%s:%s",
		url.PathEscape(params.Issuer),
		url.PathEscape(params.AccountName),
	)

	query := url.Values{}
	query.Set("secret", params.Secret)
	query.Set("issuer", params.Issuer)
	query.Set("algorithm", algorithm)
	query.Set("digits", fmt.Sprintf("%d", Digits))
	query.Set("period", fmt.Sprintf("%d", Period))

	return fmt.Sprintf("otpauth://totp/%s?%s", label, query.Encode()), nil
}

// ValidateCodeAt checks a submitted code against the secret for the time step
// containing t, accepting one step of drift in either direction. On a match it
// returns the matched step so callers can track it and reject replays.
//
// Malformed input (bad secret, wrong code shape) is rejected with an error
// before any comparison happens; a well-formed but wrong code returns
// (0, false, nil).
func ValidateCodeAt(secret, code string, t time.Time) (int64, bool, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return 0, false, err
	}

	code = strings.TrimSpace(code)
	if !codeRegex.MatchString(code) {
		return 0, false, ErrInvalidCode
	}

	counter := t.Unix() / Period
	for i := int64(-Skew); i <= Skew; i++ {
		step := counter + i
		candidate := fmt.Sprintf("%0*d", Digits, hotp(key, step))
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(code)) == 1 {
			return step, true, nil
		}
	}

	return 0, false, nil
}

// ValidateCode checks a submitted code against the secret using the current time.
func ValidateCode(secret, code string) (int64, bool, error) {
	return ValidateCodeAt(secret, code, time.Now())
}

// GenerateCodeAt computes the code for the time step containing t.
func GenerateCodeAt(secret string, t time.Time) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", Digits, hotp(key, t.Unix()/Period)), nil
}

// GenerateCode computes the code for the current time step.
func GenerateCode(secret string) (string, error) {
	return GenerateCodeAt(secret, time.Now())
}

func decodeSecret(secret string) ([]byte, error) {
	secret = strings.TrimSpace(strings.ToUpper(secret))
	if !SecretKeyRegex.MatchString(secret) {
		return nil, ErrInvalidSecret
	}
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.TrimRight(secret, "="))
	if err != nil {
		return nil, errors.Join(ErrInvalidSecret, err)
	}
	return key, nil
}

// hotp implements the RFC 4226 HMAC-based one-time password algorithm.
func hotp(key []byte, counter int64) int {
	// Counter is a big-endian 8-byte value per RFC 4226.
	counterBytes := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		counterBytes[i] = byte(counter & 0xff)
		counter >>= 8
	}

	mac := hmac.New(sha1.New, key)
	mac.Write(counterBytes)
	sum := mac.Sum(nil)

	// Dynamic truncation: low 4 bits of the last byte select the offset,
	// the MSB of the extracted word is cleared to keep it positive.
	offset := sum[len(sum)-1] & 0x0f
	code := (int(sum[offset]&0x7f) << 24) |
		(int(sum[offset+1]) << 16) |
		(int(sum[offset+2]) << 8) |
		int(sum[offset+3])

	return code % int(math.Pow10(Digits))
}
