package totp

import "errors"

var (
	ErrFailedToGenerateSecretKey    = errors.New("failed to generate TOTP secret key")
	ErrMissingSecret                = errors.New("missing secret")
	ErrInvalidSecret                = errors.New("invalid secret")
	ErrMissingAccountName           = errors.New("missing account name")
	ErrMissingIssuer                = errors.New("missing issuer")
	ErrInvalidCode                  = errors.New("invalid code format")
	ErrInvalidRecoveryCodeCount     = errors.New("recovery code count must be greater than 0")
	ErrFailedToGenerateRecoveryCode = errors.New("failed to generate recovery code")

	ErrFailedToEncryptSecret      = errors.New("failed to encrypt TOTP secret")
	ErrFailedToDecryptSecret      = errors.New("failed to decrypt TOTP secret")
	ErrCipherTooShort             = errors.New("cipher text too short")
	ErrInvalidEncryptionKeyLength = errors.New("invalid encryption key length")
	ErrFailedToGenerateKey        = errors.New("failed to generate encryption key")
)
