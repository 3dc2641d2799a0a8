package auth

import "time"

// Config carries the auth service settings, loaded from the environment
// through pkg/config.
type Config struct {
	// Issuer is shown in authenticator apps next to the account label.
	Issuer string `env:"AUTH_TOTP_ISSUER" envDefault:"Kavach"`

	// JWTSigningKey signs session tokens. At least 32 bytes.
	JWTSigningKey string `env:"AUTH_JWT_SIGNING_KEY,required"`

	// SecretEncryptionKey is the base64-encoded 32-byte AES key sealing
	// TOTP secrets at rest.
	SecretEncryptionKey string `env:"AUTH_SECRET_ENCRYPTION_KEY,required"`

	SessionTTL    time.Duration `env:"AUTH_SESSION_TTL" envDefault:"24h"`
	ChallengeTTL  time.Duration `env:"AUTH_CHALLENGE_TTL" envDefault:"5m"`
	EnrollmentTTL time.Duration `env:"AUTH_ENROLLMENT_TTL" envDefault:"10m"`

	RecoveryCodeCount int `env:"AUTH_RECOVERY_CODE_COUNT" envDefault:"10"`
	BcryptCost        int `env:"AUTH_BCRYPT_COST" envDefault:"10"`

	// QRCodeSize is the rendered QR image edge in pixels.
	QRCodeSize int `env:"AUTH_QR_CODE_SIZE" envDefault:"256"`
}
