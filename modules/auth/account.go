package auth

import (
	"time"

	"github.com/google/uuid"
)

// Account is the persistent user record. The TOTP secret is stored
// AES-256-GCM encrypted and only while two-factor is enabled; recovery
// codes are stored as SHA-256 hashes.
type Account struct {
	ID               uuid.UUID
	Email            string
	PasswordHash     []byte
	TwoFactorEnabled bool
	// TwoFactorSecret holds the encrypted shared secret. Empty exactly
	// when TwoFactorEnabled is false.
	TwoFactorSecret    string
	RecoveryCodeHashes []string
	// LastTOTPStep is the most recent accepted time step. Codes from the
	// same or an earlier step are rejected to prevent replay within the
	// validity window.
	LastTOTPStep int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TwoFactorUpdate is the atomic read-modify-write payload for the
// account's two-factor fields. The zero value disables two-factor and
// clears the secret and recovery codes.
type TwoFactorUpdate struct {
	Enabled            bool
	EncryptedSecret    string
	RecoveryCodeHashes []string
}

// PendingEnrollment is the ephemeral candidate secret created by a setup
// request. It is keyed by account and never touches the Account record;
// it is discarded on successful verification, on abandon, or by TTL.
type PendingEnrollment struct {
	AccountID uuid.UUID
	// EncryptedSecret is the AES-sealed candidate secret.
	EncryptedSecret string
	CreatedAt       time.Time
}

// PendingAuthentication marks that an account passed the password check
// but still owes a second factor. It never grants access by itself and
// expires on a short TTL.
type PendingAuthentication struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	ExpiresAt time.Time
}
