package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountStore persists Account records. Implementations must make
// UpdateTwoFactor, ConsumeTOTPStep, and ConsumeRecoveryCode atomic per
// account so concurrent enable/disable/verify calls cannot interleave
// into an inconsistent record.
type AccountStore interface {
	// CreateAccount inserts a new account. Returns ErrEmailAlreadyExists
	// when the email is taken.
	CreateAccount(ctx context.Context, account *Account) error

	// GetAccountByEmail returns ErrAccountNotFound when absent.
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)

	// GetAccountByID returns ErrAccountNotFound when absent.
	GetAccountByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// UpdateTwoFactor applies upd to the account's two-factor fields in a
	// single write. Enabling also resets LastTOTPStep to lastStep so the
	// enrollment code cannot be replayed at login.
	UpdateTwoFactor(ctx context.Context, id uuid.UUID, upd TwoFactorUpdate, lastStep int64) error

	// ConsumeTOTPStep advances LastTOTPStep to step if and only if step is
	// greater than the stored value. Returns false without mutation when
	// the step was already used or superseded.
	ConsumeTOTPStep(ctx context.Context, id uuid.UUID, step int64) (bool, error)

	// ConsumeRecoveryCode removes the given hash from the account's set.
	// Returns false without mutation when the hash is not present, which
	// guards against concurrent double redemption.
	ConsumeRecoveryCode(ctx context.Context, id uuid.UUID, hash string) (bool, error)

	// ReplaceRecoveryCodes swaps the account's entire recovery code set in
	// one write. Returns ErrTwoFactorNotEnabled when two-factor is off.
	ReplaceRecoveryCodes(ctx context.Context, id uuid.UUID, hashes []string) error
}

// EnrollmentStore holds PendingEnrollment records, one per account, with
// a TTL. Expiry must be indistinguishable from absence.
type EnrollmentStore interface {
	SaveEnrollment(ctx context.Context, enrollment PendingEnrollment, ttl time.Duration) error

	// GetEnrollment returns ErrNoPendingEnrollment when absent or expired.
	GetEnrollment(ctx context.Context, accountID uuid.UUID) (*PendingEnrollment, error)

	// DeleteEnrollment is a no-op when nothing is stored.
	DeleteEnrollment(ctx context.Context, accountID uuid.UUID) error
}

// ChallengeStore holds PendingAuthentication records keyed by challenge
// ID, with a TTL. A failed second-factor attempt leaves the challenge in
// place; only success or expiry removes it.
type ChallengeStore interface {
	SaveChallenge(ctx context.Context, challenge PendingAuthentication, ttl time.Duration) error

	// GetChallenge returns ErrNoPendingAuth when absent or expired.
	GetChallenge(ctx context.Context, id uuid.UUID) (*PendingAuthentication, error)

	// DeleteChallenge is a no-op when nothing is stored.
	DeleteChallenge(ctx context.Context, id uuid.UUID) error
}
