package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for any failed primary-credential
	// check, identically whether the account exists or not.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidCode is returned for any failed second-factor check. It
	// covers malformed, expired, wrong, and replayed codes as well as a
	// missing or expired challenge; none of those cases are distinguishable
	// to the caller.
	ErrInvalidCode = errors.New("invalid code")

	// ErrEmailAlreadyExists is returned when registering an address that is
	// already taken.
	ErrEmailAlreadyExists = errors.New("email already registered")

	// ErrAccountNotFound is returned by stores when no account matches.
	ErrAccountNotFound = errors.New("account not found")

	// ErrNoPendingEnrollment is returned by stores when no setup is in
	// flight for the account. The service maps it to ErrInvalidCode before
	// it reaches the transport layer.
	ErrNoPendingEnrollment = errors.New("no pending enrollment")

	// ErrNoPendingAuth is returned by stores when a challenge is absent,
	// consumed, or expired. The service maps it to ErrInvalidCode.
	ErrNoPendingAuth = errors.New("no pending authentication")

	// ErrTwoFactorAlreadyEnabled is returned when requesting setup for an
	// account that already has two-factor enabled.
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor authentication already enabled")

	// ErrTwoFactorNotEnabled is returned when disabling or regenerating
	// recovery codes for an account without two-factor enabled.
	ErrTwoFactorNotEnabled = errors.New("two-factor authentication not enabled")

	// ErrStorageFailure wraps persistence errors before they cross the
	// service boundary.
	ErrStorageFailure = errors.New("storage failure")
)
