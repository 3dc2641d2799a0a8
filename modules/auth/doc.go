// Package auth implements account authentication for the Kavach dashboard:
// password registration and login, TOTP-based two-factor enrollment and
// verification, recovery code fallback, and session token issuance.
//
// The two-factor lifecycle is a strict state machine. A setup request
// generates a candidate secret that lives only in an ephemeral TTL store;
// the account record is mutated exactly once, when a code from the
// authenticator app verifies against the candidate. Abandoned or failed
// setups leave the account untouched. Disabling clears the secret, the
// enabled flag, and all recovery codes in the same atomic update.
//
// Login is two-phase when two-factor is enabled: Authenticate returns a
// short-lived challenge instead of a token, and CompleteSecondFactor trades
// the challenge plus a TOTP or recovery code for the session token. Failure
// responses are deliberately uniform so callers cannot probe which check
// failed or whether an account exists.
//
// Storage is abstracted behind small interfaces; Postgres, MongoDB, Redis,
// and in-memory implementations ship in this package.
package auth
