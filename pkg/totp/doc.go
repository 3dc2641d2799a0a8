// Package totp implements the one-time-password primitives behind Kavach's
// two-factor authentication: RFC 6238 TOTP generation and validation,
// provisioning-URI construction for authenticator apps, AES-256-GCM helpers
// for persisting secrets encrypted at rest, and single-use recovery codes.
//
// The package is self-contained and free of third-party TOTP dependencies.
// All comparisons of codes and hashes use constant-time primitives so that
// verification latency reveals nothing about where a candidate diverged.
//
// Validation accepts one 30-second step of clock drift in each direction.
// ValidateCodeAt returns the matched time step; callers that persist the last
// accepted step per account can reject a replayed code from the same window.
//
// The minimal enrollment path:
//
//	secret, _ := totp.GenerateSecretKey()
//	uri, _ := totp.ProvisioningURI(totp.KeyParams{
//		Secret:      secret,
//		AccountName: "user@example.com",
//		Issuer:      "Kavach",
//	})
//	// render uri as a QR code, then confirm with the user's first code:
//	step, ok, err := totp.ValidateCode(secret, submitted)
package totp
