package totp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
)

// GenerateRecoveryCodes creates single-use backup codes for account recovery.
// Each code is a 16-character hexadecimal string carrying 64 bits of entropy.
func GenerateRecoveryCodes(count int) ([]string, error) {
	if count < 1 {
		return nil, ErrInvalidRecoveryCodeCount
	}

	codes := make([]string, count)
	for i := range count {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			return nil, errors.Join(ErrFailedToGenerateRecoveryCode, err)
		}
		codes[i] = fmt.Sprintf("%X", buf)
	}
	return codes, nil
}

// HashRecoveryCode returns the SHA-256 digest of a recovery code for storage.
// Plaintext codes are shown to the user once and never persisted.
func HashRecoveryCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// VerifyRecoveryCode compares a submitted code against a stored hash in
// constant time. Comparison duration must not depend on where the inputs
// diverge.
func VerifyRecoveryCode(code, hashedCode string) bool {
	computed := HashRecoveryCode(code)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hashedCode)) == 1
}
