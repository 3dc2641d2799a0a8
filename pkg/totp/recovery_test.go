package totp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kavach-security/kavach/pkg/totp"
)

func TestGenerateRecoveryCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		count   int
		wantErr bool
	}{
		{"generate 10 codes", 10, false},
		{"generate 1 code", 1, false},
		{"zero count rejected", 0, true},
		{"negative count rejected", -5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			codes, err := totp.GenerateRecoveryCodes(tt.count)
			if tt.wantErr {
				assert.ErrorIs(t, err, totp.ErrInvalidRecoveryCodeCount)
				assert.Nil(t, codes)
				return
			}

			require.NoError(t, err)
			assert.Len(t, codes, tt.count)

			seen := make(map[string]bool)
			for _, code := range codes {
				assert.Len(t, code, 16) // 8 random bytes in hex
				assert.False(t, seen[code], "duplicate code %s", code)
				seen[code] = true
			}
		})
	}
}

func TestVerifyRecoveryCode(t *testing.T) {
	t.Parallel()

	codes, err := totp.GenerateRecoveryCodes(3)
	require.NoError(t, err)

	for _, code := range codes {
		hash := totp.HashRecoveryCode(code)
		assert.NotEqual(t, code, hash)
		assert.True(t, totp.VerifyRecoveryCode(code, hash))
		assert.False(t, totp.VerifyRecoveryCode(code+"X", hash))
		assert.False(t, totp.VerifyRecoveryCode("", hash))
	}

	// The same code always hashes identically so stored hashes stay stable.
	assert.Equal(t, totp.HashRecoveryCode(codes[0]), totp.HashRecoveryCode(codes[0]))
}
