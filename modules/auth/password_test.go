package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kavach-security/kavach/modules/auth"
	"github.com/kavach-security/kavach/pkg/validator"
)

func TestRegister(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates account", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		account, err := env.service.Register(ctx, "User@Example.COM", "correct-Horse9")
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", account.Email, "email is normalized")
		assert.False(t, account.TwoFactorEnabled)
		assert.Empty(t, account.TwoFactorSecret)
		assert.NotEmpty(t, account.PasswordHash)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		env.register(t, "user@example.com", "correct-Horse9")
		_, err := env.service.Register(ctx, "user@example.com", "other-Password1")
		assert.ErrorIs(t, err, auth.ErrEmailAlreadyExists)
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		_, err := env.service.Register(ctx, "not-an-email", "correct-Horse9")
		require.Error(t, err)
		fields := validator.ExtractValidationErrors(err)
		require.NotNil(t, fields)
		assert.Contains(t, fields, "email")
	})

	t.Run("rejects weak password", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		_, err := env.service.Register(ctx, "user@example.com", "short")
		require.Error(t, err)
		fields := validator.ExtractValidationErrors(err)
		require.NotNil(t, fields)
		assert.Contains(t, fields, "password")
	})
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("grants token without two-factor", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.register(t, "user@example.com", "correct-Horse9")

		result, err := env.service.Authenticate(ctx, "user@example.com", "correct-Horse9")
		require.NoError(t, err)
		assert.Equal(t, auth.StatusGranted, result.Status)
		assert.NotEmpty(t, result.Token)
		assert.Empty(t, result.ChallengeID)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.register(t, "user@example.com", "correct-Horse9")

		_, errWrong := env.service.Authenticate(ctx, "user@example.com", "wrong-Password1")
		_, errUnknown := env.service.Authenticate(ctx, "ghost@example.com", "whatever-Pass1")

		assert.ErrorIs(t, errWrong, auth.ErrInvalidCredentials)
		assert.ErrorIs(t, errUnknown, auth.ErrInvalidCredentials)
		assert.Equal(t, errWrong.Error(), errUnknown.Error())
	})

	t.Run("requires second factor when enabled", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		account := env.register(t, "user@example.com", "correct-Horse9")
		env.enableTwoFactor(t, account)

		result, err := env.service.Authenticate(ctx, "user@example.com", "correct-Horse9")
		require.NoError(t, err)
		assert.Equal(t, auth.StatusSecondFactorRequired, result.Status)
		assert.Empty(t, result.Token, "no token before the second factor")
		assert.NotEmpty(t, result.ChallengeID)
	})

	t.Run("session token parses with account subject", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		account := env.register(t, "user@example.com", "correct-Horse9")

		result, err := env.service.Authenticate(ctx, "user@example.com", "correct-Horse9")
		require.NoError(t, err)

		var claims auth.SessionClaims
		require.NoError(t, env.service.Tokens().Parse(result.Token, &claims))
		id, err := claims.AccountID()
		require.NoError(t, err)
		assert.Equal(t, account.ID, id)
		assert.Equal(t, account.Email, claims.Email)
	})
}
