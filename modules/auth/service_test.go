package auth_test

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kavach-security/kavach/modules/auth"
	"github.com/kavach-security/kavach/pkg/totp"
)

// testEnv bundles a service over in-memory stores with a controllable
// clock. Tests mutate env.now to move time forward.
type testEnv struct {
	service *auth.Service
	store   *auth.MemoryStore
	now     time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	key, err := totp.GenerateEncryptionKey()
	require.NoError(t, err)

	cfg := auth.Config{
		Issuer:              "Kavach",
		JWTSigningKey:       "0123456789abcdef0123456789abcdef",
		SecretEncryptionKey: base64.StdEncoding.EncodeToString(key),
		SessionTTL:          time.Hour,
		ChallengeTTL:        5 * time.Minute,
		EnrollmentTTL:       10 * time.Minute,
		RecoveryCodeCount:   5,
		BcryptCost:          bcrypt.MinCost,
		QRCodeSize:          128,
	}

	// The base time tracks the wall clock so issued session tokens pass
	// their expiry check; tests advance it explicitly where step
	// boundaries matter.
	env := &testEnv{
		store: auth.NewMemoryStore(),
		now:   time.Now().UTC(),
	}

	service, err := auth.NewService(cfg, env.store, env.store, env.store,
		auth.WithClock(func() time.Time { return env.now }),
	)
	require.NoError(t, err)
	env.service = service
	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.now = e.now.Add(d)
}

// register creates an account and returns it.
func (e *testEnv) register(t *testing.T, email, password string) *auth.Account {
	t.Helper()
	account, err := e.service.Register(context.Background(), email, password)
	require.NoError(t, err)
	return account
}

// enableTwoFactor walks the full enrollment flow and returns the shared
// secret plus the plaintext recovery codes.
func (e *testEnv) enableTwoFactor(t *testing.T, account *auth.Account) (string, []string) {
	t.Helper()
	ctx := context.Background()

	setup, err := e.service.RequestSetup(ctx, account.ID)
	require.NoError(t, err)

	code, err := totp.GenerateCodeAt(setup.Secret, e.now)
	require.NoError(t, err)

	recoveryCodes, err := e.service.ConfirmSetup(ctx, account.ID, code)
	require.NoError(t, err)

	// Move past the enrollment step so login tests get a fresh code.
	e.advance(totp.Period * time.Second)

	return setup.Secret, recoveryCodes
}

// login runs Authenticate expecting a second-factor challenge.
func (e *testEnv) loginChallenge(t *testing.T, email, password string) string {
	t.Helper()
	result, err := e.service.Authenticate(context.Background(), email, password)
	require.NoError(t, err)
	require.Equal(t, auth.StatusSecondFactorRequired, result.Status)
	require.NotEmpty(t, result.ChallengeID)
	require.Empty(t, result.Token)
	return result.ChallengeID
}
