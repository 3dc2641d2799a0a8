package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kavach-security/kavach/pkg/totp"
)

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestAuthRoutes(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	handler := env.service.Handler()

	type tokenResponse struct {
		Granted           bool   `json:"granted"`
		Token             string `json:"token"`
		RequiresTwoFactor bool   `json:"requires_two_factor"`
		ChallengeID       string `json:"challenge_id"`
	}

	// Register.
	rec := doJSON(t, handler, http.MethodPost, "/register", "", map[string]string{
		"email":    "user@example.com",
		"password": "correct-Horse9",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Duplicate registration conflicts.
	rec = doJSON(t, handler, http.MethodPost, "/register", "", map[string]string{
		"email":    "user@example.com",
		"password": "correct-Horse9",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	// Login without two-factor returns a token directly.
	rec = doJSON(t, handler, http.MethodPost, "/login", "", map[string]string{
		"email":    "user@example.com",
		"password": "correct-Horse9",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode[tokenResponse](t, rec)
	require.True(t, login.Granted)
	require.NotEmpty(t, login.Token)
	sessionToken := login.Token

	// Wrong password is a uniform 401.
	rec = doJSON(t, handler, http.MethodPost, "/login", "", map[string]string{
		"email":    "user@example.com",
		"password": "wrong-Password1",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Setup requires a session token.
	rec = doJSON(t, handler, http.MethodPost, "/setup-2fa", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	type setupResp struct {
		Secret     string `json:"secret"`
		OtpauthURI string `json:"otpauth_uri"`
		QRCode     string `json:"qr_code"`
	}
	rec = doJSON(t, handler, http.MethodPost, "/setup-2fa", sessionToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	setup := decode[setupResp](t, rec)
	require.NotEmpty(t, setup.Secret)
	require.Contains(t, setup.OtpauthURI, "otpauth://totp/")
	require.Contains(t, setup.QRCode, "data:image/png;base64,")

	// Enable with a wrong code fails without enabling.
	rec = doJSON(t, handler, http.MethodPost, "/enable-2fa", sessionToken, map[string]string{"code": "000000"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Enable with the authenticator code returns recovery codes once.
	code, err := totp.GenerateCodeAt(setup.Secret, env.now)
	require.NoError(t, err)
	rec = doJSON(t, handler, http.MethodPost, "/enable-2fa", sessionToken, map[string]string{"code": code})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	type enableResp struct {
		Enabled       bool     `json:"enabled"`
		RecoveryCodes []string `json:"recovery_codes"`
	}
	enabled := decode[enableResp](t, rec)
	require.True(t, enabled.Enabled)
	require.Len(t, enabled.RecoveryCodes, 5)

	// Login now returns a challenge and no token.
	rec = doJSON(t, handler, http.MethodPost, "/login", "", map[string]string{
		"email":    "user@example.com",
		"password": "correct-Horse9",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	challenge := decode[tokenResponse](t, rec)
	require.True(t, challenge.RequiresTwoFactor)
	require.Empty(t, challenge.Token)
	require.NotEmpty(t, challenge.ChallengeID)

	// Verify with a fresh code completes the login.
	env.advance(totp.Period * time.Second)
	code, err = totp.GenerateCodeAt(setup.Secret, env.now)
	require.NoError(t, err)
	rec = doJSON(t, handler, http.MethodPost, "/verify-2fa", "", map[string]string{
		"challenge_id": challenge.ChallengeID,
		"code":         code,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	verified := decode[tokenResponse](t, rec)
	require.True(t, verified.Granted)
	require.NotEmpty(t, verified.Token)

	// Consumed challenge behaves like a wrong code.
	rec = doJSON(t, handler, http.MethodPost, "/verify-2fa", "", map[string]string{
		"challenge_id": challenge.ChallengeID,
		"code":         code,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Disable with a recovery code.
	rec = doJSON(t, handler, http.MethodPost, "/disable-2fa", verified.Token, map[string]string{
		"code": enabled.RecoveryCodes[0],
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Back to direct grants.
	rec = doJSON(t, handler, http.MethodPost, "/login", "", map[string]string{
		"email":    "user@example.com",
		"password": "correct-Horse9",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	final := decode[tokenResponse](t, rec)
	assert.True(t, final.Granted)
	assert.NotEmpty(t, final.Token)
}

func TestAuthRoutesValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	handler := env.service.Handler()

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString("{}"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation failures list fields", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/register", "", map[string]string{
			"email":    "nope",
			"password": "short",
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var resp struct {
			Error  string              `json:"error"`
			Fields map[string][]string `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Contains(t, resp.Fields, "email")
		assert.Contains(t, resp.Fields, "password")
	})

	t.Run("garbage bearer token", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/setup-2fa", "not.a.token", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
