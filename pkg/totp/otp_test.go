package totp_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kavach-security/kavach/pkg/totp"
)

// rfcSecret is the RFC 6238 reference secret "12345678901234567890" in Base32.
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestGenerateSecretKey(t *testing.T) {
	t.Parallel()

	secret, err := totp.GenerateSecretKey()
	require.NoError(t, err)
	assert.NotEmpty(t, secret)
	assert.Regexp(t, totp.SecretKeyRegex, secret)

	// 160 bits in unpadded Base32 is 32 characters.
	assert.Len(t, secret, 32)

	other, err := totp.GenerateSecretKey()
	require.NoError(t, err)
	assert.NotEqual(t, secret, other)
}

func TestProvisioningURI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		params  totp.KeyParams
		want    string
		wantErr error
	}{
		{
			name: "basic URI",
			params: totp.KeyParams{
				Secret:      "ABCDEFGHIJKLMNOP",
				AccountName: "user@example.com",
				Issuer:      "Kavach",
			},
			want: "otpauth://totp/Kavach:user@example.com?algorithm=SHA1&digits=6&issuer=Kavach&period=30&secret=ABCDEFGHIJKLMNOP",
		},
		{
			name: "issuer with spaces",
			params: totp.KeyParams{
				Secret:      "ABCDEFGHIJKLMNOP",
				AccountName: "test+user@example.com",
				Issuer:      "Kavach Security",
			},
			want: "otpauth://totp/Kavach%20Security:test+user@example.com?algorithm=SHA1&digits=6&issuer=Kavach+Security&period=30&secret=ABCDEFGHIJKLMNOP",
		},
		{
			name: "missing secret",
			params: totp.KeyParams{
				AccountName: "user@example.com",
				Issuer:      "Kavach",
			},
			wantErr: totp.ErrMissingSecret,
		},
		{
			name: "lowercase secret rejected",
			params: totp.KeyParams{
				Secret:      "abcdefgh",
				AccountName: "user@example.com",
				Issuer:      "Kavach",
			},
			wantErr: totp.ErrInvalidSecret,
		},
		{
			name: "missing account name",
			params: totp.KeyParams{
				Secret: "ABCDEFGHIJKLMNOP",
				Issuer: "Kavach",
			},
			wantErr: totp.ErrMissingAccountName,
		},
		{
			name: "missing issuer",
			params: totp.KeyParams{
				Secret:      "ABCDEFGHIJKLMNOP",
				AccountName: "user@example.com",
			},
			wantErr: totp.ErrMissingIssuer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := totp.ProvisioningURI(tt.params)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateCodeAt_RFC6238Vectors(t *testing.T) {
	t.Parallel()

	// Appendix B of RFC 6238, truncated to 6 digits.
	vectors := []struct {
		unix int64
		code string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1111111111, "050471"},
		{1234567890, "005924"},
		{2000000000, "279037"},
	}

	for _, v := range vectors {
		at := time.Unix(v.unix, 0)

		code, err := totp.GenerateCodeAt(rfcSecret, at)
		require.NoError(t, err)
		assert.Equal(t, v.code, code)

		_, ok, err := totp.ValidateCodeAt(rfcSecret, v.code, at)
		require.NoError(t, err)
		assert.True(t, ok, "code %s at t=%d", v.code, v.unix)
	}
}

func TestValidateCodeAt_SkewWindow(t *testing.T) {
	t.Parallel()

	const secret = "JBSWY3DPEHPK3PXP"
	at := time.Unix(59, 0) // time step 1

	// Codes for adjacent steps are accepted, anything further is not.
	for _, tc := range []struct {
		step     int64
		accepted bool
	}{
		{0, true},
		{1, true},
		{2, true},
		{3, false},
		{-1, false},
	} {
		code, err := totp.GenerateCodeAt(secret, time.Unix(tc.step*totp.Period, 0))
		require.NoError(t, err)

		step, ok, err := totp.ValidateCodeAt(secret, code, at)
		require.NoError(t, err)
		assert.Equal(t, tc.accepted, ok, "step %d", tc.step)
		if tc.accepted {
			assert.Equal(t, tc.step, step)
		}
	}
}

func TestValidateCodeAt_WrongCode(t *testing.T) {
	t.Parallel()

	const secret = "JBSWY3DPEHPK3PXP"
	at := time.Unix(59, 0)

	step, ok, err := totp.ValidateCodeAt(secret, "000000", at)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, step)
}

func TestValidateCodeAt_MalformedInput(t *testing.T) {
	t.Parallel()

	at := time.Unix(59, 0)

	tests := []struct {
		name    string
		secret  string
		code    string
		wantErr error
	}{
		{"invalid base32 secret", "invalid-base32!@#$", "123456", totp.ErrInvalidSecret},
		{"empty secret", "", "123456", totp.ErrInvalidSecret},
		{"code too short", "JBSWY3DPEHPK3PXP", "12345", totp.ErrInvalidCode},
		{"code too long", "JBSWY3DPEHPK3PXP", "1234567", totp.ErrInvalidCode},
		{"code with letters", "JBSWY3DPEHPK3PXP", "12345a", totp.ErrInvalidCode},
		{"empty code", "JBSWY3DPEHPK3PXP", "", totp.ErrInvalidCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, ok, err := totp.ValidateCodeAt(tt.secret, tt.code, at)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, ok)
		})
	}
}

func TestValidateCode_RoundTrip(t *testing.T) {
	t.Parallel()

	secret, err := totp.GenerateSecretKey()
	require.NoError(t, err)

	code, err := totp.GenerateCode(secret)
	require.NoError(t, err)

	_, ok, err := totp.ValidateCode(secret, code)
	require.NoError(t, err)
	assert.True(t, ok)
}
