package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kavach-security/kavach/pkg/sanitizer"
)

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already normalized", "user@example.com", "user@example.com"},
		{"uppercase", "User@Example.COM", "user@example.com"},
		{"surrounding whitespace", "  user@example.com \n", "user@example.com"},
		{"consecutive dots in local part", "first..last@example.com", "first.last@example.com"},
		{"many dots", "a...b....c@example.com", "a.b.c@example.com"},
		{"dots in domain untouched", "user@sub..example.com", "user@sub..example.com"},
		{"no at sign", "not-an-email", "not-an-email"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, sanitizer.NormalizeEmail(tt.input))
		})
	}
}

func TestTrim(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "abc", sanitizer.Trim("  abc\t\n"))
	assert.Equal(t, "", sanitizer.Trim("   "))
}
