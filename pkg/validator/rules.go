package validator

import (
	"net/mail"
	"strings"
	"unicode"
)

// Required fails when the value is empty after trimming.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: ValidationError{Field: field, Message: "is required"},
	}
}

// ValidEmail fails when the value is not a parseable address or carries
// a display name.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool {
			addr, err := mail.ParseAddress(value)
			return err == nil && addr.Address == value
		},
		Error: ValidationError{Field: field, Message: "must be a valid email address"},
	}
}

// MaxLen fails when the value exceeds max runes.
func MaxLen(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return len([]rune(value)) <= max },
		Error: ValidationError{Field: field, Message: "is too long"},
	}
}

// PasswordStrengthConfig controls the StrongPassword rule.
type PasswordStrengthConfig struct {
	MinLength      int
	MaxLength      int
	MinCharClasses int // of: lower, upper, digit, symbol
}

// DefaultPasswordStrength matches the account registration policy.
var DefaultPasswordStrength = PasswordStrengthConfig{
	MinLength:      8,
	MaxLength:      72, // bcrypt input limit
	MinCharClasses: 2,
}

// StrongPassword fails when the value does not meet the configured
// length and character class requirements.
func StrongPassword(field, value string, cfg PasswordStrengthConfig) Rule {
	return Rule{
		Check: func() bool {
			n := len(value)
			if n < cfg.MinLength || n > cfg.MaxLength {
				return false
			}
			var lower, upper, digit, symbol bool
			for _, r := range value {
				switch {
				case unicode.IsLower(r):
					lower = true
				case unicode.IsUpper(r):
					upper = true
				case unicode.IsDigit(r):
					digit = true
				default:
					symbol = true
				}
			}
			classes := 0
			for _, ok := range []bool{lower, upper, digit, symbol} {
				if ok {
					classes++
				}
			}
			return classes >= cfg.MinCharClasses
		},
		Error: ValidationError{Field: field, Message: "does not meet the password policy"},
	}
}
