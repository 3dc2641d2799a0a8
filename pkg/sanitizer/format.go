// Package sanitizer normalizes untrusted input before it reaches
// validation or storage. Functions never return an error; they produce
// the closest well-formed value for the given input.
package sanitizer

import (
	"regexp"
	"strings"
)

var consecutiveDots = regexp.MustCompile(`\.{2,}`)

// Trim removes leading and trailing whitespace.
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeEmail lowercases the address, trims whitespace and collapses
// consecutive dots in the local part. It does not validate the address.
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))

	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return email
	}

	local := consecutiveDots.ReplaceAllString(email[:at], ".")
	return local + email[at:]
}
