// Package validator provides declarative request validation built from
// small composable rules. Each rule couples a check with the field and
// message to report when the check fails; Apply runs every rule and
// collects all failures so the caller can return them in one response.
package validator

import "errors"

// ValidationError describes a single failed rule.
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors aggregates failures keyed by field name.
type ValidationErrors map[string][]string

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	return "validation failed"
}

// Add records a failure for the given field.
func (e ValidationErrors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Rule is a single validation check. Check returns true when the value
// is acceptable.
type Rule struct {
	Check func() bool
	Error ValidationError
}

// Apply runs all rules and returns the collected failures, or nil when
// every rule passes.
func Apply(rules ...Rule) error {
	failures := make(ValidationErrors)
	for _, r := range rules {
		if r.Check == nil || !r.Check() {
			failures.Add(r.Error.Field, r.Error.Message)
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return failures
}

// ExtractValidationErrors returns the field failures carried by err, or
// nil when err is not a validation error.
func ExtractValidationErrors(err error) ValidationErrors {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
