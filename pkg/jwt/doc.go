// Package jwt implements HMAC-SHA256 session tokens (RFC 7519) without
// third-party dependencies: compact generation and parsing with a pinned
// HS256 algorithm header, constant-time signature verification, temporal
// claim validation, and chi-compatible Bearer middleware that parses claims
// into a caller-provided type.
package jwt
