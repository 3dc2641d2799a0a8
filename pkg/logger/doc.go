// Package logger builds configured log/slog loggers for the service: JSON or
// text output, level selection, static attributes, and small attr helpers
// (Error, UserID, Component, Event) that keep log keys consistent across
// packages.
package logger
