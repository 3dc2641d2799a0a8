package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// A nil error yields an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the account identifier under the key "user_id".
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// Component records the subsystem emitting the log line under the key
// "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event records a domain event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}
