package logging

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeyTool      = "tool"
	KeyEntity    = "entity"
	KeyInstance  = "instance"
	KeyHandle    = "handle"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
	KeySizeBytes = "size_bytes"
	KeyCount     = "count"
)

// Status values for consistent logging.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// apiKeyRegex matches API keys passed as query parameters or header-style
// assignments so they can be redacted before an error string reaches the logs.
var apiKeyRegex = regexp.MustCompile(`(?i)(api[_-]?key|token|authorization)(=|: ?)(Bearer )?[A-Za-z0-9._\-]+`)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithInstance returns a logger with the instance attribute set.
func WithInstance(logger *slog.Logger, instance string) *slog.Logger {
	return logger.With(slog.String(KeyInstance, instance))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Tool returns a slog attribute for the tool name.
func Tool(name string) slog.Attr {
	return slog.String(KeyTool, name)
}

// Entity returns a slog attribute for the CRM entity type.
func Entity(entity string) slog.Attr {
	return slog.String(KeyEntity, entity)
}

// Instance returns a slog attribute for the tenant instance.
func Instance(instance string) slog.Attr {
	return slog.String(KeyInstance, instance)
}

// Handle returns a slog attribute for a result handle.
func Handle(handle string) slog.Attr {
	return slog.String(KeyHandle, handle)
}

// Duration returns a slog attribute for an operation duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// SizeBytes returns a slog attribute for a serialized payload size.
func SizeBytes(n int) slog.Attr {
	return slog.Int(KeySizeBytes, n)
}

// Count returns a slog attribute for an item count.
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Err returns a slog attribute for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// SanitizedErr returns a slog attribute for an error with credentials redacted.
// Upstream API errors can echo the request URL, which may carry an API key as
// a query parameter or an Authorization header value.
func SanitizedErr(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, SanitizeCredentials(err.Error()))
}

// SanitizeCredentials redacts API keys, tokens and Authorization values from
// a string while preserving enough context for debugging.
//
// Examples:
//   - "GET /api1/jobs?api_key=abc123: 401" -> "GET /api1/jobs?api_key=<redacted>: 401"
//   - "Authorization: Bearer eyJhbGci..." -> "Authorization: <redacted>"
func SanitizeCredentials(s string) string {
	if s == "" {
		return "<empty>"
	}
	return apiKeyRegex.ReplaceAllString(s, "$1$2<redacted>")
}

// SanitizeToken returns a masked version of a token for logging.
// It returns a length indicator without exposing any token content,
// as even partial key prefixes can aid attacks.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}
