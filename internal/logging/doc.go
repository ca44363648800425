// Package logging provides structured logging utilities for the mcp-jobnimbus
// application.
//
// This package centralizes logging patterns to ensure consistent, structured
// logging throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - Consistent attribute naming across the codebase
//   - Credential sanitization (API keys, bearer tokens)
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithTool(slog.Default(), "get_jobs")
//	logger.Info("jobs fetched",
//	    logging.Instance("stamford"),
//	    logging.Count(len(jobs)))
//
// Sanitize sensitive data before logging:
//
//	logger.Warn("upstream request failed", logging.SanitizedErr(err))
//
// # Security Considerations
//
// Upstream error strings can echo full request URLs. API keys and
// Authorization header values are redacted before logging; raw keys are never
// logged directly.
package logging
