// Package middleware provides HTTP middleware for the mcp-jobnimbus server's
// HTTP transport: security headers and request metrics.
package middleware
