// Package logging provides sanitization helpers used before any error
// text or SQL is logged or surfaced to a caller.
package logging

import (
	"regexp"
	"strings"
)

const (
	// MaxQueryLogLength is the maximum length of a query to log.
	MaxQueryLogLength = 100
	// RedactedText replaces sensitive fragments.
	RedactedText = "[REDACTED]"
)

var (
	// password=xxx, pwd=xxx, pass=xxx until the next delimiter
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// host=xxx fragments leak internal topology
	hostPattern = regexp.MustCompile(`(?i)host=[^;&\s]+`)

	// user:pass@host connection-string credentials
	connStringPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)

	// "at line 3" position details from engine parsers
	atLinePattern = regexp.MustCompile(`(?i)\s*at line \d+`)

	// near '...' clauses echo back query fragments verbatim
	nearClausePattern = regexp.MustCompile(`(?i)near '[^']*'|near "[^"]*"`)
)

// SanitizeEngineError strips line numbers, generalizes near-clauses and
// redacts credentials from a database engine error message. This is the
// only form of engine error text safe to show a user.
func SanitizeEngineError(msg string) string {
	if msg == "" {
		return ""
	}
	sanitized := atLinePattern.ReplaceAllString(msg, "")
	sanitized = nearClausePattern.ReplaceAllString(sanitized, "near [query]")
	sanitized = passwordPattern.ReplaceAllString(sanitized, "password="+RedactedText)
	sanitized = hostPattern.ReplaceAllString(sanitized, "host="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
	return strings.TrimSpace(sanitized)
}

// SanitizeError applies SanitizeEngineError to an error's message.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeEngineError(err.Error())
}

// SanitizeQuery truncates and redacts a SQL query for logging.
func SanitizeQuery(query string) string {
	if query == "" {
		return ""
	}
	sanitized := TruncateString(query, MaxQueryLogLength)
	return passwordPattern.ReplaceAllString(sanitized, "password="+RedactedText)
}

// TruncateString truncates s to maxLen runes-worth of bytes, appending
// an ellipsis if anything was cut.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
