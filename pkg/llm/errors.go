package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/luminabi/lumina-engine/pkg/apperrors"
)

// ErrorType classifies model-backend failures.
type ErrorType string

const (
	ErrorTypeUnavailable ErrorType = "unavailable" // network-class: endpoint unreachable
	ErrorTypeAuth        ErrorType = "auth"        // bad or missing API key
	ErrorTypeModel       ErrorType = "model"       // unknown model name
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error is a classified model-backend error.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the taxonomy sentinel for unavailable errors so callers
// can branch with errors.Is(err, apperrors.ErrModelUnavailable).
func (e *Error) Unwrap() error {
	if e.Type == ErrorTypeUnavailable {
		return apperrors.ErrModelUnavailable
	}
	return e.Cause
}

// connectivity-class fragments, matched against lowercased error text.
// Classification is by message inspection since provider SDKs do not
// expose a uniform error taxonomy.
var unavailableFragments = []string{
	"connection refused",
	"no such host",
	"could not resolve",
	"network is unreachable",
	"timeout",
	"deadline exceeded",
	"context canceled",
	"broken pipe",
	"connection reset",
	"eof",
	"service unavailable",
	"502",
	"503",
	"504",
}

// ClassifyError wraps a raw provider error into a classified *Error.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	lower := strings.ToLower(err.Error())

	for _, fragment := range unavailableFragments {
		if strings.Contains(lower, fragment) {
			return &Error{Type: ErrorTypeUnavailable, Message: "model endpoint unreachable", Cause: err}
		}
	}
	if strings.Contains(lower, "401") || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "invalid api key") || strings.Contains(lower, "api key") {
		return &Error{Type: ErrorTypeAuth, Message: "authentication failed", Cause: err}
	}
	if strings.Contains(lower, "model") &&
		(strings.Contains(lower, "not found") || strings.Contains(lower, "does not exist")) {
		return &Error{Type: ErrorTypeModel, Message: "model not found", Cause: err}
	}
	return &Error{Type: ErrorTypeUnknown, Message: "model request failed", Cause: err}
}

// IsUnavailable reports whether err is a network-class backend failure,
// the condition that triggers the rule-based translation fallback.
func IsUnavailable(err error) bool {
	return errors.Is(err, apperrors.ErrModelUnavailable)
}
