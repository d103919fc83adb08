// Package apperrors defines the error taxonomy shared across the engine.
// Callers branch on these sentinels with errors.Is to choose fallback
// behavior; raw driver or model error text is wrapped, never surfaced.
package apperrors

import "errors"

var (
	// ErrUnsupportedEngine indicates an unknown datasource engine type.
	ErrUnsupportedEngine = errors.New("unsupported engine type")
	// ErrConnectionFailure indicates the connector could not reach or
	// authenticate against the datasource.
	ErrConnectionFailure = errors.New("connection failure")
	// ErrSchemaUnavailable indicates an empty or unfetchable schema.
	ErrSchemaUnavailable = errors.New("schema unavailable")
	// ErrValidationFailure indicates SQL rejected by the validator.
	ErrValidationFailure = errors.New("query validation failed")
	// ErrExecutionFailure indicates the engine returned an error for a query.
	ErrExecutionFailure = errors.New("query execution failed")
	// ErrModelUnavailable indicates the text-generation backend is
	// unreachable (network-class failures only).
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrParseFailure indicates the model replied but no usable SQL
	// could be extracted.
	ErrParseFailure = errors.New("could not parse model response")
)
