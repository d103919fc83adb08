package models

import (
	"time"

	"github.com/google/uuid"
)

// ResultColumn describes a result-set column with its inferred display type.
// The type is guessed from the first row's runtime value, not a full scan.
type ResultColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// QueryResult is the transient outcome of a query execution. On failure,
// Error carries a sanitized message safe to show a user; raw engine text
// never leaves the query service.
type QueryResult struct {
	Success         bool             `json:"success"`
	Data            []map[string]any `json:"data,omitempty"`
	Columns         []ResultColumn   `json:"columns,omitempty"`
	RowCount        int              `json:"row_count"`
	ExecutionTimeMs int64            `json:"execution_time_ms"`
	Limited         bool             `json:"limited,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// SavedQuery is the persisted summary of a successful execution.
// Immutable once created; deleting a datasource cascades its queries.
type SavedQuery struct {
	ID              uuid.UUID      `json:"id"`
	UserID          uuid.UUID      `json:"user_id"`
	DataSourceID    uuid.UUID      `json:"data_source_id"`
	Name            string         `json:"name"`
	SQL             string         `json:"sql"`
	ResultMetadata  map[string]any `json:"result_metadata,omitempty"`
	ExecutionTimeMs int64          `json:"execution_time_ms"`
	RowCount        int            `json:"row_count"`
	CreatedAt       time.Time      `json:"created_at"`
}
