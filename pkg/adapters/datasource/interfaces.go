// Package datasource provides per-engine database connectors and the
// connection manager that resolves, configures and fronts them.
//
// Connectors open a short-lived connection per call; there is no pooling
// in this layer. Every call is bounded by a fixed execution timeout and
// failures are returned as errors, never panics.
package datasource

import (
	"context"
	"time"

	"github.com/luminabi/lumina-engine/pkg/models"
)

// queryTimeout bounds every connector call, including introspection.
const queryTimeout = 30 * time.Second

// QueryData holds the rows returned by a connector query.
type QueryData struct {
	Data     []map[string]any `json:"data"`
	RowCount int              `json:"row_count"`
}

// FieldOption is one choice of a select-style configuration field.
type FieldOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ConfigField describes one connection-configuration input, consumed by
// an external form-rendering layer. Order matters.
type ConfigField struct {
	Name     string        `json:"name"`
	Label    string        `json:"label"`
	Kind     string        `json:"kind"` // "text", "number", "password", "checkbox", "select"
	Required bool          `json:"required"`
	Default  any           `json:"default,omitempty"`
	Options  []FieldOption `json:"options,omitempty"`
}

// Connector is the per-engine adapter contract. Implementations are
// stateless; the connection configuration travels with each call.
type Connector interface {
	// Test verifies the database is reachable with valid credentials.
	Test(ctx context.Context, config map[string]any) error

	// Query runs a statement with optional positional parameters.
	Query(ctx context.Context, config map[string]any, sqlText string, params []any) (*QueryData, error)

	// ListTables returns the base table names of the configured database.
	ListTables(ctx context.Context, config map[string]any) ([]string, error)

	// TableColumns returns the normalized columns of one table, in
	// ordinal position order.
	TableColumns(ctx context.Context, config map[string]any, table string) ([]models.ColumnInfo, error)

	// GetSchema returns the full normalized schema: one query for the
	// table list, one query per table for columns.
	GetSchema(ctx context.Context, config map[string]any) ([]models.TableSchema, error)

	// ConfigFields returns the ordered configuration field descriptors.
	ConfigFields() []ConfigField
}
