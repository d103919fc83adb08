package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/luminabi/lumina-engine/pkg/models"
)

// PostgreSQLConnector serves the postgresql engine type.
type PostgreSQLConnector struct{}

// NewPostgreSQLConnector creates the PostgreSQL connector.
func NewPostgreSQLConnector() *PostgreSQLConnector {
	return &PostgreSQLConnector{}
}

// buildConnString builds a PostgreSQL URL. User-provided fields are
// URL-escaped so special characters in passwords (@, /, #, ?) do not
// break parsing.
func buildConnString(config map[string]any) string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(configString(config, "username", "")),
		url.QueryEscape(configString(config, "password", "")),
		configString(config, "host", "localhost"),
		configInt(config, "port", 5432),
		url.QueryEscape(configString(config, "database", "")),
		configString(config, "sslmode", "disable"),
	)
}

func schemaName(config map[string]any) string {
	return configString(config, "schema", "public")
}

func (c *PostgreSQLConnector) open(config map[string]any) (*sql.DB, error) {
	db, err := sql.Open("pgx", buildConnString(config))
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	return db, nil
}

// Test verifies connectivity with a ping plus a trivial query.
func (c *PostgreSQLConnector) Test(ctx context.Context, config map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	db, err := c.open(config)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}
	return nil
}

// Query runs a statement over a short-lived connection.
func (c *PostgreSQLConnector) Query(ctx context.Context, config map[string]any, sqlText string, params []any) (*QueryData, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	db, err := c.open(config)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRows(rows)
}

// ListTables returns the base tables of the configured schema.
func (c *PostgreSQLConnector) ListTables(ctx context.Context, config map[string]any) ([]string, error) {
	result, err := c.Query(ctx, config, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name`, []any{schemaName(config)})
	if err != nil {
		return nil, err
	}

	tables := make([]string, 0, result.RowCount)
	for _, row := range result.Data {
		if name, ok := row["table_name"].(string); ok {
			tables = append(tables, name)
		}
	}
	return tables, nil
}

const pgColumnsQuery = `
	SELECT
		c.column_name,
		c.data_type,
		c.is_nullable,
		COALESCE((
			SELECT 'PRI'
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON tc.constraint_name = kcu.constraint_name
				AND tc.table_schema = kcu.table_schema
			WHERE tc.constraint_type = 'PRIMARY KEY'
				AND tc.table_schema = c.table_schema
				AND tc.table_name = c.table_name
				AND kcu.column_name = c.column_name
			LIMIT 1
		), '') AS column_key
	FROM information_schema.columns c
	WHERE c.table_schema = $1 AND c.table_name = $2
	ORDER BY c.ordinal_position`

// TableColumns introspects one table through information_schema and
// normalizes it into the common column shape.
func (c *PostgreSQLConnector) TableColumns(ctx context.Context, config map[string]any, table string) ([]models.ColumnInfo, error) {
	result, err := c.Query(ctx, config, pgColumnsQuery, []any{schemaName(config), table})
	if err != nil {
		return nil, err
	}

	columns := make([]models.ColumnInfo, 0, result.RowCount)
	for _, row := range result.Data {
		name, _ := row["column_name"].(string)
		dataType, _ := row["data_type"].(string)
		nullable, _ := row["is_nullable"].(string)
		key, _ := row["column_key"].(string)
		columns = append(columns, models.ColumnInfo{
			Name:     name,
			Type:     dataType,
			Nullable: strings.EqualFold(nullable, "YES"),
			Key:      key,
		})
	}
	return columns, nil
}

// GetSchema returns the full normalized schema including table comments
// from the pg_catalog description functions.
func (c *PostgreSQLConnector) GetSchema(ctx context.Context, config map[string]any) ([]models.TableSchema, error) {
	tableRows, err := c.Query(ctx, config, `
		SELECT
			t.table_name,
			COALESCE(obj_description(pgc.oid, 'pg_class'), '') AS table_comment
		FROM information_schema.tables t
		JOIN pg_catalog.pg_class pgc ON pgc.relname = t.table_name
		JOIN pg_catalog.pg_namespace pgn ON pgn.oid = pgc.relnamespace AND pgn.nspname = t.table_schema
		WHERE t.table_schema = $1 AND t.table_type = 'BASE TABLE'
		ORDER BY t.table_name`, []any{schemaName(config)})
	if err != nil {
		return nil, err
	}

	tables := make([]models.TableSchema, 0, tableRows.RowCount)
	for _, row := range tableRows.Data {
		name, _ := row["table_name"].(string)
		comment, _ := row["table_comment"].(string)

		columns, err := c.TableColumns(ctx, config, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, models.TableSchema{Name: name, Comment: comment, Columns: columns})
	}
	return tables, nil
}

// ConfigFields returns the PostgreSQL configuration descriptors.
func (c *PostgreSQLConnector) ConfigFields() []ConfigField {
	return []ConfigField{
		{Name: "host", Label: "Host", Kind: "text", Required: true, Default: "localhost"},
		{Name: "port", Label: "Port", Kind: "number", Required: true, Default: 5432},
		{Name: "database", Label: "Database", Kind: "text", Required: true},
		{Name: "username", Label: "Username", Kind: "text", Required: true},
		{Name: "password", Label: "Password", Kind: "password", Required: false},
		{Name: "schema", Label: "Schema", Kind: "text", Required: false, Default: "public"},
		{Name: "sslmode", Label: "SSL Mode", Kind: "select", Required: false, Default: "disable", Options: []FieldOption{
			{Value: "disable", Label: "Disable"},
			{Value: "require", Label: "Require"},
			{Value: "verify-ca", Label: "Verify CA"},
			{Value: "verify-full", Label: "Verify Full"},
		}},
	}
}

var _ Connector = (*PostgreSQLConnector)(nil)
