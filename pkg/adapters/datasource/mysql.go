package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"

	"github.com/luminabi/lumina-engine/pkg/models"
)

// MySQLConnector serves both mysql and mariadb engine types.
type MySQLConnector struct{}

// NewMySQLConnector creates the MySQL-family connector.
func NewMySQLConnector() *MySQLConnector {
	return &MySQLConnector{}
}

func (c *MySQLConnector) open(config map[string]any) (*sql.DB, error) {
	cfg := mysqldriver.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d",
		configString(config, "host", "localhost"),
		configInt(config, "port", 3306))
	cfg.User = configString(config, "username", "")
	cfg.Passwd = configString(config, "password", "")
	cfg.DBName = configString(config, "database", "")
	cfg.ParseTime = true
	cfg.Timeout = queryTimeout
	cfg.ReadTimeout = queryTimeout
	if configBool(config, "ssl") {
		cfg.TLSConfig = "preferred"
	}

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql connection: %w", err)
	}
	return db, nil
}

// Test verifies connectivity with a ping plus a trivial query.
func (c *MySQLConnector) Test(ctx context.Context, config map[string]any) error {
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
func (c *MySQLConnector) Query(ctx context.Context, config map[string]any, sqlText string, params []any) (*QueryData, error) {
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

// ListTables returns the base tables of the connected database.
func (c *MySQLConnector) ListTables(ctx context.Context, config map[string]any) ([]string, error) {
	result, err := c.Query(ctx, config, `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`, nil)
	if err != nil {
		return nil, err
	}

	tables := make([]string, 0, result.RowCount)
	for _, row := range result.Data {
		if name, ok := row["TABLE_NAME"].(string); ok {
			tables = append(tables, name)
		}
	}
	return tables, nil
}

// baseTypePattern extracts "varchar" from definitions like "varchar(255)".
var baseTypePattern = regexp.MustCompile(`^(\w+)`)

func baseType(typeDefinition string) string {
	if m := baseTypePattern.FindString(typeDefinition); m != "" {
		return m
	}
	return typeDefinition
}

// TableColumns introspects one table via SHOW COLUMNS and normalizes
// the MySQL catalog shape into the common column form.
func (c *MySQLConnector) TableColumns(ctx context.Context, config map[string]any, table string) ([]models.ColumnInfo, error) {
	// SHOW COLUMNS does not accept placeholders; the identifier is
	// validated and backtick-quoted instead.
	if !validIdentifier(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}
	result, err := c.Query(ctx, config, fmt.Sprintf("SHOW COLUMNS FROM `%s`", table), nil)
	if err != nil {
		return nil, err
	}

	columns := make([]models.ColumnInfo, 0, result.RowCount)
	for _, row := range result.Data {
		name, _ := row["Field"].(string)
		typeDef, _ := row["Type"].(string)
		nullable, _ := row["Null"].(string)
		key, _ := row["Key"].(string)
		columns = append(columns, models.ColumnInfo{
			Name:     name,
			Type:     baseType(typeDef),
			Nullable: strings.EqualFold(nullable, "YES"),
			Key:      key,
		})
	}
	return columns, nil
}

// GetSchema returns the full normalized schema with table and column
// comments from information_schema.
func (c *MySQLConnector) GetSchema(ctx context.Context, config map[string]any) ([]models.TableSchema, error) {
	tableRows, err := c.Query(ctx, config, `
		SELECT TABLE_NAME, TABLE_COMMENT
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`, nil)
	if err != nil {
		return nil, err
	}

	tables := make([]models.TableSchema, 0, tableRows.RowCount)
	for _, row := range tableRows.Data {
		name, _ := row["TABLE_NAME"].(string)
		comment, _ := row["TABLE_COMMENT"].(string)

		colRows, err := c.Query(ctx, config, `
			SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, COLUMN_KEY, COLUMN_COMMENT
			FROM INFORMATION_SCHEMA.COLUMNS
			WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
			ORDER BY ORDINAL_POSITION`, []any{name})
		if err != nil {
			return nil, err
		}

		columns := make([]models.ColumnInfo, 0, colRows.RowCount)
		for _, col := range colRows.Data {
			colName, _ := col["COLUMN_NAME"].(string)
			dataType, _ := col["DATA_TYPE"].(string)
			nullable, _ := col["IS_NULLABLE"].(string)
			key, _ := col["COLUMN_KEY"].(string)
			colComment, _ := col["COLUMN_COMMENT"].(string)
			columns = append(columns, models.ColumnInfo{
				Name:     colName,
				Type:     dataType,
				Nullable: strings.EqualFold(nullable, "YES"),
				Key:      key,
				Comment:  colComment,
			})
		}

		tables = append(tables, models.TableSchema{Name: name, Comment: comment, Columns: columns})
	}
	return tables, nil
}

// ConfigFields returns the MySQL-family configuration descriptors.
func (c *MySQLConnector) ConfigFields() []ConfigField {
	return []ConfigField{
		{Name: "host", Label: "Host", Kind: "text", Required: true, Default: "localhost"},
		{Name: "port", Label: "Port", Kind: "number", Required: true, Default: 3306},
		{Name: "database", Label: "Database", Kind: "text", Required: true},
		{Name: "username", Label: "Username", Kind: "text", Required: true},
		{Name: "password", Label: "Password", Kind: "password", Required: false},
		{Name: "ssl", Label: "Use SSL", Kind: "checkbox", Required: false, Default: false},
	}
}

var _ Connector = (*MySQLConnector)(nil)
