package models

import "sort"

// ColumnInfo is the normalized column shape shared by all engines.
// Key follows the MySQL convention: "PRI", "MUL", "UNI" or empty.
type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Key      string `json:"key,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

// TableSchema describes a single table with its ordered columns.
type TableSchema struct {
	Name    string       `json:"name"`
	Comment string       `json:"comment,omitempty"`
	Columns []ColumnInfo `json:"columns"`
}

// SchemaMap maps table name to its ordered column list. It is the
// normalized inventory used to ground prompt construction, derived from
// the datasource and cached with a TTL.
type SchemaMap map[string][]ColumnInfo

// SortedTables returns the table names in lexical order, so prompt
// construction and cache keys are deterministic.
func (s SchemaMap) SortedTables() []string {
	tables := make([]string, 0, len(s))
	for name := range s {
		tables = append(tables, name)
	}
	sort.Strings(tables)
	return tables
}

// Relationship is a foreign-key edge between two table columns.
type Relationship struct {
	FromTable  string `json:"from_table"`
	FromColumn string `json:"from_column"`
	ToTable    string `json:"to_table"`
	ToColumn   string `json:"to_column"`
}
