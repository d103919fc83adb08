// Package services holds the query-engine core: schema analysis, query
// execution, natural-language translation, insights and visualization.
package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/luminabi/lumina-engine/pkg/adapters/datasource"
	"github.com/luminabi/lumina-engine/pkg/cache"
	"github.com/luminabi/lumina-engine/pkg/models"
	sqlsafe "github.com/luminabi/lumina-engine/pkg/sql"
)

// DataSourceGateway is the slice of the connection manager the services
// depend on. *datasource.Manager implements it.
type DataSourceGateway interface {
	ListTables(ctx context.Context, ds *models.DataSource) ([]string, error)
	TableColumns(ctx context.Context, ds *models.DataSource, table string) ([]models.ColumnInfo, error)
	ExecuteQuery(ctx context.Context, ds *models.DataSource, sqlText string, params []any) (*datasource.QueryData, error)
}

var _ DataSourceGateway = (*datasource.Manager)(nil)

// SchemaAnalyzer builds normalized schema context for a datasource and
// detects foreign-key relationships. Results are cached read-through.
type SchemaAnalyzer interface {
	// GetSchemaContext returns the table -> columns map, relevance-capped
	// when the source has more tables than the configured limit.
	GetSchemaContext(ctx context.Context, ds *models.DataSource) (models.SchemaMap, error)

	// GetTableRelationships returns the foreign-key edges of the source.
	GetTableRelationships(ctx context.Context, ds *models.DataSource) ([]models.Relationship, error)

	// GetSampleData fetches up to limit rows from one table. Not cached.
	GetSampleData(ctx context.Context, ds *models.DataSource, table string, limit int) ([]map[string]any, error)
}

// SchemaAnalyzerConfig bounds schema analysis.
type SchemaAnalyzerConfig struct {
	SchemaTTL        time.Duration
	RelationshipsTTL time.Duration
	MaxTables        int
}

// DefaultSchemaAnalyzerConfig matches the documented defaults.
func DefaultSchemaAnalyzerConfig() SchemaAnalyzerConfig {
	return SchemaAnalyzerConfig{
		SchemaTTL:        time.Hour,
		RelationshipsTTL: time.Hour,
		MaxTables:        50,
	}
}

type schemaAnalyzer struct {
	manager DataSourceGateway
	store   cache.Store
	cfg     SchemaAnalyzerConfig
	logger  *zap.Logger
}

// NewSchemaAnalyzer creates the schema analyzer.
func NewSchemaAnalyzer(manager DataSourceGateway, store cache.Store, cfg SchemaAnalyzerConfig, logger *zap.Logger) SchemaAnalyzer {
	if cfg.MaxTables <= 0 {
		cfg.MaxTables = 50
	}
	if cfg.SchemaTTL <= 0 {
		cfg.SchemaTTL = time.Hour
	}
	if cfg.RelationshipsTTL <= 0 {
		cfg.RelationshipsTTL = time.Hour
	}
	return &schemaAnalyzer{
		manager: manager,
		store:   store,
		cfg:     cfg,
		logger:  logger.Named("schema-analyzer"),
	}
}

func (s *schemaAnalyzer) GetSchemaContext(ctx context.Context, ds *models.DataSource) (models.SchemaMap, error) {
	cacheKey := "schema:" + ds.ID.String()
	if cached, ok := cache.GetJSON[models.SchemaMap](ctx, s.store, cacheKey); ok {
		return cached, nil
	}

	tables, err := s.manager.ListTables(ctx, ds)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	tables = RankTablesByRelevance(tables, s.cfg.MaxTables)

	schema := make(models.SchemaMap, len(tables))
	for _, table := range tables {
		columns, err := s.manager.TableColumns(ctx, ds, table)
		if err != nil {
			// A single unreadable table must not sink the whole analysis.
			s.logger.Warn("skipping table during schema analysis",
				zap.String("datasource_id", ds.ID.String()),
				zap.String("table", table),
				zap.Error(err))
			continue
		}
		schema[table] = columns
	}

	cache.SetJSON(ctx, s.store, cacheKey, schema, s.cfg.SchemaTTL)
	return schema, nil
}

// mysqlRelationshipsQuery and pgRelationshipsQuery read the foreign-key
// catalog of each engine family.
const (
	mysqlRelationshipsQuery = `
		SELECT
			TABLE_NAME,
			COLUMN_NAME,
			REFERENCED_TABLE_NAME,
			REFERENCED_COLUMN_NAME
		FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE
		WHERE REFERENCED_TABLE_NAME IS NOT NULL
			AND TABLE_SCHEMA = DATABASE()`

	pgRelationshipsQuery = `
		SELECT
			tc.table_name,
			kcu.column_name,
			ccu.table_name AS referenced_table_name,
			ccu.column_name AS referenced_column_name
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name
		WHERE tc.constraint_type = 'FOREIGN KEY'`
)

func (s *schemaAnalyzer) GetTableRelationships(ctx context.Context, ds *models.DataSource) ([]models.Relationship, error) {
	cacheKey := "relationships:" + ds.ID.String()
	if cached, ok := cache.GetJSON[[]models.Relationship](ctx, s.store, cacheKey); ok {
		return cached, nil
	}

	var query string
	if ds.Engine.IsMySQLFamily() {
		query = mysqlRelationshipsQuery
	} else {
		query = pgRelationshipsQuery
	}

	result, err := s.manager.ExecuteQuery(ctx, ds, query, nil)
	if err != nil {
		s.logger.Warn("relationship detection failed",
			zap.String("datasource_id", ds.ID.String()),
			zap.Error(err))
		return []models.Relationship{}, nil
	}

	relationships := make([]models.Relationship, 0, result.RowCount)
	for _, row := range result.Data {
		relationships = append(relationships, models.Relationship{
			FromTable:  rowString(row, "TABLE_NAME", "table_name"),
			FromColumn: rowString(row, "COLUMN_NAME", "column_name"),
			ToTable:    rowString(row, "REFERENCED_TABLE_NAME", "referenced_table_name"),
			ToColumn:   rowString(row, "REFERENCED_COLUMN_NAME", "referenced_column_name"),
		})
	}

	cache.SetJSON(ctx, s.store, cacheKey, relationships, s.cfg.RelationshipsTTL)
	return relationships, nil
}

func (s *schemaAnalyzer) GetSampleData(ctx context.Context, ds *models.DataSource, table string, limit int) ([]map[string]any, error) {
	if !sqlsafe.ValidIdentifier(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}
	if limit <= 0 {
		limit = 5
	}
	result, err := s.manager.ExecuteQuery(ctx, ds, fmt.Sprintf("SELECT * FROM %s LIMIT %d", table, limit), nil)
	if err != nil {
		return nil, err
	}
	return result.Data, nil
}

func rowString(row map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := row[key].(string); ok {
			return v
		}
	}
	return ""
}

// Table-name relevance scoring. Business entities rank high so that the
// table cap keeps the tables a question is most likely to reference;
// infrastructure tables rank low.
var (
	highValueKeywords = map[string]int{
		"reservation":  10,
		"booking":      10,
		"revenue":      10,
		"payment":      9,
		"invoice":      9,
		"transaction":  9,
		"order":        9,
		"sale":         9,
		"customer":     8,
		"subscription": 8,
		"product":      8,
		"user":         7,
		"account":      7,
	}

	lowValueKeywords = []string{
		"log", "migration", "cache", "session", "job", "queue",
		"failed", "token", "temp",
	}

	defaultTableScore = 3
	prefixBonus       = 2
)

// scoreTableName computes the relevance score of one table name:
// case-insensitive substring match, max over matched keywords, with a
// bonus when a high-value keyword leads the name.
func scoreTableName(name string) int {
	lower := strings.ToLower(name)

	score := 0
	matched := false
	for keyword, weight := range highValueKeywords {
		if strings.Contains(lower, keyword) {
			matched = true
			candidate := weight
			if strings.HasPrefix(lower, keyword) {
				candidate += prefixBonus
			}
			if candidate > score {
				score = candidate
			}
		}
	}
	if matched {
		return score
	}

	for _, keyword := range lowValueKeywords {
		if strings.Contains(lower, keyword) {
			return 1
		}
	}
	return defaultTableScore
}

// RankTablesByRelevance orders tables by descending score, breaking
// ties lexically, and truncates to max. The ordering is deterministic:
// repeated calls over the same list always agree.
func RankTablesByRelevance(tables []string, max int) []string {
	if max <= 0 || len(tables) <= max {
		sorted := make([]string, len(tables))
		copy(sorted, tables)
		sort.Strings(sorted)
		return sorted
	}

	type ranked struct {
		name  string
		score int
	}
	scored := make([]ranked, 0, len(tables))
	for _, t := range tables {
		scored = append(scored, ranked{name: t, score: scoreTableName(t)})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].name < scored[j].name
	})

	top := make([]string, 0, max)
	for _, r := range scored[:max] {
		top = append(top, r.name)
	}
	return top
}

var _ SchemaAnalyzer = (*schemaAnalyzer)(nil)
