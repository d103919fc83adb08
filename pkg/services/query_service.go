package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/luminabi/lumina-engine/pkg/logging"
	"github.com/luminabi/lumina-engine/pkg/models"
	"github.com/luminabi/lumina-engine/pkg/repositories"
	sqlsafe "github.com/luminabi/lumina-engine/pkg/sql"
)

const (
	// DefaultRowLimit is applied when the caller passes no limit.
	DefaultRowLimit = 1000
	// MaxRowLimit is the hard ceiling; larger requests are clamped.
	MaxRowLimit = 10000
)

// QueryService validates and executes read-only SQL against a
// datasource and persists successful executions.
type QueryService interface {
	// ValidateQuery applies the read-only keyword gate. Every SQL string
	// must pass it before execution.
	ValidateQuery(sqlText string) error

	// ExecuteQuery runs the query with a row limit, returning a result
	// that is safe to serialize to a caller even on failure.
	ExecuteQuery(ctx context.Context, ds *models.DataSource, sqlText string, limit int) *models.QueryResult

	// ExecuteQueryWithParams additionally screens positional parameter
	// values for injection patterns before execution.
	ExecuteQueryWithParams(ctx context.Context, ds *models.DataSource, sqlText string, params []any, limit int) *models.QueryResult

	// SaveQuery persists a successful execution.
	SaveQuery(ctx context.Context, query *models.SavedQuery) error
}

type queryService struct {
	manager DataSourceGateway
	queries repositories.SavedQueryRepository
	logger  *zap.Logger
}

// NewQueryService creates the query service. The repository may be nil
// when persistence is not wired; SaveQuery then fails explicitly.
func NewQueryService(manager DataSourceGateway, queries repositories.SavedQueryRepository, logger *zap.Logger) QueryService {
	return &queryService{
		manager: manager,
		queries: queries,
		logger:  logger.Named("query-service"),
	}
}

func (s *queryService) ValidateQuery(sqlText string) error {
	return sqlsafe.Validate(sqlText)
}

func (s *queryService) ExecuteQuery(ctx context.Context, ds *models.DataSource, sqlText string, limit int) *models.QueryResult {
	return s.ExecuteQueryWithParams(ctx, ds, sqlText, nil, limit)
}

func (s *queryService) ExecuteQueryWithParams(ctx context.Context, ds *models.DataSource, sqlText string, params []any, limit int) *models.QueryResult {
	start := time.Now()

	if err := sqlsafe.Validate(sqlText); err != nil {
		return failedResult(start, logging.SanitizeError(err))
	}
	if check := sqlsafe.CheckParameters(params); check != nil {
		s.logger.Warn("rejected query parameter with injection pattern",
			zap.String("datasource_id", ds.ID.String()),
			zap.Int("param_index", check.ParamIndex),
			zap.String("fingerprint", check.Fingerprint))
		return failedResult(start, fmt.Sprintf("parameter %d contains a disallowed pattern", check.ParamIndex))
	}

	if limit <= 0 {
		limit = DefaultRowLimit
	}
	if limit > MaxRowLimit {
		limit = MaxRowLimit
	}
	sqlText = sqlsafe.EnsureLimit(sqlsafe.StripTrailingSemicolon(sqlText), limit)

	data, err := s.manager.ExecuteQuery(ctx, ds, sqlText, params)
	if err != nil {
		s.logger.Error("query execution failed",
			zap.String("datasource_id", ds.ID.String()),
			zap.String("sql", logging.SanitizeQuery(sqlText)),
			zap.Error(err))
		return failedResult(start, logging.SanitizeError(err))
	}

	return &models.QueryResult{
		Success:         true,
		Data:            data.Data,
		Columns:         extractColumns(data.Data),
		RowCount:        data.RowCount,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
		// Advisory heuristic: a result of exactly limit rows was likely
		// cut off. A user-supplied larger LIMIT clause is left unflagged.
		Limited:         data.RowCount == limit,
	}
}

func (s *queryService) SaveQuery(ctx context.Context, query *models.SavedQuery) error {
	if s.queries == nil {
		return fmt.Errorf("no saved-query repository configured")
	}
	if err := s.queries.Create(ctx, query); err != nil {
		return fmt.Errorf("save query: %w", err)
	}
	return nil
}

func failedResult(start time.Time, message string) *models.QueryResult {
	return &models.QueryResult{
		Success:         false,
		Error:           message,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}
}

// extractColumns derives column descriptors from the first row. Display
// types are a best-effort guess from runtime values, not engine types.
func extractColumns(data []map[string]any) []models.ResultColumn {
	if len(data) == 0 {
		return []models.ResultColumn{}
	}

	first := data[0]
	names := make([]string, 0, len(first))
	for name := range first {
		names = append(names, name)
	}
	// Map iteration order is random; keep descriptors deterministic.
	sort.Strings(names)

	columns := make([]models.ResultColumn, 0, len(names))
	for _, name := range names {
		columns = append(columns, models.ResultColumn{
			Name: name,
			Type: guessColumnType(first[name]),
		})
	}
	return columns
}

// guessColumnType mirrors the inference ladder used for display typing:
// null, boolean, integer, float, numeric string, datetime, string.
func guessColumnType(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "integer"
	case float32:
		return "float"
	case float64:
		if v == float64(int64(v)) {
			return "integer"
		}
		return "float"
	case time.Time:
		return "datetime"
	case string:
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			return "numeric"
		}
		if looksLikeDatetime(v) {
			return "datetime"
		}
		return "string"
	default:
		return "string"
	}
}

var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01-02T15:04:05",
	"15:04:05",
}

func looksLikeDatetime(s string) bool {
	for _, layout := range datetimeLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

var _ QueryService = (*queryService)(nil)
