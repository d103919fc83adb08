package services

import (
	"context"

	"github.com/luminabi/lumina-engine/pkg/adapters/datasource"
	"github.com/luminabi/lumina-engine/pkg/models"
)

// stubGateway fakes the connection manager for service tests.
type stubGateway struct {
	listTablesFunc   func(ctx context.Context, ds *models.DataSource) ([]string, error)
	tableColumnsFunc func(ctx context.Context, ds *models.DataSource, table string) ([]models.ColumnInfo, error)
	executeQueryFunc func(ctx context.Context, ds *models.DataSource, sqlText string, params []any) (*datasource.QueryData, error)

	executedQueries []string
}

func (s *stubGateway) ListTables(ctx context.Context, ds *models.DataSource) ([]string, error) {
	return s.listTablesFunc(ctx, ds)
}

func (s *stubGateway) TableColumns(ctx context.Context, ds *models.DataSource, table string) ([]models.ColumnInfo, error) {
	return s.tableColumnsFunc(ctx, ds, table)
}

func (s *stubGateway) ExecuteQuery(ctx context.Context, ds *models.DataSource, sqlText string, params []any) (*datasource.QueryData, error) {
	s.executedQueries = append(s.executedQueries, sqlText)
	return s.executeQueryFunc(ctx, ds, sqlText, params)
}

var _ DataSourceGateway = (*stubGateway)(nil)

// stubSchemaAnalyzer returns a fixed schema.
type stubSchemaAnalyzer struct {
	schema        models.SchemaMap
	relationships []models.Relationship
	err           error
}

func (s *stubSchemaAnalyzer) GetSchemaContext(context.Context, *models.DataSource) (models.SchemaMap, error) {
	return s.schema, s.err
}

func (s *stubSchemaAnalyzer) GetTableRelationships(context.Context, *models.DataSource) ([]models.Relationship, error) {
	return s.relationships, nil
}

func (s *stubSchemaAnalyzer) GetSampleData(context.Context, *models.DataSource, string, int) ([]map[string]any, error) {
	return nil, nil
}

var _ SchemaAnalyzer = (*stubSchemaAnalyzer)(nil)

// stubQueryService routes executions through a function, recording SQL.
type stubQueryService struct {
	executeFunc func(sqlText string, limit int) *models.QueryResult

	executed []string
	saved    []*models.SavedQuery
	saveErr  error
}

func (s *stubQueryService) ValidateQuery(string) error { return nil }

func (s *stubQueryService) ExecuteQuery(_ context.Context, _ *models.DataSource, sqlText string, limit int) *models.QueryResult {
	s.executed = append(s.executed, sqlText)
	return s.executeFunc(sqlText, limit)
}

func (s *stubQueryService) ExecuteQueryWithParams(ctx context.Context, ds *models.DataSource, sqlText string, _ []any, limit int) *models.QueryResult {
	return s.ExecuteQuery(ctx, ds, sqlText, limit)
}

func (s *stubQueryService) SaveQuery(_ context.Context, query *models.SavedQuery) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, query)
	return nil
}

var _ QueryService = (*stubQueryService)(nil)

// stubTranslator returns fixed translation outcomes.
type stubTranslator struct {
	result    *TranslationResult
	err       error
	followUps []string
}

func (s *stubTranslator) Translate(context.Context, string, *models.DataSource) (*TranslationResult, error) {
	return s.result, s.err
}

func (s *stubTranslator) ExplainQuery(context.Context, string, string) string {
	return "explanation"
}

func (s *stubTranslator) SuggestFollowUp(context.Context, string, *models.QueryResult) []string {
	return s.followUps
}

var _ Translator = (*stubTranslator)(nil)
