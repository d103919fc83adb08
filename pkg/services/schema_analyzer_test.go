package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/luminabi/lumina-engine/pkg/adapters/datasource"
	"github.com/luminabi/lumina-engine/pkg/cache"
	"github.com/luminabi/lumina-engine/pkg/models"
)

func TestScoreTableName(t *testing.T) {
	tests := []struct {
		name  string
		table string
		want  int
	}{
		{"reservation prefix gets bonus", "reservations", 12},
		{"reservation embedded", "hotel_reservations", 10},
		{"payment prefix", "payments", 11},
		{"user prefix", "users", 9},
		{"migration is low value", "schema_migrations", 1},
		{"failed jobs is low value", "failed_jobs", 1},
		{"unknown name gets default", "widgets", 3},
		{"highest keyword wins", "user_payments", 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scoreTableName(tt.table))
		})
	}
}

func TestRankTablesByRelevance(t *testing.T) {
	t.Run("under cap returns sorted copy", func(t *testing.T) {
		tables := []string{"users", "bookings", "products"}
		got := RankTablesByRelevance(tables, 10)
		assert.Equal(t, []string{"bookings", "products", "users"}, got)
		// Input untouched.
		assert.Equal(t, []string{"users", "bookings", "products"}, tables)
	})

	t.Run("over cap keeps highest scored", func(t *testing.T) {
		tables := []string{
			"schema_migrations",
			"cache_entries",
			"reservations",
			"payments",
			"widgets",
		}
		got := RankTablesByRelevance(tables, 3)
		assert.Equal(t, []string{"reservations", "payments", "widgets"}, got)
	})

	t.Run("ties break lexically", func(t *testing.T) {
		tables := []string{"zebra", "apple", "mango"}
		got := RankTablesByRelevance(tables, 2)
		assert.Equal(t, []string{"apple", "mango"}, got)
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		tables := []string{"orders", "sales", "invoices", "payments", "logs", "users"}
		first := RankTablesByRelevance(tables, 4)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, RankTablesByRelevance(tables, 4))
		}
	})
}

func testDataSource() *models.DataSource {
	return &models.DataSource{
		ID:     uuid.New(),
		Name:   "warehouse",
		Engine: models.EngineMySQL,
	}
}

func TestGetSchemaContextSkipsFailingTables(t *testing.T) {
	gateway := &stubGateway{
		listTablesFunc: func(context.Context, *models.DataSource) ([]string, error) {
			return []string{"reservations", "broken", "users"}, nil
		},
		tableColumnsFunc: func(_ context.Context, _ *models.DataSource, table string) ([]models.ColumnInfo, error) {
			if table == "broken" {
				return nil, fmt.Errorf("table metadata unavailable")
			}
			return []models.ColumnInfo{{Name: "id", Type: "int"}}, nil
		},
	}
	analyzer := NewSchemaAnalyzer(gateway, cache.Disabled{}, DefaultSchemaAnalyzerConfig(), zap.NewNop())

	schema, err := analyzer.GetSchemaContext(context.Background(), testDataSource())
	require.NoError(t, err)
	assert.Len(t, schema, 2)
	assert.Contains(t, schema, "reservations")
	assert.Contains(t, schema, "users")
	assert.NotContains(t, schema, "broken")
}

func TestGetSchemaContextCaches(t *testing.T) {
	listCalls := 0
	gateway := &stubGateway{
		listTablesFunc: func(context.Context, *models.DataSource) ([]string, error) {
			listCalls++
			return []string{"orders"}, nil
		},
		tableColumnsFunc: func(context.Context, *models.DataSource, string) ([]models.ColumnInfo, error) {
			return []models.ColumnInfo{{Name: "id", Type: "int"}}, nil
		},
	}
	analyzer := NewSchemaAnalyzer(gateway, cache.NewMemory(100), DefaultSchemaAnalyzerConfig(), zap.NewNop())

	ds := testDataSource()
	first, err := analyzer.GetSchemaContext(context.Background(), ds)
	require.NoError(t, err)
	second, err := analyzer.GetSchemaContext(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, 1, listCalls)
	assert.Equal(t, first, second)
}

func TestGetTableRelationships(t *testing.T) {
	t.Run("maps catalog rows", func(t *testing.T) {
		gateway := &stubGateway{
			executeQueryFunc: func(context.Context, *models.DataSource, string, []any) (*datasource.QueryData, error) {
				return &datasource.QueryData{
					Data: []map[string]any{
						{
							"TABLE_NAME":             "reservations",
							"COLUMN_NAME":            "user_id",
							"REFERENCED_TABLE_NAME":  "users",
							"REFERENCED_COLUMN_NAME": "id",
						},
					},
					RowCount: 1,
				}, nil
			},
		}
		analyzer := NewSchemaAnalyzer(gateway, cache.Disabled{}, DefaultSchemaAnalyzerConfig(), zap.NewNop())

		rels, err := analyzer.GetTableRelationships(context.Background(), testDataSource())
		require.NoError(t, err)
		require.Len(t, rels, 1)
		assert.Equal(t, "reservations", rels[0].FromTable)
		assert.Equal(t, "user_id", rels[0].FromColumn)
		assert.Equal(t, "users", rels[0].ToTable)
		assert.Equal(t, "id", rels[0].ToColumn)
	})

	t.Run("lowercase catalog keys", func(t *testing.T) {
		gateway := &stubGateway{
			executeQueryFunc: func(context.Context, *models.DataSource, string, []any) (*datasource.QueryData, error) {
				return &datasource.QueryData{
					Data: []map[string]any{
						{
							"table_name":             "saved_queries",
							"column_name":            "data_source_id",
							"referenced_table_name":  "data_sources",
							"referenced_column_name": "id",
						},
					},
					RowCount: 1,
				}, nil
			},
		}
		analyzer := NewSchemaAnalyzer(gateway, cache.Disabled{}, DefaultSchemaAnalyzerConfig(), zap.NewNop())

		ds := testDataSource()
		ds.Engine = models.EnginePostgreSQL
		rels, err := analyzer.GetTableRelationships(context.Background(), ds)
		require.NoError(t, err)
		require.Len(t, rels, 1)
		assert.Equal(t, "saved_queries", rels[0].FromTable)
	})

	t.Run("catalog failure degrades to empty", func(t *testing.T) {
		gateway := &stubGateway{
			executeQueryFunc: func(context.Context, *models.DataSource, string, []any) (*datasource.QueryData, error) {
				return nil, fmt.Errorf("permission denied")
			},
		}
		analyzer := NewSchemaAnalyzer(gateway, cache.Disabled{}, DefaultSchemaAnalyzerConfig(), zap.NewNop())

		rels, err := analyzer.GetTableRelationships(context.Background(), testDataSource())
		require.NoError(t, err)
		assert.Empty(t, rels)
	})
}

func TestGetSampleData(t *testing.T) {
	t.Run("rejects unsafe table name", func(t *testing.T) {
		analyzer := NewSchemaAnalyzer(&stubGateway{}, cache.Disabled{}, DefaultSchemaAnalyzerConfig(), zap.NewNop())
		_, err := analyzer.GetSampleData(context.Background(), testDataSource(), "users; DROP TABLE users", 5)
		assert.Error(t, err)
	})

	t.Run("defaults the limit", func(t *testing.T) {
		gateway := &stubGateway{
			executeQueryFunc: func(context.Context, *models.DataSource, string, []any) (*datasource.QueryData, error) {
				return &datasource.QueryData{Data: []map[string]any{{"id": 1}}, RowCount: 1}, nil
			},
		}
		analyzer := NewSchemaAnalyzer(gateway, cache.Disabled{}, DefaultSchemaAnalyzerConfig(), zap.NewNop())

		rows, err := analyzer.GetSampleData(context.Background(), testDataSource(), "users", 0)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
		require.Len(t, gateway.executedQueries, 1)
		assert.Equal(t, "SELECT * FROM users LIMIT 5", gateway.executedQueries[0])
	})
}
