package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/luminabi/lumina-engine/pkg/models"
)

func newVisualizationService() VisualizationService {
	return NewVisualizationService(zap.NewNop())
}

func timeSeriesResult(rows int) *models.QueryResult {
	data := make([]map[string]any, rows)
	for i := range data {
		data[i] = map[string]any{
			"month":   fmt.Sprintf("2026-%02d", i+1),
			"revenue": float64(1000 + i*100),
		}
	}
	return &models.QueryResult{
		Success: true,
		Data:    data,
		Columns: []models.ResultColumn{
			{Name: "month", Type: "string"},
			{Name: "revenue", Type: "float"},
		},
		RowCount: rows,
	}
}

func categoricalResult(rows int) *models.QueryResult {
	data := make([]map[string]any, rows)
	for i := range data {
		data[i] = map[string]any{
			"status": fmt.Sprintf("status_%d", i),
			"count":  float64(i + 1),
		}
	}
	return &models.QueryResult{
		Success: true,
		Data:    data,
		Columns: []models.ResultColumn{
			{Name: "status", Type: "string"},
			{Name: "count", Type: "integer"},
		},
		RowCount: rows,
	}
}

func TestRecommendVisualizationEmptyResult(t *testing.T) {
	svc := newVisualizationService()

	for _, result := range []*models.QueryResult{nil, {Success: true}} {
		rec := svc.RecommendVisualization(result, "anything")
		assert.False(t, rec.Success)
		assert.Equal(t, models.ChartTable, rec.Recommendation.ChartType)
		assert.NotNil(t, rec.Alternatives)
	}
}

func TestRecommendVisualizationTimeSeries(t *testing.T) {
	svc := newVisualizationService()

	rec := svc.RecommendVisualization(timeSeriesResult(6), "revenue by month")
	require.True(t, rec.Success)
	assert.Equal(t, models.ChartLine, rec.Recommendation.ChartType)
	assert.Equal(t, "month", rec.Recommendation.Config.XAxis)
	assert.Equal(t, "revenue", rec.Recommendation.Config.YAxis)
	assert.LessOrEqual(t, len(rec.Alternatives), 3)
}

func TestRecommendVisualizationYearOverYear(t *testing.T) {
	svc := newVisualizationService()

	result := &models.QueryResult{
		Success: true,
		Data: []map[string]any{
			{"year": "2025", "month": "01", "revenue": float64(900)},
			{"year": "2025", "month": "02", "revenue": float64(950)},
			{"year": "2026", "month": "01", "revenue": float64(1100)},
			{"year": "2026", "month": "02", "revenue": float64(1200)},
		},
		Columns: []models.ResultColumn{
			{Name: "year", Type: "string"},
			{Name: "month", Type: "string"},
			{Name: "revenue", Type: "float"},
		},
		RowCount: 4,
	}
	rec := svc.RecommendVisualization(result, "revenue this year vs last year")
	require.True(t, rec.Success)
	assert.Equal(t, models.ChartLine, rec.Recommendation.ChartType)
	assert.Equal(t, "month", rec.Recommendation.Config.XAxis)
	assert.Equal(t, "year", rec.Recommendation.Config.SeriesBy)
}

func TestRecommendVisualizationGroupedBar(t *testing.T) {
	svc := newVisualizationService()

	result := &models.QueryResult{
		Success: true,
		Data: []map[string]any{
			{"region": "north", "channel": "web", "total": float64(100)},
			{"region": "north", "channel": "phone", "total": float64(60)},
			{"region": "south", "channel": "web", "total": float64(80)},
			{"region": "south", "channel": "phone", "total": float64(40)},
		},
		Columns: []models.ResultColumn{
			{Name: "region", Type: "string"},
			{Name: "channel", Type: "string"},
			{Name: "total", Type: "float"},
		},
		RowCount: 4,
	}
	rec := svc.RecommendVisualization(result, "totals by region and channel")
	require.True(t, rec.Success)
	assert.Equal(t, models.ChartGroupedBar, rec.Recommendation.ChartType)
	assert.Equal(t, "total", rec.Recommendation.Config.YAxis)
	assert.NotEmpty(t, rec.Recommendation.Config.SeriesBy)
	assert.NotEqual(t, rec.Recommendation.Config.XAxis, rec.Recommendation.Config.SeriesBy)
}

func TestRecommendVisualizationPieVsBar(t *testing.T) {
	svc := newVisualizationService()

	t.Run("few categories get a pie", func(t *testing.T) {
		rec := svc.RecommendVisualization(categoricalResult(5), "bookings by status")
		require.True(t, rec.Success)
		assert.Equal(t, models.ChartPie, rec.Recommendation.ChartType)
		assert.Equal(t, "status", rec.Recommendation.Config.Dimension)
		assert.Equal(t, "count", rec.Recommendation.Config.Metric)
	})

	t.Run("too many categories fall back to bar", func(t *testing.T) {
		rec := svc.RecommendVisualization(categoricalResult(15), "bookings by status")
		require.True(t, rec.Success)
		assert.Equal(t, models.ChartBar, rec.Recommendation.ChartType)
		assert.Equal(t, "status", rec.Recommendation.Config.XAxis)
	})

	t.Run("too many rows fall back to bar", func(t *testing.T) {
		rec := svc.RecommendVisualization(categoricalResult(25), "bookings by status")
		require.True(t, rec.Success)
		assert.Equal(t, models.ChartBar, rec.Recommendation.ChartType)
	})
}

func TestRecommendVisualizationScatter(t *testing.T) {
	svc := newVisualizationService()

	result := &models.QueryResult{
		Success: true,
		Data: []map[string]any{
			{"price": float64(10), "quantity": float64(5)},
			{"price": float64(20), "quantity": float64(3)},
		},
		Columns: []models.ResultColumn{
			{Name: "price", Type: "float"},
			{Name: "quantity", Type: "integer"},
		},
		RowCount: 2,
	}
	rec := svc.RecommendVisualization(result, "price vs quantity")
	require.True(t, rec.Success)
	assert.Equal(t, models.ChartScatter, rec.Recommendation.ChartType)
	assert.Equal(t, "price", rec.Recommendation.Config.XAxis)
	assert.Equal(t, "quantity", rec.Recommendation.Config.YAxis)
}

func TestRecommendVisualizationTableDefault(t *testing.T) {
	svc := newVisualizationService()

	result := &models.QueryResult{
		Success: true,
		Data: []map[string]any{
			{"name": "alpha"},
			{"name": "beta"},
		},
		Columns:  []models.ResultColumn{{Name: "name", Type: "string"}},
		RowCount: 2,
	}
	rec := svc.RecommendVisualization(result, "list names")
	require.True(t, rec.Success)
	assert.Equal(t, models.ChartTable, rec.Recommendation.ChartType)
}

func TestGenerateChartConfig(t *testing.T) {
	svc := newVisualizationService()

	t.Run("empty result", func(t *testing.T) {
		assert.Equal(t, models.ChartConfig{}, svc.GenerateChartConfig(nil, models.ChartBar))
		assert.Equal(t, models.ChartConfig{}, svc.GenerateChartConfig(&models.QueryResult{}, models.ChartBar))
	})

	t.Run("bar family", func(t *testing.T) {
		cfg := svc.GenerateChartConfig(timeSeriesResult(3), models.ChartBar)
		assert.Equal(t, models.ChartBar, cfg.ChartType)
		assert.Equal(t, "month", cfg.XAxis)
		assert.Equal(t, "revenue", cfg.YAxis)
		assert.Equal(t, []string{"revenue"}, cfg.Series)
	})

	t.Run("pie", func(t *testing.T) {
		cfg := svc.GenerateChartConfig(categoricalResult(4), models.ChartPie)
		assert.Equal(t, models.ChartPie, cfg.ChartType)
		assert.Equal(t, "status", cfg.Dimension)
		assert.Equal(t, "count", cfg.Metric)
	})

	t.Run("scatter", func(t *testing.T) {
		result := &models.QueryResult{
			Success: true,
			Data:    []map[string]any{{"price": 1.0, "quantity": 2.0, "weight": 3.0}},
			Columns: []models.ResultColumn{
				{Name: "price", Type: "float"},
				{Name: "quantity", Type: "float"},
				{Name: "weight", Type: "float"},
			},
			RowCount: 1,
		}
		cfg := svc.GenerateChartConfig(result, models.ChartScatter)
		assert.Equal(t, models.ChartScatter, cfg.ChartType)
		assert.Equal(t, "price", cfg.XAxis)
		assert.Equal(t, "quantity", cfg.YAxis)
		assert.Equal(t, "weight", cfg.SizeAxis)
	})

	t.Run("table", func(t *testing.T) {
		cfg := svc.GenerateChartConfig(categoricalResult(2), models.ChartTable)
		assert.Equal(t, models.ChartTable, cfg.ChartType)
		require.Len(t, cfg.Columns, 2)
		assert.Equal(t, "status", cfg.Columns[0].Field)
		assert.Equal(t, "Status", cfg.Columns[0].Header)
	})

	t.Run("unknown chart type", func(t *testing.T) {
		assert.Equal(t, models.ChartConfig{}, svc.GenerateChartConfig(categoricalResult(2), "sankey"))
	})
}

func TestShapeClassification(t *testing.T) {
	t.Run("iso date samples classify as time", func(t *testing.T) {
		assert.True(t, isTimeColumn("period", "string", []any{"2026-01-15", "2026-02-15"}))
	})

	t.Run("numeric majority vote", func(t *testing.T) {
		assert.True(t, isNumericColumn("string", []any{"1", "2", "3", "4", "5"}))
		assert.False(t, isNumericColumn("string", []any{"1", "two", "three"}))
		assert.False(t, isNumericColumn("string", nil))
	})

	t.Run("declared numeric type", func(t *testing.T) {
		assert.True(t, isNumericColumn("decimal(10,2)", nil))
		assert.True(t, isNumericColumn("bigint", nil))
	})

	t.Run("distinct values", func(t *testing.T) {
		data := []map[string]any{
			{"s": "a"}, {"s": "b"}, {"s": "a"}, {"s": nil},
		}
		assert.Equal(t, 3, distinctValues(data, "s"))
	})
}
