package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/luminabi/lumina-engine/pkg/cache"
	"github.com/luminabi/lumina-engine/pkg/llm"
	"github.com/luminabi/lumina-engine/pkg/models"
)

const (
	maxInsights          = 5
	maxMetricsPerTable   = 3
	resultSummaryTokens  = 150
	anomalyRecentDays    = 7
	anomalyWindowDays    = 30
	trendWindowMonths    = 3
	defaultAnomalyZScore = 2.0
)

// InsightsService runs statistical scans over a datasource's numeric
// and time columns and ranks the findings.
type InsightsService interface {
	// GenerateProactiveInsights produces the ranked top insights for a
	// datasource. The report is cached; a failed generation is reported
	// in the result, not as an error.
	GenerateProactiveInsights(ctx context.Context, ds *models.DataSource) *models.InsightReport

	// ExplainQueryResult produces a conversational explanation of a
	// query result. Degrades to a row-count sentence on model failure.
	ExplainQueryResult(ctx context.Context, result *models.QueryResult, originalQuestion string) string
}

// InsightsConfig bounds insight generation.
type InsightsConfig struct {
	InsightsTTL   time.Duration
	AnomalyZScore float64
}

type insightsService struct {
	queries QueryService
	schema  SchemaAnalyzer
	client  llm.Client
	store   cache.Store
	ttl     time.Duration
	zScore  float64
	logger  *zap.Logger
}

// NewInsightsService creates the insights generator. The LLM client may
// be nil; ExplainQueryResult then always uses the degraded summary.
func NewInsightsService(queries QueryService, schema SchemaAnalyzer, client llm.Client, store cache.Store, cfg InsightsConfig, logger *zap.Logger) InsightsService {
	ttl := cfg.InsightsTTL
	if ttl <= 0 {
		ttl = 1800 * time.Second
	}
	zScore := cfg.AnomalyZScore
	if zScore <= 0 {
		zScore = defaultAnomalyZScore
	}
	return &insightsService{
		queries: queries,
		schema:  schema,
		client:  client,
		store:   store,
		ttl:     ttl,
		zScore:  zScore,
		logger:  logger.Named("insights"),
	}
}

func (s *insightsService) GenerateProactiveInsights(ctx context.Context, ds *models.DataSource) *models.InsightReport {
	cacheKey := "proactive_insights:" + ds.ID.String()
	if cached, ok := cache.GetJSON[*models.InsightReport](ctx, s.store, cacheKey); ok && cached != nil {
		return cached
	}

	schema, err := s.schema.GetSchemaContext(ctx, ds)
	if err != nil || len(schema) == 0 {
		s.logger.Error("insights generation failed",
			zap.String("datasource_id", ds.ID.String()),
			zap.Error(err))
		return &models.InsightReport{
			Success:  false,
			Insights: []models.Insight{},
			Error:    "Failed to generate insights",
		}
	}

	var insights []models.Insight
	insights = append(insights, s.analyzeKeyMetrics(ctx, ds, schema)...)
	insights = append(insights, s.detectAnomalies(ctx, ds, schema)...)
	insights = append(insights, s.analyzeTrends(ctx, ds, schema)...)

	// Rank by priority (1 = most important), stable within a priority.
	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].Priority < insights[j].Priority
	})
	if len(insights) > maxInsights {
		insights = insights[:maxInsights]
	}
	if insights == nil {
		insights = []models.Insight{}
	}

	report := &models.InsightReport{
		Success:     true,
		Insights:    insights,
		GeneratedAt: time.Now().UTC(),
	}
	cache.SetJSON(ctx, s.store, cacheKey, report, s.ttl)
	return report
}

func (s *insightsService) ExplainQueryResult(ctx context.Context, result *models.QueryResult, originalQuestion string) string {
	rowCount := 0
	if result != nil {
		rowCount = len(result.Data)
	}
	degraded := fmt.Sprintf("The query returned %d results.", rowCount)
	if s.client == nil {
		return degraded
	}

	prompt := fmt.Sprintf(`Based on this question: %q
And these query results:
%s

Provide a brief, conversational explanation of what the data shows.
Focus on key findings and insights relevant to the question.
Keep it under 3 sentences.`, originalQuestion, summarizeQueryResult(result))

	response, err := s.client.GenerateResponse(ctx, prompt, "", resultSummaryTokens)
	if err != nil {
		s.logger.Warn("result explanation failed", zap.Error(err))
		return degraded
	}
	explanation := strings.TrimSpace(response)
	if explanation == "" {
		return degraded
	}
	return explanation
}

func (s *insightsService) analyzeKeyMetrics(ctx context.Context, ds *models.DataSource, schema models.SchemaMap) []models.Insight {
	var insights []models.Insight
	for _, table := range schema.SortedTables() {
		for _, metric := range findMetricColumns(schema[table]) {
			if insight := s.analyzeMetricColumn(ctx, ds, table, metric); insight != nil {
				insights = append(insights, *insight)
			}
		}
	}
	return insights
}

func (s *insightsService) analyzeMetricColumn(ctx context.Context, ds *models.DataSource, table, column string) *models.Insight {
	sqlText := fmt.Sprintf(`SELECT
		COUNT(%[1]s) AS metric_count,
		AVG(%[1]s) AS average,
		MIN(%[1]s) AS minimum,
		MAX(%[1]s) AS maximum
		FROM %[2]s
		WHERE %[1]s IS NOT NULL`, column, table)

	result := s.queries.ExecuteQuery(ctx, ds, sqlText, 1)
	if !result.Success || len(result.Data) == 0 {
		return nil
	}
	stats := result.Data[0]

	display := displayName(column)
	return &models.Insight{
		Type:  models.InsightMetricSummary,
		Title: display + " Overview",
		Description: fmt.Sprintf("The %s ranges from %s to %s with an average of %s",
			strings.ToLower(display),
			formatNumber(stats["minimum"]),
			formatNumber(stats["maximum"]),
			formatNumber(stats["average"])),
		Data:              stats,
		SuggestedQuestion: fmt.Sprintf("What is the average %s?", column),
		Priority:          3,
	}
}

func (s *insightsService) detectAnomalies(ctx context.Context, ds *models.DataSource, schema models.SchemaMap) []models.Insight {
	var insights []models.Insight
	for _, table := range schema.SortedTables() {
		timeColumn := findTimeColumn(schema[table])
		if timeColumn == "" {
			continue
		}
		for _, metric := range findMetricColumns(schema[table]) {
			if insight := s.detectTimeBasedAnomaly(ctx, ds, table, timeColumn, metric); insight != nil {
				insights = append(insights, *insight)
			}
		}
	}
	return insights
}

// detectTimeBasedAnomaly compares the recent 7-day average of a metric
// against the preceding window and flags a z-score above the threshold.
func (s *insightsService) detectTimeBasedAnomaly(ctx context.Context, ds *models.DataSource, table, timeColumn, metricColumn string) *models.Insight {
	sqlText := fmt.Sprintf(`WITH recent AS (
		SELECT AVG(%[1]s) AS recent_avg
		FROM %[2]s
		WHERE %[3]s >= %[4]s
			AND %[1]s IS NOT NULL
	),
	historical AS (
		SELECT AVG(%[1]s) AS hist_avg, STDDEV(%[1]s) AS hist_stddev
		FROM %[2]s
		WHERE %[3]s >= %[5]s
			AND %[3]s < %[4]s
			AND %[1]s IS NOT NULL
	)
	SELECT
		recent.recent_avg,
		historical.hist_avg,
		historical.hist_stddev,
		ABS(recent.recent_avg - historical.hist_avg) / NULLIF(historical.hist_stddev, 0) AS zscore
	FROM recent, historical`,
		metricColumn, table, timeColumn,
		dateSubDays(ds.Engine, anomalyRecentDays),
		dateSubDays(ds.Engine, anomalyWindowDays))

	result := s.queries.ExecuteQuery(ctx, ds, sqlText, 1)
	if !result.Success || len(result.Data) == 0 {
		return nil
	}
	row := result.Data[0]

	zscore := toFloat(row["zscore"])
	if zscore <= s.zScore {
		return nil
	}

	recentAvg := toFloat(row["recent_avg"])
	histAvg := toFloat(row["hist_avg"])
	if histAvg == 0 {
		return nil
	}
	change := (recentAvg - histAvg) / histAvg * 100
	direction := "increased"
	if change < 0 {
		direction = "decreased"
	}

	display := displayName(metricColumn)
	return &models.Insight{
		Type:  models.InsightAnomaly,
		Title: "Unusual " + display,
		Description: fmt.Sprintf("%s has %s by %.1f%% in the last %d days compared to the previous %d-day average",
			display, direction, math.Abs(change), anomalyRecentDays, anomalyWindowDays),
		Data:              row,
		SuggestedQuestion: fmt.Sprintf("Show me recent changes in %s", metricColumn),
		Priority:          1,
	}
}

func (s *insightsService) analyzeTrends(ctx context.Context, ds *models.DataSource, schema models.SchemaMap) []models.Insight {
	var insights []models.Insight
	for _, table := range schema.SortedTables() {
		timeColumn := findTimeColumn(schema[table])
		if timeColumn == "" {
			continue
		}
		for _, metric := range findMetricColumns(schema[table]) {
			if insight := s.analyzeTrend(ctx, ds, table, timeColumn, metric); insight != nil {
				insights = append(insights, *insight)
			}
		}
	}
	return insights
}

// analyzeTrend computes the average month-over-month growth rate of a
// metric over the trailing trend window.
func (s *insightsService) analyzeTrend(ctx context.Context, ds *models.DataSource, table, timeColumn, metricColumn string) *models.Insight {
	bucket := monthBucket(ds.Engine, timeColumn)
	sqlText := fmt.Sprintf(`WITH monthly AS (
		SELECT
			%[4]s AS month,
			SUM(%[1]s) AS total
		FROM %[2]s
		WHERE %[3]s >= %[5]s
			AND %[1]s IS NOT NULL
		GROUP BY %[4]s
		ORDER BY month
	)
	SELECT
		month,
		total,
		LAG(total) OVER (ORDER BY month) AS prev_total
	FROM monthly`,
		metricColumn, table, timeColumn, bucket,
		dateSubMonths(ds.Engine, trendWindowMonths))

	result := s.queries.ExecuteQuery(ctx, ds, sqlText, 10)
	if !result.Success || len(result.Data) < 2 {
		return nil
	}

	var growthRates []float64
	for _, row := range result.Data {
		prev := toFloat(row["prev_total"])
		if prev > 0 {
			growthRates = append(growthRates, (toFloat(row["total"])-prev)/prev*100)
		}
	}
	if len(growthRates) == 0 {
		return nil
	}

	var sum float64
	for _, rate := range growthRates {
		sum += rate
	}
	avgGrowth := sum / float64(len(growthRates))
	direction := "growing"
	if avgGrowth <= 0 {
		direction = "declining"
	}

	display := displayName(metricColumn)
	return &models.Insight{
		Type:  models.InsightTrend,
		Title: display + " Trend",
		Description: fmt.Sprintf("%s is %s at an average rate of %.1f%% per month",
			display, direction, math.Abs(avgGrowth)),
		Data: map[string]any{
			"average_growth":  avgGrowth,
			"months_analyzed": len(result.Data),
		},
		SuggestedQuestion: fmt.Sprintf("Show me the trend for %s over time", metricColumn),
		Priority:          2,
	}
}

// Column discovery heuristics.

var timeColumnPatterns = []string{"created_at", "updated_at", "date", "timestamp", "datetime"}

func findTimeColumn(columns []models.ColumnInfo) string {
	for _, col := range columns {
		lower := strings.ToLower(col.Name)
		for _, pattern := range timeColumnPatterns {
			if strings.Contains(lower, pattern) {
				return col.Name
			}
		}
		switch strings.ToLower(col.Type) {
		case "date", "datetime", "timestamp", "timestamp without time zone", "timestamp with time zone":
			return col.Name
		}
	}
	return ""
}

var metricExcludePatterns = []string{"id", "key", "uuid", "hash"}

func findMetricColumns(columns []models.ColumnInfo) []string {
	var metrics []string
	for _, col := range columns {
		lower := strings.ToLower(col.Name)
		excluded := false
		for _, pattern := range metricExcludePatterns {
			if strings.Contains(lower, pattern) {
				excluded = true
				break
			}
		}
		if excluded || !isNumericType(col.Type) {
			continue
		}
		metrics = append(metrics, col.Name)
		if len(metrics) == maxMetricsPerTable {
			break
		}
	}
	return metrics
}

func isNumericType(colType string) bool {
	switch strings.ToLower(colType) {
	case "int", "integer", "bigint", "smallint", "tinyint", "mediumint",
		"float", "double", "double precision", "real", "decimal", "numeric":
		return true
	}
	return false
}

// displayName turns "total_amount" into "Total Amount".
func displayName(column string) string {
	words := strings.Split(strings.ReplaceAll(column, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func formatNumber(v any) string {
	return strconv.FormatFloat(toFloat(v), 'f', 2, 64)
}

// toFloat coerces the loosely-typed values row scans produce.
func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	case json.Number:
		f, _ := n.Float64()
		return f
	default:
		return 0
	}
}

func summarizeQueryResult(result *models.QueryResult) string {
	if result == nil || len(result.Data) == 0 {
		return "No data found"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d rows.\n", len(result.Data))
	if len(result.Columns) > 0 {
		names := make([]string, 0, len(result.Columns))
		for _, col := range result.Columns {
			names = append(names, col.Name)
		}
		b.WriteString("Columns: " + strings.Join(names, ", ") + "\n")
	}
	if sample, err := json.Marshal(result.Data[0]); err == nil {
		b.WriteString("Sample row: " + string(sample))
	}
	return b.String()
}

var _ InsightsService = (*insightsService)(nil)
