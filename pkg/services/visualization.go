package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/luminabi/lumina-engine/pkg/models"
)

const (
	classifySampleSize = 10
	pieMaxRows         = 20
	pieMaxCategories   = 10
	maxAlternatives    = 3
	maxChartSeries     = 3
)

// VisualizationService picks a chart type and axis mapping for a query
// result, with ranked alternatives.
type VisualizationService interface {
	// RecommendVisualization classifies result columns and picks the
	// chart that best fits the data shape. Never fails; an empty or
	// unclassifiable result recommends a table.
	RecommendVisualization(result *models.QueryResult, question string) *models.VisualizationResult

	// GenerateChartConfig builds the axis/series/dimension mapping for a
	// caller-chosen chart type, independent of the recommendation.
	GenerateChartConfig(result *models.QueryResult, chartType string) models.ChartConfig
}

type visualizationService struct {
	logger *zap.Logger
}

// NewVisualizationService creates the visualization recommender.
func NewVisualizationService(logger *zap.Logger) VisualizationService {
	return &visualizationService{logger: logger.Named("visualization")}
}

// dataShape is the column classification of one result set.
type dataShape struct {
	rowCount           int
	timeColumns        []string
	numericColumns     []string
	categoricalColumns []string
}

func (d *dataShape) hasTimeSeries() bool  { return len(d.timeColumns) > 0 }
func (d *dataShape) hasNumeric() bool     { return len(d.numericColumns) > 0 }
func (d *dataShape) hasCategorical() bool { return len(d.categoricalColumns) > 0 }

func (v *visualizationService) RecommendVisualization(result *models.QueryResult, question string) *models.VisualizationResult {
	if result == nil || len(result.Data) == 0 {
		return defaultVisualization()
	}

	shape := analyzeShape(result)
	recommendation := v.pickChart(result, shape)
	return &models.VisualizationResult{
		Success:        true,
		Recommendation: recommendation,
		Alternatives:   alternativesFor(shape),
	}
}

func (v *visualizationService) pickChart(result *models.QueryResult, shape *dataShape) models.ChartRecommendation {
	// Comparison patterns take precedence over the generic shape rules.
	if isYearOverYear(result, shape) {
		return models.ChartRecommendation{
			ChartType: models.ChartLine,
			Reason:    "Line charts make year-over-year comparisons easy to follow",
			Config: models.ChartConfig{
				XAxis:    monthColumn(shape),
				YAxis:    firstOr(shape.numericColumns, ""),
				SeriesBy: yearColumn(shape),
			},
		}
	}
	if cat, ok := categoryComparison(result, shape); ok {
		return models.ChartRecommendation{
			ChartType: models.ChartGroupedBar,
			Reason:    "Grouped bars compare a metric across categories side by side",
			Config: models.ChartConfig{
				XAxis:    cat,
				YAxis:    firstOr(shape.numericColumns, ""),
				SeriesBy: otherCategorical(shape, cat),
			},
		}
	}

	if shape.hasTimeSeries() && shape.hasNumeric() {
		return models.ChartRecommendation{
			ChartType: models.ChartLine,
			Reason:    "Line charts are ideal for showing trends over time",
			Config: models.ChartConfig{
				XAxis: shape.timeColumns[0],
				YAxis: shape.numericColumns[0],
			},
		}
	}

	if shape.hasCategorical() && shape.hasNumeric() {
		categories := distinctValues(result.Data, shape.categoricalColumns[0])
		if shape.rowCount < pieMaxRows && categories > 0 && categories <= pieMaxCategories {
			return models.ChartRecommendation{
				ChartType: models.ChartPie,
				Reason:    "Pie charts work well for showing parts of a whole with few categories",
				Config: models.ChartConfig{
					Dimension: shape.categoricalColumns[0],
					Metric:    shape.numericColumns[0],
				},
			}
		}
		return models.ChartRecommendation{
			ChartType: models.ChartBar,
			Reason:    "Bar charts are excellent for comparing values across categories",
			Config: models.ChartConfig{
				XAxis: shape.categoricalColumns[0],
				YAxis: shape.numericColumns[0],
			},
		}
	}

	if len(shape.numericColumns) >= 2 {
		return models.ChartRecommendation{
			ChartType: models.ChartScatter,
			Reason:    "Scatter plots reveal relationships between numeric variables",
			Config: models.ChartConfig{
				XAxis: shape.numericColumns[0],
				YAxis: shape.numericColumns[1],
			},
		}
	}

	return models.ChartRecommendation{
		ChartType: models.ChartTable,
		Reason:    "Tables provide a detailed view of all data",
	}
}

func alternativesFor(shape *dataShape) []models.ChartRecommendation {
	var alternatives []models.ChartRecommendation

	if shape.hasTimeSeries() && shape.hasNumeric() {
		alternatives = append(alternatives,
			models.ChartRecommendation{ChartType: models.ChartArea, Reason: "Area charts emphasize magnitude of change"},
			models.ChartRecommendation{ChartType: models.ChartBar, Reason: "Bar charts can show discrete time periods"})
	}
	if shape.hasCategorical() && shape.hasNumeric() {
		alternatives = append(alternatives,
			models.ChartRecommendation{ChartType: models.ChartHorizontalBar, Reason: "Horizontal bars work well for long category names"})
		if len(shape.numericColumns) > 1 {
			alternatives = append(alternatives,
				models.ChartRecommendation{ChartType: models.ChartGroupedBar, Reason: "Compare multiple metrics across categories"})
		}
	}
	if len(shape.numericColumns) >= 2 {
		alternatives = append(alternatives,
			models.ChartRecommendation{ChartType: models.ChartHeatmap, Reason: "Heatmaps show patterns in multi-dimensional data"})
	}
	alternatives = append(alternatives,
		models.ChartRecommendation{ChartType: models.ChartTable, Reason: "View raw data in detail"})

	if len(alternatives) > maxAlternatives {
		alternatives = alternatives[:maxAlternatives]
	}
	return alternatives
}

func (v *visualizationService) GenerateChartConfig(result *models.QueryResult, chartType string) models.ChartConfig {
	if result == nil || len(result.Columns) == 0 || len(result.Data) == 0 {
		return models.ChartConfig{}
	}

	shape := analyzeShape(result)
	dimensions := append(append([]string{}, shape.timeColumns...), shape.categoricalColumns...)
	metrics := shape.numericColumns

	switch chartType {
	case models.ChartBar, models.ChartLine, models.ChartArea,
		models.ChartGroupedBar, models.ChartHorizontalBar:
		series := metrics
		if len(series) > maxChartSeries {
			series = series[:maxChartSeries]
		}
		return models.ChartConfig{
			ChartType: chartType,
			XAxis:     firstOr(dimensions, ""),
			YAxis:     firstOr(metrics, ""),
			Series:    series,
		}

	case models.ChartPie:
		return models.ChartConfig{
			ChartType: models.ChartPie,
			Dimension: firstOr(dimensions, ""),
			Metric:    firstOr(metrics, ""),
		}

	case models.ChartScatter:
		cfg := models.ChartConfig{
			ChartType: models.ChartScatter,
			XAxis:     firstOr(metrics, firstOr(dimensions, "")),
			ColorAxis: firstOr(dimensions, ""),
		}
		if len(metrics) > 1 {
			cfg.YAxis = metrics[1]
		} else if len(dimensions) > 1 {
			cfg.YAxis = dimensions[1]
		}
		if len(metrics) > 2 {
			cfg.SizeAxis = metrics[2]
		}
		return cfg

	case models.ChartTable:
		columns := make([]models.ChartColumn, 0, len(result.Columns))
		for _, col := range result.Columns {
			columns = append(columns, models.ChartColumn{
				Field:  col.Name,
				Header: displayName(col.Name),
				Type:   col.Type,
			})
		}
		return models.ChartConfig{ChartType: models.ChartTable, Columns: columns}

	default:
		return models.ChartConfig{}
	}
}

func defaultVisualization() *models.VisualizationResult {
	return &models.VisualizationResult{
		Success: false,
		Recommendation: models.ChartRecommendation{
			ChartType: models.ChartTable,
			Reason:    "Unable to determine best visualization, showing data as table",
		},
		Alternatives: []models.ChartRecommendation{},
	}
}

// Column classification.

var (
	timeNamePatterns = []string{"date", "time", "created", "updated", "timestamp", "_at", "year", "month", "day"}
	isoDatePrefix    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
)

func analyzeShape(result *models.QueryResult) *dataShape {
	shape := &dataShape{rowCount: len(result.Data)}
	for _, col := range result.Columns {
		samples := sampleValues(result.Data, col.Name, classifySampleSize)
		switch {
		case isTimeColumn(col.Name, col.Type, samples):
			shape.timeColumns = append(shape.timeColumns, col.Name)
		case isNumericColumn(col.Type, samples):
			shape.numericColumns = append(shape.numericColumns, col.Name)
		default:
			shape.categoricalColumns = append(shape.categoricalColumns, col.Name)
		}
	}
	return shape
}

func isTimeColumn(name, colType string, samples []any) bool {
	lower := strings.ToLower(name)
	for _, pattern := range timeNamePatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	switch strings.ToLower(colType) {
	case "date", "datetime", "timestamp":
		return true
	}
	for _, value := range samples {
		if s, ok := value.(string); ok && isoDatePrefix.MatchString(s) {
			return true
		}
	}
	return false
}

var numericTypeFragments = []string{"int", "float", "double", "decimal", "numeric", "real"}

// isNumericColumn accepts a declared numeric type, or a majority vote
// over sampled values: more than 80% must parse as numbers.
func isNumericColumn(colType string, samples []any) bool {
	lower := strings.ToLower(colType)
	for _, fragment := range numericTypeFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}

	if len(samples) == 0 {
		return false
	}
	numeric := 0
	for _, value := range samples {
		if isNumericValue(value) {
			numeric++
		}
	}
	return float64(numeric) > float64(len(samples))*0.8
}

func isNumericValue(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	case string:
		_, err := strconv.ParseFloat(v, 64)
		return err == nil
	default:
		return false
	}
}

func sampleValues(data []map[string]any, column string, max int) []any {
	if len(data) < max {
		max = len(data)
	}
	samples := make([]any, 0, max)
	for _, row := range data[:max] {
		samples = append(samples, row[column])
	}
	return samples
}

func distinctValues(data []map[string]any, column string) int {
	seen := make(map[string]struct{})
	for _, row := range data {
		seen[stringifyValue(row[column])] = struct{}{}
	}
	return len(seen)
}

func stringifyValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(value, 10)
	case int:
		return strconv.Itoa(value)
	case bool:
		return strconv.FormatBool(value)
	default:
		return fmt.Sprintf("%v", value)
	}
}

// Comparison pattern detection.

// isYearOverYear detects a result with year and month columns spanning
// more than one distinct year.
func isYearOverYear(result *models.QueryResult, shape *dataShape) bool {
	year := yearColumn(shape)
	month := monthColumn(shape)
	if year == "" || month == "" || year == month || !shape.hasNumeric() {
		return false
	}
	return distinctValues(result.Data, year) > 1
}

func yearColumn(shape *dataShape) string {
	return findColumnContaining(shape.timeColumns, "year")
}

func monthColumn(shape *dataShape) string {
	return findColumnContaining(shape.timeColumns, "month")
}

func findColumnContaining(columns []string, fragment string) string {
	for _, col := range columns {
		if strings.Contains(strings.ToLower(col), fragment) {
			return col
		}
	}
	return ""
}

// categoryComparison detects a categorical column with 2-10 distinct
// values paired with another non-numeric column to group by.
func categoryComparison(result *models.QueryResult, shape *dataShape) (string, bool) {
	if len(shape.categoricalColumns) < 2 || !shape.hasNumeric() {
		return "", false
	}
	for _, col := range shape.categoricalColumns {
		distinct := distinctValues(result.Data, col)
		if distinct >= 2 && distinct <= pieMaxCategories {
			return col, true
		}
	}
	return "", false
}

func otherCategorical(shape *dataShape, exclude string) string {
	for _, col := range shape.categoricalColumns {
		if col != exclude {
			return col
		}
	}
	return ""
}

func firstOr(values []string, fallback string) string {
	if len(values) > 0 {
		return values[0]
	}
	return fallback
}

var _ VisualizationService = (*visualizationService)(nil)
