package models

// Chart types the recommender can pick or offer as alternatives.
const (
	ChartLine          = "line"
	ChartBar           = "bar"
	ChartGroupedBar    = "grouped-bar"
	ChartHorizontalBar = "horizontal-bar"
	ChartArea          = "area"
	ChartPie           = "pie"
	ChartScatter       = "scatter"
	ChartHeatmap       = "heatmap"
	ChartTable         = "table"
)

// ChartColumn describes one column for a table-style rendering.
type ChartColumn struct {
	Field  string `json:"field"`
	Header string `json:"header"`
	Type   string `json:"type"`
}

// ChartConfig is the axis/series/dimension mapping for a chart type.
// Fields are populated per chart type; unused ones are omitted.
type ChartConfig struct {
	ChartType string        `json:"chart_type,omitempty"`
	XAxis     string        `json:"x_axis,omitempty"`
	YAxis     string        `json:"y_axis,omitempty"`
	Series    []string      `json:"series,omitempty"`
	SeriesBy  string        `json:"series_by,omitempty"`
	Dimension string        `json:"dimension,omitempty"`
	Metric    string        `json:"metric,omitempty"`
	SizeAxis  string        `json:"size_axis,omitempty"`
	ColorAxis string        `json:"color_axis,omitempty"`
	Columns   []ChartColumn `json:"columns,omitempty"`
}

// ChartRecommendation pairs a chart type with the reason it was chosen.
type ChartRecommendation struct {
	ChartType string      `json:"chart_type"`
	Reason    string      `json:"reason"`
	Config    ChartConfig `json:"config"`
}

// VisualizationResult is the recommended chart plus up to three ranked
// alternatives a caller may substitute.
type VisualizationResult struct {
	Success        bool                  `json:"success"`
	Recommendation ChartRecommendation   `json:"recommendation"`
	Alternatives   []ChartRecommendation `json:"alternatives"`
}
