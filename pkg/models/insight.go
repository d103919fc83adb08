package models

import "time"

// Insight types. Priority 1 is most important.
const (
	InsightMetricSummary = "metric_summary"
	InsightAnomaly       = "anomaly"
	InsightTrend         = "trend"
)

// Insight is an ephemeral statistical finding over a datasource.
// Regenerated on each cache-expiry cycle.
type Insight struct {
	Type              string         `json:"type"`
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	Data              map[string]any `json:"data,omitempty"`
	SuggestedQuestion string         `json:"suggested_question,omitempty"`
	Priority          int            `json:"priority"`
}

// InsightReport is the ranked, truncated set of insights for a datasource.
type InsightReport struct {
	Success     bool      `json:"success"`
	Insights    []Insight `json:"insights"`
	GeneratedAt time.Time `json:"generated_at"`
	Error       string    `json:"error,omitempty"`
}
