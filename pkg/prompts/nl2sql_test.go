package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luminabi/lumina-engine/pkg/models"
)

func testSchema() models.SchemaMap {
	return models.SchemaMap{
		"users": {
			{Name: "id", Type: "int"},
			{Name: "name", Type: "varchar"},
		},
		"reservations": {
			{Name: "id", Type: "int"},
			{Name: "total_amount", Type: "decimal"},
		},
	}
}

func TestFormatSchema(t *testing.T) {
	formatted := FormatSchema(testSchema())

	assert.Contains(t, formatted, "Table: reservations\nColumns: id (int), total_amount (decimal)\n\n")
	assert.Contains(t, formatted, "Table: users\nColumns: id (int), name (varchar)\n\n")
	// Tables render in lexical order regardless of map iteration.
	assert.Less(t, strings.Index(formatted, "Table: reservations"), strings.Index(formatted, "Table: users"))
}

func TestBuildTranslationPrompt(t *testing.T) {
	prompt := BuildTranslationPrompt("What was revenue last month?", testSchema())

	assert.Contains(t, prompt, "Table: reservations")
	assert.Contains(t, prompt, `"What was revenue last month?"`)
	// The output contract the extractor depends on.
	assert.Contains(t, prompt, "SQL: [your query here]")
	assert.Contains(t, prompt, "TITLE: [your title here]")
	assert.Contains(t, prompt, "Do NOT include semicolon at the end of SQL")
	assert.Contains(t, prompt, "Do NOT add LIMIT clause")
}

func TestBuildExplanationPrompt(t *testing.T) {
	prompt := BuildExplanationPrompt("how many users", "SELECT COUNT(*) FROM users")
	assert.Contains(t, prompt, "how many users")
	assert.Contains(t, prompt, "SELECT COUNT(*) FROM users")
}

func TestBuildFollowUpPrompt(t *testing.T) {
	result := &models.QueryResult{
		Data:     []map[string]any{{"total": 5}},
		Columns:  []models.ResultColumn{{Name: "total", Type: "integer"}},
		RowCount: 1,
	}
	prompt := BuildFollowUpPrompt("total bookings", result)
	assert.Contains(t, prompt, `"total bookings"`)
	assert.Contains(t, prompt, "Suggest 3 follow-up questions")
	assert.Contains(t, prompt, "numbered list")
}

func TestSummarizeResults(t *testing.T) {
	assert.Equal(t, "No results found", SummarizeResults(nil))
	assert.Equal(t, "No results found", SummarizeResults(&models.QueryResult{}))

	result := &models.QueryResult{
		Data: []map[string]any{{"month": "2026-01", "total": 5}},
		Columns: []models.ResultColumn{
			{Name: "month", Type: "string"},
			{Name: "total", Type: "integer"},
		},
		RowCount: 12,
	}
	assert.Equal(t, "Found 12 rows with columns: month, total", SummarizeResults(result))
}
