package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSQLAndTitle(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		wantSQL   string
		wantTitle string
	}{
		{
			name:      "labeled format",
			response:  "SQL: SELECT * FROM users\nTITLE: All Users",
			wantSQL:   "SELECT * FROM users",
			wantTitle: "All Users",
		},
		{
			name:      "no title falls back to default",
			response:  "SQL: SELECT COUNT(*) FROM orders",
			wantSQL:   "SELECT COUNT(*) FROM orders",
			wantTitle: DefaultTitle,
		},
		{
			name:      "no labels treats whole response as SQL",
			response:  "SELECT id, name FROM products",
			wantSQL:   "SELECT id, name FROM products",
			wantTitle: DefaultTitle,
		},
		{
			name:      "markdown fences stripped",
			response:  "```sql\nSELECT 1\n```",
			wantSQL:   "SELECT 1",
			wantTitle: DefaultTitle,
		},
		{
			name:      "trailing semicolon removed",
			response:  "SQL: SELECT 1;\nTITLE: One",
			wantSQL:   "SELECT 1",
			wantTitle: "One",
		},
		{
			name:      "quotes stripped from title",
			response:  "SQL: SELECT 1\nTITLE: \"Revenue by Region\"",
			wantSQL:   "SELECT 1",
			wantTitle: "Revenue by Region",
		},
		{
			name:      "multiline sql before title",
			response:  "SQL: SELECT a,\n b\nFROM t\nTITLE: AB",
			wantSQL:   "SELECT a,\n b\nFROM t",
			wantTitle: "AB",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sqlText, title := ExtractSQLAndTitle(tt.response)
			assert.Equal(t, tt.wantSQL, sqlText)
			assert.Equal(t, tt.wantTitle, title)
		})
	}
}

func TestExtractSQLAndTitleTruncatesLongTitle(t *testing.T) {
	long := strings.Repeat("a", 80)
	_, title := ExtractSQLAndTitle("SQL: SELECT 1\nTITLE: " + long)
	assert.Len(t, title, 60)
	assert.True(t, strings.HasSuffix(title, "..."))
}

func TestParseNumberedList(t *testing.T) {
	response := `Here are some ideas:
1. What drove the revenue increase?
2. Which region grew fastest?
3. How does this compare to last year?
4. Extra question beyond the cap`

	items := ParseNumberedList(response, 3)
	assert.Equal(t, []string{
		"What drove the revenue increase?",
		"Which region grew fastest?",
		"How does this compare to last year?",
	}, items)
}

func TestParseNumberedListNoItems(t *testing.T) {
	assert.Empty(t, ParseNumberedList("no list here, just prose", 3))
}
