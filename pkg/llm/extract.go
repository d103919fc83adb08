package llm

import (
	"regexp"
	"strings"
)

// DefaultTitle is used when the model response carries no TITLE marker.
const DefaultTitle = "Query Results"

const maxTitleLength = 60

// Model responses are free-form text; extraction is pattern matching
// against labeled segments with a documented precedence:
//
//  1. "SQL:" up to "TITLE:" (or end of text) is the query.
//  2. "TITLE:" to end of line is the title.
//  3. If no "SQL:" marker exists, the whole cleaned response is the query.
//
// Markdown fences and trailing semicolons are trimmed in every case.
// This parser is deliberately isolated so it can be replaced by a
// structured-output contract if the backend grows one.
var (
	sqlSegmentPattern   = regexp.MustCompile(`(?is)SQL:\s*(.+?)(?:TITLE:|$)`)
	titleSegmentPattern = regexp.MustCompile(`(?im)TITLE:\s*(.+)$`)
	codeFencePattern    = regexp.MustCompile("```(?:sql)?\\s*\n?")
	trailingTitle       = regexp.MustCompile(`(?is)\s*TITLE:.*$`)
)

// ExtractSQLAndTitle parses a model response into a SQL statement and a
// short chart title. SQL may be empty if the response held nothing usable.
func ExtractSQLAndTitle(response string) (sqlText, title string) {
	if m := sqlSegmentPattern.FindStringSubmatch(response); m != nil {
		sqlText = strings.TrimSpace(m[1])
	}
	if m := titleSegmentPattern.FindStringSubmatch(response); m != nil {
		title = strings.TrimSpace(m[1])
	}

	// No SQL marker: treat the whole response as SQL.
	if sqlText == "" {
		sqlText = response
	}

	sqlText = codeFencePattern.ReplaceAllString(sqlText, "")
	sqlText = trailingTitle.ReplaceAllString(sqlText, "")
	sqlText = strings.TrimSpace(sqlText)
	sqlText = strings.TrimRight(sqlText, ";")
	sqlText = strings.TrimSpace(sqlText)

	title = strings.NewReplacer(`"`, "", "'", "", "`", "").Replace(title)
	title = strings.TrimSpace(title)
	if len(title) > maxTitleLength {
		title = title[:maxTitleLength-3] + "..."
	}
	if title == "" {
		title = DefaultTitle
	}
	return sqlText, title
}

var numberedItemPattern = regexp.MustCompile(`^\d+\.\s*(.+)$`)

// ParseNumberedList extracts up to max items from a numbered list in a
// model response. Lines that are not list items are ignored.
func ParseNumberedList(response string, max int) []string {
	var items []string
	for _, line := range strings.Split(response, "\n") {
		m := numberedItemPattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		items = append(items, strings.TrimSpace(m[1]))
		if len(items) == max {
			break
		}
	}
	return items
}
