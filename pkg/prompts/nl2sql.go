// Package prompts builds the LLM prompts used for natural-language
// query translation, explanation and follow-up suggestions.
package prompts

import (
	"fmt"
	"strings"

	"github.com/luminabi/lumina-engine/pkg/models"
)

// TranslationSystemMessage pins the model into SQL-only output.
const TranslationSystemMessage = "You are a SQL expert. Generate only valid SQL queries without explanations."

// BuildTranslationPrompt builds the NL-to-SQL prompt: the schema
// context, the question, and the output contract the extractor parses.
func BuildTranslationPrompt(question string, schema models.SchemaMap) string {
	var prompt strings.Builder

	prompt.WriteString("Given the following database schema:\n\n")
	prompt.WriteString(FormatSchema(schema))
	prompt.WriteString("\n")
	prompt.WriteString(fmt.Sprintf("Generate a SQL query to answer this question: %q\n\n", question))
	prompt.WriteString("Also provide a concise chart title (max 50 characters) that clearly describes what the data shows.\n\n")

	prompt.WriteString(`Requirements:
- Use only the tables and columns available in the schema
- Include appropriate JOINs if multiple tables are needed
- Use aggregate functions where appropriate
- For date-based queries:
  - "last month" means the previous calendar month (use DATE_SUB or appropriate date functions)
  - "this month" means the current calendar month
  - "last year" means the previous calendar year
- For revenue/amount calculations, look for columns containing: amount, total, price, revenue, value
- Return the SQL query and chart title in this exact format:
  SQL: [your query here]
  TITLE: [your title here]
- Do NOT include semicolon at the end of SQL
- Do NOT add LIMIT clause (it will be added automatically)
- Make reasonable assumptions about column meanings based on their names

IMPORTANT - For comparison queries:
- When comparing different time periods (e.g., "2023 vs 2024", "compare X to Y"), include ALL dimensions in SELECT
- For year-over-year comparisons: SELECT year, month, metric ORDER BY month, year
- For month-over-month: SELECT month, year, metric ORDER BY year, month
- Include the comparison dimension (year, category, etc.) as a separate column
- Example: "compare 2023 to 2024" should return: SELECT YEAR(date) as year, MONTH(date) as month, SUM(revenue) as total FROM table WHERE YEAR(date) IN (2023, 2024) GROUP BY year, month ORDER BY month, year

Example patterns:
- For "revenue last month": SUM columns related to money/amounts where date is in previous month
- For "count of X": COUNT(*) or COUNT(DISTINCT column) as appropriate
- For "average X": AVG(column) for numeric values
- For "compare 2023 to 2024": Include year as a grouping column, filter for both years
- For "X vs Y": Structure data to show both X and Y as separate series

Title examples:
- "Monthly Revenue Comparison: 2023 vs 2024"
- "Top Products by Sales Volume"
- "Customer Growth Trend"
- "Revenue by Region"
`)

	return prompt.String()
}

// FormatSchema renders a schema map into the "Table: / Columns:" block
// the translation prompt embeds.
func FormatSchema(schema models.SchemaMap) string {
	var b strings.Builder
	for _, table := range schema.SortedTables() {
		b.WriteString(fmt.Sprintf("Table: %s\n", table))
		parts := make([]string, 0, len(schema[table]))
		for _, col := range schema[table] {
			parts = append(parts, fmt.Sprintf("%s (%s)", col.Name, col.Type))
		}
		b.WriteString("Columns: " + strings.Join(parts, ", ") + "\n\n")
	}
	return b.String()
}

// BuildExplanationPrompt asks for a brief plain-language explanation of
// a generated query.
func BuildExplanationPrompt(question, sqlText string) string {
	return fmt.Sprintf(
		"Explain in simple terms what this SQL query does to answer the question '%s':\n\n%s\n\nKeep the explanation brief and user-friendly.",
		question, sqlText)
}

// BuildFollowUpPrompt asks for follow-up question suggestions given the
// original question and a summary of its results.
func BuildFollowUpPrompt(originalQuestion string, result *models.QueryResult) string {
	return fmt.Sprintf(`Based on this question: %q
And these results: %s

Suggest 3 follow-up questions that would provide additional insights.
Format as a simple numbered list without explanations.`,
		originalQuestion, SummarizeResults(result))
}

// SummarizeResults condenses a query result into a one-line description
// suitable for prompt context.
func SummarizeResults(result *models.QueryResult) string {
	if result == nil || len(result.Data) == 0 {
		return "No results found"
	}
	columns := make([]string, 0, len(result.Columns))
	for _, col := range result.Columns {
		columns = append(columns, col.Name)
	}
	return fmt.Sprintf("Found %d rows with columns: %s", result.RowCount, strings.Join(columns, ", "))
}
