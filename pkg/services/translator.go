package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/luminabi/lumina-engine/pkg/apperrors"
	"github.com/luminabi/lumina-engine/pkg/cache"
	"github.com/luminabi/lumina-engine/pkg/llm"
	"github.com/luminabi/lumina-engine/pkg/models"
	"github.com/luminabi/lumina-engine/pkg/prompts"
	sqlsafe "github.com/luminabi/lumina-engine/pkg/sql"
)

const (
	minQuestionLength = 3
	maxQuestionLength = 500

	translationMaxTokens = 500
	explanationMaxTokens = 200
	followUpMaxTokens    = 300
	maxFollowUps         = 3
)

// fallbackExplanation is used when the explanation call itself fails.
const fallbackExplanation = "This query retrieves data to answer your question."

// TranslationResult is the outcome of translating a natural-language
// question into SQL.
type TranslationResult struct {
	SQL         string `json:"sql"`
	Title       string `json:"title"`
	Explanation string `json:"explanation,omitempty"`
	// Fallback is set when the SQL came from the offline rule-based
	// generator instead of the model.
	Fallback bool `json:"fallback,omitempty"`
}

// Translator converts natural-language questions into validated
// read-only SQL, with explanation and follow-up suggestion support.
type Translator interface {
	// Translate produces SQL and a chart title for a question. Failures
	// are classified: ErrSchemaUnavailable when the source has no
	// tables, ErrModelUnavailable when the backend is unreachable and no
	// fallback applies, ErrValidationFailure when generated SQL fails
	// the read-only gate, ErrParseFailure when no SQL can be extracted.
	Translate(ctx context.Context, question string, ds *models.DataSource) (*TranslationResult, error)

	// ExplainQuery produces a short plain-language explanation of a
	// generated query. Never fails; degrades to a static sentence.
	ExplainQuery(ctx context.Context, question, sqlText string) string

	// SuggestFollowUp proposes up to three follow-up questions based on
	// the results. Failures yield an empty list.
	SuggestFollowUp(ctx context.Context, originalQuestion string, result *models.QueryResult) []string
}

// TranslatorConfig bounds translation caching.
type TranslatorConfig struct {
	TranslationTTL time.Duration
}

type translator struct {
	client llm.Client
	schema SchemaAnalyzer
	store  cache.Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewTranslator creates the NL-to-SQL translator.
func NewTranslator(client llm.Client, schema SchemaAnalyzer, store cache.Store, cfg TranslatorConfig, logger *zap.Logger) Translator {
	ttl := cfg.TranslationTTL
	if ttl <= 0 {
		ttl = 300 * time.Second
	}
	return &translator{
		client: client,
		schema: schema,
		store:  store,
		ttl:    ttl,
		logger: logger.Named("translator"),
	}
}

func (t *translator) Translate(ctx context.Context, question string, ds *models.DataSource) (*TranslationResult, error) {
	question = strings.TrimSpace(question)
	if len(question) < minQuestionLength || len(question) > maxQuestionLength {
		return nil, fmt.Errorf("%w: question must be between %d and %d characters",
			apperrors.ErrValidationFailure, minQuestionLength, maxQuestionLength)
	}

	cacheKey := translationCacheKey(question, ds.ID.String())
	if cached, ok := cache.GetJSON[*TranslationResult](ctx, t.store, cacheKey); ok && cached != nil {
		return cached, nil
	}

	schema, err := t.schema.GetSchemaContext(ctx, ds)
	if err != nil {
		return nil, err
	}
	if len(schema) == 0 {
		return nil, fmt.Errorf("%w: no schema information available for this data source", apperrors.ErrSchemaUnavailable)
	}

	t.logger.Info("translating question",
		zap.String("datasource_id", ds.ID.String()),
		zap.Int("table_count", len(schema)))

	prompt := prompts.BuildTranslationPrompt(question, schema)
	response, err := t.client.GenerateResponse(ctx, prompt, prompts.TranslationSystemMessage, translationMaxTokens)
	if err != nil {
		if llm.IsUnavailable(err) {
			if fallback := generateFallbackQuery(question, schema, ds.Engine); fallback != nil {
				t.logger.Info("model unavailable, using fallback query",
					zap.String("datasource_id", ds.ID.String()))
				return fallback, nil
			}
		}
		return nil, fmt.Errorf("model invocation failed: %w", err)
	}

	sqlText, title := llm.ExtractSQLAndTitle(response)
	if sqlText == "" {
		return nil, fmt.Errorf("%w: model response contained no SQL", apperrors.ErrParseFailure)
	}
	if err := sqlsafe.Validate(sqlText); err != nil {
		return nil, err
	}
	if sqlsafe.HasMultipleStatements(sqlText) {
		return nil, fmt.Errorf("%w: generated SQL contains multiple statements", apperrors.ErrValidationFailure)
	}
	if !sqlsafe.IsSelect(sqlText) {
		return nil, fmt.Errorf("%w: generated SQL is not a SELECT statement", apperrors.ErrValidationFailure)
	}

	result := &TranslationResult{
		SQL:         sqlText,
		Title:       title,
		Explanation: t.ExplainQuery(ctx, question, sqlText),
	}
	cache.SetJSON(ctx, t.store, cacheKey, result, t.ttl)
	return result, nil
}

func (t *translator) ExplainQuery(ctx context.Context, question, sqlText string) string {
	prompt := prompts.BuildExplanationPrompt(question, sqlText)
	response, err := t.client.GenerateResponse(ctx, prompt, "", explanationMaxTokens)
	if err != nil {
		t.logger.Debug("query explanation failed", zap.Error(err))
		return fallbackExplanation
	}
	explanation := strings.TrimSpace(response)
	if explanation == "" {
		return fallbackExplanation
	}
	return explanation
}

func (t *translator) SuggestFollowUp(ctx context.Context, originalQuestion string, result *models.QueryResult) []string {
	prompt := prompts.BuildFollowUpPrompt(originalQuestion, result)
	response, err := t.client.GenerateResponse(ctx, prompt, "", followUpMaxTokens)
	if err != nil {
		t.logger.Warn("follow-up suggestion failed", zap.Error(err))
		return []string{}
	}
	questions := llm.ParseNumberedList(response, maxFollowUps)
	if questions == nil {
		return []string{}
	}
	return questions
}

func translationCacheKey(question, dataSourceID string) string {
	sum := sha256.Sum256([]byte(question + ":" + dataSourceID))
	return "nlq:" + hex.EncodeToString(sum[:])
}

// generateFallbackQuery synthesizes one canned aggregate query when the
// model backend is unreachable. It only fires for the revenue/last-month
// pattern over a reservation-style table; anything else reports failure
// so outages degrade rather than block.
func generateFallbackQuery(question string, schema models.SchemaMap, engine models.EngineType) *TranslationResult {
	questionLower := strings.ToLower(question)
	if !strings.Contains(questionLower, "revenue") || !strings.Contains(questionLower, "last month") {
		return nil
	}

	var reservationTables []string
	for table := range schema {
		if strings.Contains(strings.ToLower(table), "reserv") {
			reservationTables = append(reservationTables, table)
		}
	}
	if len(reservationTables) == 0 {
		return nil
	}
	sort.Strings(reservationTables)
	mainTable := reservationTables[0]

	var revenueColumn, dateColumn string
	for _, col := range schema[mainTable] {
		name := strings.ToLower(col.Name)
		if revenueColumn == "" &&
			(strings.Contains(name, "revenue") || strings.Contains(name, "amount") ||
				strings.Contains(name, "total") || strings.Contains(name, "price")) {
			revenueColumn = col.Name
		}
		if dateColumn == "" &&
			(strings.Contains(name, "date") || strings.Contains(name, "created") ||
				strings.Contains(name, "time")) {
			dateColumn = col.Name
		}
	}
	if revenueColumn == "" || dateColumn == "" {
		return nil
	}

	sqlText := fmt.Sprintf(
		"SELECT SUM(%s) AS total_revenue FROM %s WHERE %s >= %s AND %s < CURRENT_DATE",
		revenueColumn, mainTable, dateColumn, dateSubMonths(engine, 1), dateColumn)

	return &TranslationResult{
		SQL:         sqlText,
		Title:       "Last Month Revenue",
		Explanation: "This query calculates the total revenue from the last month. (Note: this is a basic query generated offline - the AI service is currently unavailable)",
		Fallback:    true,
	}
}

var _ Translator = (*translator)(nil)
