package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/luminabi/lumina-engine/pkg/apperrors"
	"github.com/luminabi/lumina-engine/pkg/models"
)

// PipelineResponse is the composed answer to a natural-language
// question: the generated SQL, its execution result, a chart
// recommendation and follow-up suggestions.
type PipelineResponse struct {
	Success           bool                        `json:"success"`
	SQL               string                      `json:"sql,omitempty"`
	Title             string                      `json:"title,omitempty"`
	Explanation       string                      `json:"explanation,omitempty"`
	Result            *models.QueryResult         `json:"result,omitempty"`
	Visualization     *models.VisualizationResult `json:"visualization,omitempty"`
	FollowUpQuestions []string                    `json:"follow_up_questions,omitempty"`
	Error             string                      `json:"error,omitempty"`
}

// Pipeline runs a question end to end: translate, execute, recommend a
// chart, suggest follow-ups, and record the query when it returned rows.
type Pipeline interface {
	Ask(ctx context.Context, question string, ds *models.DataSource) *PipelineResponse
}

type pipeline struct {
	translator    Translator
	queries       QueryService
	visualization VisualizationService
	logger        *zap.Logger
}

// NewPipeline composes the core services into the ask-a-question flow.
func NewPipeline(translator Translator, queries QueryService, visualization VisualizationService, logger *zap.Logger) Pipeline {
	return &pipeline{
		translator:    translator,
		queries:       queries,
		visualization: visualization,
		logger:        logger.Named("pipeline"),
	}
}

func (p *pipeline) Ask(ctx context.Context, question string, ds *models.DataSource) *PipelineResponse {
	translation, err := p.translator.Translate(ctx, question, ds)
	if err != nil {
		p.logger.Warn("translation failed",
			zap.String("datasource_id", ds.ID.String()),
			zap.Error(err))
		return &PipelineResponse{Success: false, Error: userMessageFor(err)}
	}

	result := p.queries.ExecuteQuery(ctx, ds, translation.SQL, 0)
	if !result.Success {
		return &PipelineResponse{
			Success:     false,
			SQL:         translation.SQL,
			Title:       translation.Title,
			Explanation: translation.Explanation,
			Result:      result,
			Error:       result.Error,
		}
	}

	response := &PipelineResponse{
		Success:           true,
		SQL:               translation.SQL,
		Title:             translation.Title,
		Explanation:       translation.Explanation,
		Result:            result,
		Visualization:     p.visualization.RecommendVisualization(result, question),
		FollowUpQuestions: p.translator.SuggestFollowUp(ctx, question, result),
	}

	// Only executions that produced rows are worth keeping in history.
	if result.RowCount > 0 {
		saved := &models.SavedQuery{
			UserID:       ds.UserID,
			DataSourceID: ds.ID,
			Name:         translation.Title,
			SQL:          translation.SQL,
			ResultMetadata: map[string]any{
				"question":    question,
				"explanation": translation.Explanation,
			},
			ExecutionTimeMs: result.ExecutionTimeMs,
			RowCount:        result.RowCount,
		}
		if err := p.queries.SaveQuery(ctx, saved); err != nil {
			p.logger.Warn("failed to save query",
				zap.String("datasource_id", ds.ID.String()),
				zap.Error(err))
		}
	}

	return response
}

// userMessageFor maps classified translation failures to messages safe
// and helpful enough to show an end user.
func userMessageFor(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrSchemaUnavailable):
		return "No schema information available for this data source. Please ensure the data source is properly connected."
	case errors.Is(err, apperrors.ErrModelUnavailable):
		return "Unable to connect to AI service. Please check your internet connection."
	case errors.Is(err, apperrors.ErrValidationFailure):
		return "The generated query was rejected by the safety validator. Try rephrasing your question."
	case errors.Is(err, apperrors.ErrParseFailure):
		return "Could not understand the AI response. Try rephrasing your question."
	default:
		return "Failed to translate your question."
	}
}

var _ Pipeline = (*pipeline)(nil)
