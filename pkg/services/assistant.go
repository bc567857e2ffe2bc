package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sqlbuddy/sqlbuddy-engine/pkg/models"
)

// Exchange is one full pipeline pass: question in, query plus results plus
// interpretation out.
type Exchange struct {
	Question       string
	SQL            string
	Explanation    string
	ResultsSummary string
	Insights       string
	Result         *models.QueryResult
}

// Assistant is the pipeline facade: it orchestrates generation, gated
// execution, and insight analysis, and records every pass in the
// conversation, successful or not.
type Assistant struct {
	generator *SQLGenerator
	executor  *SafeExecutor
	insights  *InsightGenerator
	store     *ConversationStore
	logger    *zap.Logger
}

func NewAssistant(generator *SQLGenerator, executor *SafeExecutor, insights *InsightGenerator, store *ConversationStore, logger *zap.Logger) *Assistant {
	return &Assistant{
		generator: generator,
		executor:  executor,
		insights:  insights,
		store:     store,
		logger:    logger.Named("assistant"),
	}
}

// ProcessQuery answers one natural language question end to end. Generation
// failure aborts the pass with an error; execution failure does not, and is
// reported inside the exchange. Every completed pass is appended to history
// exactly once.
func (a *Assistant) ProcessQuery(ctx context.Context, question string) (*Exchange, error) {
	start := time.Now()

	generated, err := a.generator.GenerateSQL(ctx, question, a.store.History())
	if err != nil {
		return nil, fmt.Errorf("process query: %w", err)
	}

	result := a.executor.Execute(ctx, generated.SQL)

	insights, err := a.insights.GenerateInsights(ctx, generated.SQL, result, question)
	if err != nil {
		// Insight failure does not invalidate the answer; the result and
		// query still get recorded and returned.
		a.logger.Warn("insight generation failed", zap.Error(err))
		insights = insightsUnavailable
	}

	a.store.AddExchange(question, generated.SQL, generated.Explanation, insights, result.Success, result.RowCount)

	a.logger.Info("processed query",
		zap.Bool("success", result.Success),
		zap.Int("rows", result.RowCount),
		zap.Duration("elapsed", time.Since(start)))

	return &Exchange{
		Question:       question,
		SQL:            generated.SQL,
		Explanation:    generated.Explanation,
		ResultsSummary: FormatForDisplay(result),
		Insights:       insights,
		Result:         result,
	}, nil
}

// OptimizationSuggestions asks for performance advice on a query.
func (a *Assistant) OptimizationSuggestions(ctx context.Context, sqlQuery string) (string, error) {
	optimization, err := a.generator.OptimizeQuery(ctx, sqlQuery)
	if err != nil {
		return "", err
	}
	return optimization.Suggestions, nil
}

// ClearConversation drops the session history.
func (a *Assistant) ClearConversation() {
	a.store.Clear()
}

// Summary reports aggregate statistics for the session.
func (a *Assistant) Summary() models.ConversationSummary {
	return a.store.Summary()
}

// RecentActivity renders a condensed view of the last n exchanges.
func (a *Assistant) RecentActivity(n int) string {
	return a.store.RecentContext(n)
}
