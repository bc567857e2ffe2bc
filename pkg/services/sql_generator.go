package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sqlbuddy/sqlbuddy-engine/pkg/apperrors"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/llm"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/models"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/prompts"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/vectorstore"
)

// GeneratedQuery is the output of one synthesis pass.
type GeneratedQuery struct {
	SQL         string
	Explanation string
	ContextUsed string
}

// OptimizationResult pairs a query with the model's performance suggestions.
type OptimizationResult struct {
	OriginalQuery string
	Suggestions   string
}

// SQLGenerator turns natural language questions into SQL using retrieved
// schema context and recent conversation history.
type SQLGenerator struct {
	generator      llm.TextGenerator
	store          *vectorstore.Store
	topK           int
	sqlTemperature float64
	logger         *zap.Logger
}

func NewSQLGenerator(generator llm.TextGenerator, store *vectorstore.Store, topK int, sqlTemperature float64, logger *zap.Logger) *SQLGenerator {
	return &SQLGenerator{
		generator:      generator,
		store:          store,
		topK:           topK,
		sqlTemperature: sqlTemperature,
		logger:         logger.Named("sql_generator"),
	}
}

// GenerateSQL retrieves schema context for the question, makes one generation
// call, strips any markdown fencing from the response, and makes a second
// call for the plain-English explanation. Errors surface raw; there is no
// retry and no fallback query.
func (g *SQLGenerator) GenerateSQL(ctx context.Context, question string, history []models.Message) (*GeneratedQuery, error) {
	if strings.TrimSpace(question) == "" {
		return nil, apperrors.ErrEmptyQuestion
	}

	schemaContext, err := g.store.GetContext(ctx, question, g.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve schema context: %w", err)
	}

	system := prompts.BuildSQLGenerationSystem(schemaContext, history)

	// The recent exchanges ride along twice: condensed inside the system
	// message and verbatim as ordered messages ahead of the question.
	start := time.Now()
	response, err := g.generator.GenerateWithHistory(ctx, question, system, prompts.RecentHistory(history), g.sqlTemperature)
	if err != nil {
		return nil, fmt.Errorf("generate sql: %w", err)
	}

	sqlQuery := llm.ExtractSQL(response)
	if sqlQuery == "" {
		return nil, fmt.Errorf("model returned an empty query")
	}

	explanation, err := g.GenerateExplanation(ctx, sqlQuery)
	if err != nil {
		return nil, fmt.Errorf("generate explanation: %w", err)
	}

	g.logger.Info("generated sql",
		zap.Int("question_len", len(question)),
		zap.Int("sql_len", len(sqlQuery)),
		zap.Duration("elapsed", time.Since(start)))

	return &GeneratedQuery{
		SQL:         sqlQuery,
		Explanation: explanation,
		ContextUsed: schemaContext,
	}, nil
}

// GenerateExplanation produces a beginner-friendly reading of a query.
func (g *SQLGenerator) GenerateExplanation(ctx context.Context, sqlQuery string) (string, error) {
	response, err := g.generator.GenerateResponse(ctx,
		prompts.BuildExplanationPrompt(sqlQuery),
		prompts.ExplanationSystemPrompt,
		g.sqlTemperature)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response), nil
}

// OptimizeQuery asks the model for performance suggestions on a query.
func (g *SQLGenerator) OptimizeQuery(ctx context.Context, sqlQuery string) (*OptimizationResult, error) {
	response, err := g.generator.GenerateResponse(ctx,
		prompts.BuildOptimizationPrompt(sqlQuery),
		prompts.OptimizationSystemPrompt,
		g.sqlTemperature)
	if err != nil {
		return nil, fmt.Errorf("optimize query: %w", err)
	}

	return &OptimizationResult{
		OriginalQuery: sqlQuery,
		Suggestions:   strings.TrimSpace(response),
	}, nil
}
