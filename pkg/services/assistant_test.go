package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sqlbuddy/sqlbuddy-engine/pkg/models"
)

// routedClient answers by system prompt role: SQL synthesis, explanation,
// optimization, or insights. One instance serves all generator seats.
type routedClient struct {
	sqlResponse string
	err         error
	insightErr  error

	synthesisSystems   []string
	synthesisHistories [][]models.Message
}

func newRoutedClient(sqlResponse string) *routedClient {
	return &routedClient{sqlResponse: sqlResponse}
}

func (c *routedClient) GenerateResponse(_ context.Context, _ string, system string, _ float64) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	switch {
	case strings.Contains(system, "SQL educator"):
		return "plain explanation", nil
	case strings.Contains(system, "SQL performance expert"):
		return "optimization advice", nil
	case strings.Contains(system, "data analyst"):
		if c.insightErr != nil {
			return "", c.insightErr
		}
		return "analyst insights", nil
	default:
		c.synthesisSystems = append(c.synthesisSystems, system)
		return c.sqlResponse, nil
	}
}

func (c *routedClient) GenerateWithHistory(ctx context.Context, prompt string, system string, history []models.Message, temperature float64) (string, error) {
	c.synthesisHistories = append(c.synthesisHistories, history)
	return c.GenerateResponse(ctx, prompt, system, temperature)
}

func (c *routedClient) GetModel() string { return "routed-mock" }

func newTestAssistant(t *testing.T, client *routedClient, runner *fakeRunner) *Assistant {
	t.Helper()

	logger := zap.NewNop()
	return NewAssistant(
		NewSQLGenerator(client, builtStore(t), 5, 0.1, logger),
		NewSafeExecutor(runner, 1000, logger),
		NewInsightGenerator(client, 0.3, logger),
		NewConversationStore(20, logger),
		logger,
	)
}

func TestAssistant_ProcessQuerySuccess(t *testing.T) {
	runner := newFakeRunner()
	assistant := newTestAssistant(t, newRoutedClient("SELECT COUNT(*) AS count FROM users"), runner)

	exchange, err := assistant.ProcessQuery(context.Background(), "how many users?")
	require.NoError(t, err)

	assert.Equal(t, "SELECT COUNT(*) AS count FROM users", exchange.SQL)
	assert.Equal(t, "plain explanation", exchange.Explanation)
	assert.Equal(t, "analyst insights", exchange.Insights)
	assert.Contains(t, exchange.ResultsSummary, "count")
	require.NotNil(t, exchange.Result)
	assert.True(t, exchange.Result.Success)

	// Exactly one turn recorded.
	summary := assistant.Summary()
	assert.Equal(t, 1, summary.TotalQueries)
	assert.Equal(t, 1, summary.SuccessfulQueries)
}

func TestAssistant_RejectedQueryStillRecorded(t *testing.T) {
	runner := newFakeRunner()
	assistant := newTestAssistant(t, newRoutedClient("DROP TABLE users"), runner)

	exchange, err := assistant.ProcessQuery(context.Background(), "remove the users table")
	require.NoError(t, err)

	require.NotNil(t, exchange.Result)
	assert.False(t, exchange.Result.Success)
	assert.Contains(t, exchange.ResultsSummary, "Error:")
	assert.Equal(t, "Unable to generate insights: Query execution failed or returned no data.", exchange.Insights)
	assert.Empty(t, runner.queries, "rejected statement must not reach the database")

	summary := assistant.Summary()
	assert.Equal(t, 1, summary.TotalQueries)
	assert.Equal(t, 0, summary.SuccessfulQueries)
}

func TestAssistant_GenerationFailureNotRecorded(t *testing.T) {
	client := newRoutedClient("SELECT 1")
	client.err = errors.New("model offline")
	assistant := newTestAssistant(t, client, newFakeRunner())

	_, err := assistant.ProcessQuery(context.Background(), "anything")
	require.Error(t, err)

	assert.Equal(t, 0, assistant.Summary().TotalQueries)
}

func TestAssistant_InsightFailureDoesNotAbort(t *testing.T) {
	client := newRoutedClient("SELECT COUNT(*) AS count FROM users")
	client.insightErr = errors.New("rate limited")
	assistant := newTestAssistant(t, client, newFakeRunner())

	exchange, err := assistant.ProcessQuery(context.Background(), "how many users?")
	require.NoError(t, err)

	assert.True(t, exchange.Result.Success)
	assert.Equal(t, "Unable to generate insights: Query execution failed or returned no data.", exchange.Insights)
	assert.Equal(t, 1, assistant.Summary().TotalQueries)
}

func TestAssistant_HistoryFeedsFollowupGeneration(t *testing.T) {
	client := newRoutedClient("SELECT COUNT(*) AS count FROM users")
	assistant := newTestAssistant(t, client, newFakeRunner())

	_, err := assistant.ProcessQuery(context.Background(), "how many users?")
	require.NoError(t, err)

	_, err = assistant.ProcessQuery(context.Background(), "and yesterday?")
	require.NoError(t, err)

	require.Len(t, client.synthesisSystems, 2)
	assert.NotContains(t, client.synthesisSystems[0], "Previous conversation context")
	assert.Contains(t, client.synthesisSystems[1], "Previous conversation context")
	assert.Contains(t, client.synthesisSystems[1], "Q: how many users?")

	// The follow-up also carries the prior exchange verbatim as ordered
	// messages, not just the condensed rendering in the system prompt.
	require.Len(t, client.synthesisHistories, 2)
	assert.Empty(t, client.synthesisHistories[0])
	prior := client.synthesisHistories[1]
	require.Len(t, prior, 2)
	assert.Equal(t, models.RoleUser, prior[0].Role)
	assert.Equal(t, "how many users?", prior[0].Content)
	assert.Equal(t, models.RoleAssistant, prior[1].Role)
	assert.Contains(t, prior[1].Content, "SELECT COUNT(*) AS count FROM users")

	assert.Equal(t, 2, assistant.Summary().TotalQueries)
}

func TestAssistant_ClearConversation(t *testing.T) {
	assistant := newTestAssistant(t, newRoutedClient("SELECT 1"), newFakeRunner())

	_, err := assistant.ProcessQuery(context.Background(), "first question")
	require.NoError(t, err)
	require.Equal(t, 1, assistant.Summary().TotalQueries)

	assistant.ClearConversation()
	assert.Equal(t, 0, assistant.Summary().TotalQueries)
}

func TestAssistant_OptimizationSuggestions(t *testing.T) {
	assistant := newTestAssistant(t, newRoutedClient("SELECT 1"), newFakeRunner())

	suggestions, err := assistant.OptimizationSuggestions(context.Background(), "SELECT * FROM orders")
	require.NoError(t, err)
	assert.Equal(t, "optimization advice", suggestions)
}
