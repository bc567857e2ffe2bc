package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sqlbuddy/sqlbuddy-engine/pkg/apperrors"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/llm"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/models"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/vectorstore"
)

// builtStore returns a store indexed over a small fixed schema.
func builtStore(t *testing.T) *vectorstore.Store {
	t.Helper()

	embedder := llm.NewMockClient()
	embedder.CreateEmbeddingFunc = func(_ context.Context, input string) ([]float32, error) {
		if strings.Contains(input, "users") {
			return []float32{1, 0}, nil
		}
		return []float32{0, 1}, nil
	}

	store := vectorstore.NewStore(embedder, vectorstore.NewSplitter(1000, 200), t.TempDir(), zap.NewNop())
	require.NoError(t, store.Build(context.Background(), []vectorstore.Document{
		{Source: "users", Content: "Table: users"},
		{Source: "orders", Content: "Table: orders"},
	}, true))
	return store
}

func TestGenerateSQL(t *testing.T) {
	generator := llm.NewMockClient()
	var systems []string
	var temperatures []float64
	generator.GenerateResponseFunc = func(_ context.Context, prompt, system string, temperature float64) (string, error) {
		systems = append(systems, system)
		temperatures = append(temperatures, temperature)
		if strings.Contains(system, "SQL educator") {
			return "This query counts every user.", nil
		}
		return "```sql\nSELECT COUNT(*) FROM users\n```", nil
	}

	service := NewSQLGenerator(generator, builtStore(t), 5, 0.1, zap.NewNop())

	generated, err := service.GenerateSQL(context.Background(), "how many users are there?", nil)
	require.NoError(t, err)

	// Fences stripped from the generation response.
	assert.Equal(t, "SELECT COUNT(*) FROM users", generated.SQL)
	assert.Equal(t, "This query counts every user.", generated.Explanation)
	assert.Contains(t, generated.ContextUsed, "Table: users")

	// One generation call plus one explanation call, both at the SQL temperature.
	require.Equal(t, 2, generator.GenerateResponseCalls)
	assert.Contains(t, systems[0], "expert SQL query generator")
	assert.Contains(t, systems[0], "Relevant Database Schema Information:")
	assert.InDelta(t, 0.1, temperatures[0], 0.0001)
	assert.InDelta(t, 0.1, temperatures[1], 0.0001)
}

func TestGenerateSQL_EmptyQuestion(t *testing.T) {
	service := NewSQLGenerator(llm.NewMockClient(), builtStore(t), 5, 0.1, zap.NewNop())

	_, err := service.GenerateSQL(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, apperrors.ErrEmptyQuestion)
}

func TestGenerateSQL_HistoryInSystemPrompt(t *testing.T) {
	generator := llm.NewMockClient()
	var firstSystem string
	generator.GenerateResponseFunc = func(_ context.Context, _, system string, _ float64) (string, error) {
		if firstSystem == "" {
			firstSystem = system
		}
		return "SELECT 1", nil
	}
	service := NewSQLGenerator(generator, builtStore(t), 5, 0.1, zap.NewNop())

	history := []models.Message{
		{Role: models.RoleUser, Content: "how many users?"},
		{Role: models.RoleAssistant, Content: "SELECT COUNT(*) FROM users"},
	}
	_, err := service.GenerateSQL(context.Background(), "and how many orders?", history)
	require.NoError(t, err)

	assert.Contains(t, firstSystem, "Previous conversation context:")
	assert.Contains(t, firstSystem, "Q: how many users?")
}

func TestGenerateSQL_HistoryAttachedAsOrderedMessages(t *testing.T) {
	generator := llm.NewMockClient()
	var attached []models.Message
	generator.GenerateWithHistoryFunc = func(_ context.Context, _, _ string, history []models.Message, _ float64) (string, error) {
		attached = history
		return "SELECT 1", nil
	}
	generator.GenerateResponseFunc = func(context.Context, string, string, float64) (string, error) {
		return "explanation", nil
	}
	service := NewSQLGenerator(generator, builtStore(t), 5, 0.1, zap.NewNop())

	// Four exchanges recorded; only the trailing three (six messages) ride
	// along with the generation call.
	var history []models.Message
	for _, q := range []string{"first", "second", "third", "fourth"} {
		history = append(history,
			models.Message{Role: models.RoleUser, Content: q},
			models.Message{Role: models.RoleAssistant, Content: "SELECT " + q},
		)
	}

	_, err := service.GenerateSQL(context.Background(), "fifth question", history)
	require.NoError(t, err)

	require.Len(t, attached, 6)
	assert.Equal(t, "second", attached[0].Content)
	assert.Equal(t, models.RoleUser, attached[0].Role)
	assert.Equal(t, "SELECT fourth", attached[5].Content)
	assert.Equal(t, models.RoleAssistant, attached[5].Role)
}

func TestGenerateSQL_GenerationErrorSurfacesRaw(t *testing.T) {
	generator := llm.NewMockClient()
	generationErr := errors.New("model overloaded")
	generator.GenerateResponseFunc = func(context.Context, string, string, float64) (string, error) {
		return "", generationErr
	}
	service := NewSQLGenerator(generator, builtStore(t), 5, 0.1, zap.NewNop())

	_, err := service.GenerateSQL(context.Background(), "question", nil)
	assert.ErrorIs(t, err, generationErr)
	// No retry happens.
	assert.Equal(t, 1, generator.GenerateResponseCalls)
}

func TestGenerateSQL_EmptyModelResponse(t *testing.T) {
	generator := llm.NewMockClient()
	generator.GenerateResponseFunc = func(context.Context, string, string, float64) (string, error) {
		return "```sql\n```", nil
	}
	service := NewSQLGenerator(generator, builtStore(t), 5, 0.1, zap.NewNop())

	_, err := service.GenerateSQL(context.Background(), "question", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty query")
}

func TestOptimizeQuery(t *testing.T) {
	generator := llm.NewMockClient()
	generator.GenerateResponseFunc = func(_ context.Context, prompt, system string, _ float64) (string, error) {
		assert.Contains(t, system, "SQL performance expert")
		assert.Contains(t, prompt, "SELECT * FROM orders")
		return "Add an index on orders(user_id).", nil
	}
	service := NewSQLGenerator(generator, builtStore(t), 5, 0.1, zap.NewNop())

	result, err := service.OptimizeQuery(context.Background(), "SELECT * FROM orders")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders", result.OriginalQuery)
	assert.Equal(t, "Add an index on orders(user_id).", result.Suggestions)
}
