package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sqlbuddy/sqlbuddy-engine/pkg/models"
)

func TestConversationStore_AddExchangeAndTurns(t *testing.T) {
	store := NewConversationStore(20, zap.NewNop())

	store.AddExchange("how many users?", "SELECT COUNT(*) FROM users", "counts users", "1 user", true, 1)

	turns := store.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, "how many users?", turns[0].Question)
	assert.Equal(t, "SELECT COUNT(*) FROM users", turns[0].SQL)
	assert.True(t, turns[0].Success)
	assert.False(t, turns[0].Timestamp.IsZero())
}

func TestConversationStore_FIFOEviction(t *testing.T) {
	store := NewConversationStore(3, zap.NewNop())

	for i := 0; i < 5; i++ {
		store.AddExchange(fmt.Sprintf("question %d", i), "SELECT 1", "", "", true, 1)
	}

	turns := store.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, "question 2", turns[0].Question)
	assert.Equal(t, "question 4", turns[2].Question)
}

func TestConversationStore_HistoryView(t *testing.T) {
	store := NewConversationStore(3, zap.NewNop())

	for i := 0; i < 5; i++ {
		store.AddExchange(fmt.Sprintf("question %d", i), "SELECT 1", "reads one row", "", i%2 == 0, i)
	}

	history := store.History()
	// Two messages per retained turn, never more than twice the cap.
	require.Len(t, history, 6)
	assert.Equal(t, models.RoleUser, history[0].Role)
	assert.Equal(t, "question 2", history[0].Content)
	assert.Equal(t, models.RoleAssistant, history[1].Role)
	assert.Contains(t, history[1].Content, "SELECT 1")
	assert.Contains(t, history[1].Content, "(2 rows)")
	assert.Contains(t, history[3].Content, "(query failed)")
}

func TestConversationStore_RecentContext(t *testing.T) {
	store := NewConversationStore(20, zap.NewNop())
	assert.Equal(t, "", store.RecentContext(3))

	store.AddExchange("first", "SELECT 1", "", "", true, 10)
	store.AddExchange("second", "SELECT 2", "", "", false, 0)
	store.AddExchange("third", "SELECT 3", "", "", true, 5)
	store.AddExchange("fourth", "SELECT 4", "", "", true, 2)

	text := store.RecentContext(3)
	assert.NotContains(t, text, "first")
	assert.Contains(t, text, "Q: second\nSQL: SELECT 2\nResult: failed")
	assert.Contains(t, text, "Q: third\nSQL: SELECT 3\nResult: 5 rows")
	assert.Contains(t, text, "Q: fourth")
}

func TestConversationStore_Clear(t *testing.T) {
	store := NewConversationStore(20, zap.NewNop())
	id := store.SessionID()

	store.AddExchange("q", "SELECT 1", "", "", true, 1)
	store.Clear()

	assert.Empty(t, store.Turns())
	assert.Empty(t, store.History())
	assert.Equal(t, id, store.SessionID())
}

func TestConversationStore_Summary(t *testing.T) {
	store := NewConversationStore(20, zap.NewNop())

	empty := store.Summary()
	assert.Equal(t, 0, empty.TotalQueries)
	assert.Equal(t, 0.0, empty.SuccessRate)

	store.AddExchange("a", "SELECT 1", "", "", true, 10)
	store.AddExchange("b", "SELECT 2", "", "", true, 5)
	store.AddExchange("c", "DROP?", "", "", false, 0)

	summary := store.Summary()
	assert.Equal(t, 3, summary.TotalQueries)
	assert.Equal(t, 2, summary.SuccessfulQueries)
	assert.InDelta(t, 2.0/3.0, summary.SuccessRate, 0.0001)
	assert.Equal(t, 15, summary.TotalRowsReturned)
	assert.Equal(t, 3, summary.Turns)
}
