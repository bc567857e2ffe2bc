// Package services wires retrieval, generation, gating, execution, and
// insight analysis into the question-answering pipeline.
package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sqlbuddy/sqlbuddy-engine/pkg/models"
)

// ConversationStore holds the session's exchange history as a single ordered
// turn list with FIFO eviction at maxHistory. The message view consumed by
// prompt assembly is derived on demand, never stored separately.
type ConversationStore struct {
	sessionID  uuid.UUID
	maxHistory int
	logger     *zap.Logger

	mu    sync.Mutex
	turns []models.ConversationTurn
}

func NewConversationStore(maxHistory int, logger *zap.Logger) *ConversationStore {
	return &ConversationStore{
		sessionID:  uuid.New(),
		maxHistory: maxHistory,
		logger:     logger.Named("conversation"),
	}
}

func (c *ConversationStore) SessionID() uuid.UUID {
	return c.sessionID
}

// AddExchange records one completed pipeline pass, successful or not.
// The oldest turn is evicted once the cap is reached.
func (c *ConversationStore) AddExchange(question, sqlQuery, explanation, insights string, success bool, rowCount int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.turns = append(c.turns, models.ConversationTurn{
		Timestamp:   time.Now().UTC(),
		Question:    question,
		SQL:         sqlQuery,
		Explanation: explanation,
		Insights:    insights,
		Success:     success,
		RowCount:    rowCount,
	})
	if len(c.turns) > c.maxHistory {
		c.turns = c.turns[len(c.turns)-c.maxHistory:]
	}
}

// Turns returns a copy of the recorded turns, oldest first.
func (c *ConversationStore) Turns() []models.ConversationTurn {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.ConversationTurn, len(c.turns))
	copy(out, c.turns)
	return out
}

// History derives the message view of the conversation: one user message and
// one assistant message per turn, at most 2x the turn cap.
func (c *ConversationStore) History() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	messages := make([]models.Message, 0, 2*len(c.turns))
	for _, turn := range c.turns {
		messages = append(messages, models.Message{
			Role:    models.RoleUser,
			Content: turn.Question,
		})
		messages = append(messages, models.Message{
			Role:    models.RoleAssistant,
			Content: renderAssistantContent(turn),
		})
	}
	return messages
}

// RecentContext renders a condensed view of the last n turns for prompt
// assembly. Returns "" when the conversation is empty.
func (c *ConversationStore) RecentContext(n int) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.turns) == 0 || n <= 0 {
		return ""
	}
	start := len(c.turns) - n
	if start < 0 {
		start = 0
	}

	var b strings.Builder
	for _, turn := range c.turns[start:] {
		outcome := "failed"
		if turn.Success {
			outcome = fmt.Sprintf("%d rows", turn.RowCount)
		}
		fmt.Fprintf(&b, "Q: %s\nSQL: %s\nResult: %s\n", turn.Question, turn.SQL, outcome)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Clear drops all recorded turns. The session identifier is retained.
func (c *ConversationStore) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.turns = nil
	c.logger.Info("conversation cleared", zap.String("session_id", c.sessionID.String()))
}

// Summary computes aggregate statistics over the recorded turns.
func (c *ConversationStore) Summary() models.ConversationSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	summary := models.ConversationSummary{
		TotalQueries: len(c.turns),
		Turns:        len(c.turns),
	}
	for _, turn := range c.turns {
		if turn.Success {
			summary.SuccessfulQueries++
			summary.TotalRowsReturned += turn.RowCount
		}
	}
	if summary.TotalQueries > 0 {
		summary.SuccessRate = float64(summary.SuccessfulQueries) / float64(summary.TotalQueries)
	}
	return summary
}

func renderAssistantContent(turn models.ConversationTurn) string {
	var b strings.Builder
	b.WriteString(turn.SQL)
	if turn.Success {
		fmt.Fprintf(&b, "\n(%d rows)", turn.RowCount)
	} else {
		b.WriteString("\n(query failed)")
	}
	if turn.Explanation != "" {
		b.WriteString("\n")
		b.WriteString(turn.Explanation)
	}
	return b.String()
}
