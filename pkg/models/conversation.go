package models

import "time"

// Message roles for the prompting view of conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn records one complete question-to-answer exchange.
// Turns are never mutated after creation.
type ConversationTurn struct {
	Timestamp   time.Time `json:"timestamp"`
	Question    string    `json:"question"`
	SQL         string    `json:"sql"`
	Explanation string    `json:"explanation,omitempty"`
	Insights    string    `json:"insights,omitempty"`
	Success     bool      `json:"success"`
	RowCount    int       `json:"row_count"`
}

// Message is one entry in the prompting view derived from turns.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationSummary holds on-demand statistics over the recorded turns.
type ConversationSummary struct {
	TotalQueries      int     `json:"total_queries"`
	SuccessfulQueries int     `json:"successful_queries"`
	SuccessRate       float64 `json:"success_rate"`
	TotalRowsReturned int     `json:"total_rows_returned"`
	Turns             int     `json:"conversation_turns"`
}
