package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSQL(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected string
	}{
		{
			name:     "raw sql passes through",
			response: "SELECT * FROM users",
			expected: "SELECT * FROM users",
		},
		{
			name:     "sql fence stripped",
			response: "```sql\nSELECT * FROM users\n```",
			expected: "SELECT * FROM users",
		},
		{
			name:     "bare fence stripped",
			response: "```\nSELECT * FROM users\n```",
			expected: "SELECT * FROM users",
		},
		{
			name:     "surrounding whitespace trimmed",
			response: "  \nSELECT 1\n  ",
			expected: "SELECT 1",
		},
		{
			name:     "think tags removed",
			response: "<think>join users to orders first</think>\nSELECT * FROM users u JOIN orders o ON o.user_id = u.id",
			expected: "SELECT * FROM users u JOIN orders o ON o.user_id = u.id",
		},
		{
			name:     "think tags and fence combined",
			response: "<think>count them</think>\n```sql\nSELECT COUNT(*) FROM users\n```",
			expected: "SELECT COUNT(*) FROM users",
		},
		{
			name:     "multiline sql preserved",
			response: "```sql\nSELECT id,\n       name\nFROM users\nWHERE active = true\n```",
			expected: "SELECT id,\n       name\nFROM users\nWHERE active = true",
		},
		{
			name:     "empty response",
			response: "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractSQL(tt.response))
		})
	}
}
