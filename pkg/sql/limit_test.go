package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureLimit(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected string
	}{
		{
			name:     "select without limit gets ceiling",
			query:    "SELECT * FROM users",
			expected: "SELECT * FROM users LIMIT 1000",
		},
		{
			name:     "existing limit untouched",
			query:    "SELECT * FROM users LIMIT 10",
			expected: "SELECT * FROM users LIMIT 10",
		},
		{
			name:     "lowercase limit untouched",
			query:    "select * from users limit 10",
			expected: "select * from users limit 10",
		},
		{
			name:     "limit inserted before trailing semicolon",
			query:    "SELECT * FROM users;",
			expected: "SELECT * FROM users LIMIT 1000;",
		},
		{
			name:     "non-select untouched",
			query:    "EXPLAIN ANALYZE SELECT * FROM users",
			expected: "EXPLAIN ANALYZE SELECT * FROM users",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EnsureLimit(tt.query, 1000))
		})
	}
}

func TestEnsureLimit_CustomCeiling(t *testing.T) {
	assert.Equal(t, "SELECT id FROM orders LIMIT 50", EnsureLimit("SELECT id FROM orders", 50))
}
