package sql

import (
	"fmt"
	"strings"
)

// EnsureLimit appends a LIMIT clause with the given ceiling to a SELECT
// statement that has none, inserted before a trailing semicolon if present.
// Statements that already carry a LIMIT, and non-SELECT statements, are
// returned unchanged.
func EnsureLimit(sqlQuery string, ceiling int) string {
	trimmed := strings.TrimSpace(sqlQuery)
	upper := strings.ToUpper(trimmed)

	if !strings.HasPrefix(upper, "SELECT") || strings.Contains(upper, "LIMIT") {
		return sqlQuery
	}

	if strings.HasSuffix(trimmed, ";") {
		return fmt.Sprintf("%s LIMIT %d;", strings.TrimSuffix(trimmed, ";"), ceiling)
	}
	return fmt.Sprintf("%s LIMIT %d", trimmed, ceiling)
}
