// Package sql provides static SQL safety analysis: statement gating,
// single-statement validation, row-limit amendment, and parameter injection
// screening.
package sql

import (
	"fmt"
	"strings"
)

// disallowedKeywords are statement types that must never reach the database.
var disallowedKeywords = []string{"DROP", "DELETE", "TRUNCATE", "ALTER", "CREATE", "INSERT", "UPDATE"}

// GateError reports a statement rejected by the safety gate.
type GateError struct {
	Keyword string
}

func (e *GateError) Error() string {
	return fmt.Sprintf("operation '%s' is not allowed for safety reasons; only SELECT queries are permitted", e.Keyword)
}

// GateStatement applies the keyword safety gate. A statement rooted at SELECT
// passes without keyword scanning, so a column named created_at is never
// falsely rejected. Anything else is scanned for disallowed keywords anywhere
// in the text and rejected naming the first one found.
//
// Multi-statement smuggling behind a leading SELECT is handled separately by
// ValidateAndNormalize.
func GateStatement(sqlQuery string) error {
	upper := strings.ToUpper(strings.TrimSpace(sqlQuery))

	if strings.HasPrefix(upper, "SELECT") {
		return nil
	}

	for _, keyword := range disallowedKeywords {
		if strings.Contains(upper, keyword) {
			return &GateError{Keyword: keyword}
		}
	}

	return nil
}
