// Package models holds the domain types shared across the pipeline.
package models

// QueryResult is the canonical contract every executor path returns, success
// or failure. Callers must not special-case partial states: Success plus a
// bounded Rows set, or a failure with Error populated - nothing in between.
type QueryResult struct {
	Success  bool     `json:"success"`
	Columns  []string `json:"columns,omitempty"`
	Rows     [][]any  `json:"rows,omitempty"`
	RowCount int      `json:"row_count"`
	Error    string   `json:"error,omitempty"`

	// Query is the statement actually run, including any appended LIMIT.
	Query string `json:"query"`
}
