// Package datasource defines the adapter contracts for the target relational
// database: schema introspection and bounded query execution.
package datasource

import "context"

// SchemaIntrospector reads database structure for context indexing.
// Each implementation owns its connection and must be closed when done.
// Results are immutable snapshots; introspectors never cache.
type SchemaIntrospector interface {
	// ListTables returns all user table names in a stable order.
	ListTables(ctx context.Context) ([]string, error)

	// DescribeTable returns the full schema snapshot for a table.
	DescribeTable(ctx context.Context, table string) (*TableSchema, error)

	// SampleRows returns up to limit rows from a table.
	SampleRows(ctx context.Context, table string, limit int) (*QueryExecutionResult, error)

	// Close releases the database connection.
	Close() error
}

// QueryRunner executes read queries against the database. Statements reaching
// a QueryRunner have already passed the safety gate; the runner materializes
// all rows and returns them with column names.
type QueryRunner interface {
	// Query runs a statement and returns results.
	Query(ctx context.Context, sqlQuery string) (*QueryExecutionResult, error)

	// QueryWithParams runs a parameterized statement with positional
	// placeholders in the adapter's dialect.
	QueryWithParams(ctx context.Context, sqlQuery string, params []any) (*QueryExecutionResult, error)

	// Close releases any resources held by the runner.
	Close() error
}

// TableSchema is an immutable snapshot of one table's structure, captured
// once per introspection call.
type TableSchema struct {
	Name        string       `json:"name"`
	Columns     []Column     `json:"columns"`
	PrimaryKeys []string     `json:"primary_keys"`
	ForeignKeys []ForeignKey `json:"foreign_keys"`
	Indexes     []Index      `json:"indexes"`
}

// Column describes a table column.
type Column struct {
	Name       string  `json:"name"`
	DataType   string  `json:"data_type"`
	IsNullable bool    `json:"is_nullable"`
	Default    *string `json:"default,omitempty"`
}

// ForeignKey describes one foreign key constraint, possibly multi-column.
type ForeignKey struct {
	Columns           []string `json:"columns"`
	ReferencedTable   string   `json:"referenced_table"`
	ReferencedColumns []string `json:"referenced_columns"`
}

// Index describes a table index.
type Index struct {
	Name     string   `json:"name"`
	Columns  []string `json:"columns"`
	IsUnique bool     `json:"is_unique"`
}

// QueryExecutionResult holds materialized rows plus column names.
type QueryExecutionResult struct {
	Columns  []string `json:"columns"`
	Rows     [][]any  `json:"rows"`
	RowCount int      `json:"row_count"`
}
