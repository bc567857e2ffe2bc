// Package sqlite implements the datasource adapter contracts over database/sql
// with the mattn/go-sqlite3 driver. Structure is read through SQLite's PRAGMA
// interface rather than information_schema, which SQLite does not provide.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens the SQLite database file at path and verifies connectivity.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	return db, nil
}

// quoteIdentifier wraps an identifier in double quotes, doubling any embedded
// quote characters, so table names never participate in SQL syntax.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
