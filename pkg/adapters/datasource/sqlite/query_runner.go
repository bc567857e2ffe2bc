package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sqlbuddy/sqlbuddy-engine/pkg/adapters/datasource"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/logging"
)

// QueryRunner executes read queries against SQLite and materializes the full
// result set in memory.
type QueryRunner struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ datasource.QueryRunner = (*QueryRunner)(nil)

func NewQueryRunner(db *sql.DB, logger *zap.Logger) *QueryRunner {
	return &QueryRunner{
		db:     db,
		logger: logger.Named("sqlite_query"),
	}
}

func (r *QueryRunner) Query(ctx context.Context, sqlQuery string) (*datasource.QueryExecutionResult, error) {
	return r.run(ctx, sqlQuery, nil)
}

func (r *QueryRunner) QueryWithParams(ctx context.Context, sqlQuery string, params []any) (*datasource.QueryExecutionResult, error) {
	return r.run(ctx, sqlQuery, params)
}

func (r *QueryRunner) Close() error {
	return r.db.Close()
}

func (r *QueryRunner) run(ctx context.Context, sqlQuery string, params []any) (*datasource.QueryExecutionResult, error) {
	start := time.Now()

	rows, err := r.db.QueryContext(ctx, sqlQuery, params...)
	if err != nil {
		r.logger.Error("query failed",
			zap.String("query", logging.SanitizeQuery(sqlQuery)),
			zap.Error(err))
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	result, err := materializeRows(rows)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("query executed",
		zap.String("query", logging.SanitizeQuery(sqlQuery)),
		zap.Int("rows", result.RowCount),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// materializeRows drains a database/sql row set into the adapter-neutral
// result shape. Byte slices are copied to strings because the driver may
// reuse the underlying buffer between rows.
func materializeRows(rows *sql.Rows) (*datasource.QueryExecutionResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read column names: %w", err)
	}

	data := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		data = append(data, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return &datasource.QueryExecutionResult{
		Columns:  columns,
		Rows:     data,
		RowCount: len(data),
	}, nil
}
