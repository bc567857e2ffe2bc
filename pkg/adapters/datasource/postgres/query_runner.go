package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/sqlbuddy/sqlbuddy-engine/pkg/adapters/datasource"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/logging"
)

// QueryRunner executes read queries against PostgreSQL and materializes the
// full result set in memory. Callers are expected to have bounded the query
// with a row limit before it reaches this layer.
type QueryRunner struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

var _ datasource.QueryRunner = (*QueryRunner)(nil)

func NewQueryRunner(pool *pgxpool.Pool, logger *zap.Logger) *QueryRunner {
	return &QueryRunner{
		pool:   pool,
		logger: logger.Named("postgres_query"),
	}
}

func (r *QueryRunner) Query(ctx context.Context, sqlQuery string) (*datasource.QueryExecutionResult, error) {
	return r.run(ctx, sqlQuery, nil)
}

func (r *QueryRunner) QueryWithParams(ctx context.Context, sqlQuery string, params []any) (*datasource.QueryExecutionResult, error) {
	return r.run(ctx, sqlQuery, params)
}

func (r *QueryRunner) Close() error {
	r.pool.Close()
	return nil
}

func (r *QueryRunner) run(ctx context.Context, sqlQuery string, params []any) (*datasource.QueryExecutionResult, error) {
	start := time.Now()

	rows, err := r.pool.Query(ctx, sqlQuery, params...)
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

// materializeRows drains a pgx row set into the adapter-neutral result shape.
func materializeRows(rows pgx.Rows) (*datasource.QueryExecutionResult, error) {
	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	data := make([][]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}
		row := make([]any, len(values))
		copy(row, values)
		data = append(data, row)
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
