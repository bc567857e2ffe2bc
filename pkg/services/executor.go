package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sqlbuddy/sqlbuddy-engine/pkg/adapters/datasource"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/logging"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/models"
	sqlguard "github.com/sqlbuddy/sqlbuddy-engine/pkg/sql"
)

// noRowsMessage is shown when a query succeeds but matches nothing.
const noRowsMessage = "Query executed successfully but returned no rows."

// SafeExecutor runs generated SQL behind the safety gate. Every call
// produces a QueryResult; rejection and database failure are reported inside
// it, never as a returned error, so callers handle one shape. A rejected
// statement never reaches the database.
type SafeExecutor struct {
	runner   datasource.QueryRunner
	rowLimit int
	logger   *zap.Logger
}

func NewSafeExecutor(runner datasource.QueryRunner, rowLimit int, logger *zap.Logger) *SafeExecutor {
	return &SafeExecutor{
		runner:   runner,
		rowLimit: rowLimit,
		logger:   logger.Named("executor"),
	}
}

// Execute gates, bounds, and runs one statement.
func (e *SafeExecutor) Execute(ctx context.Context, sqlQuery string) *models.QueryResult {
	bounded, result := e.gate(sqlQuery)
	if result != nil {
		return result
	}
	return e.run(ctx, bounded, nil)
}

// ExecuteWithParams additionally screens string parameters for injection
// patterns before the statement is gated and run.
func (e *SafeExecutor) ExecuteWithParams(ctx context.Context, sqlQuery string, params []any) *models.QueryResult {
	if findings := sqlguard.CheckAllParameters(params); len(findings) > 0 {
		f := findings[0]
		e.logger.Warn("rejected query parameters",
			zap.Int("param_index", f.ParamIndex),
			zap.String("fingerprint", f.Fingerprint))
		return &models.QueryResult{
			Success: false,
			Error:   fmt.Sprintf("parameter %d rejected: possible SQL injection", f.ParamIndex),
			Query:   sqlQuery,
		}
	}

	bounded, result := e.gate(sqlQuery)
	if result != nil {
		return result
	}
	return e.run(ctx, bounded, params)
}

// gate applies the keyword gate, the single-statement check, and the row
// limit ceiling. It returns either the bounded statement to run or the
// rejection result.
func (e *SafeExecutor) gate(sqlQuery string) (string, *models.QueryResult) {
	if strings.TrimSpace(sqlQuery) == "" {
		return "", &models.QueryResult{
			Success: false,
			Error:   "empty query",
			Query:   sqlQuery,
		}
	}

	if err := sqlguard.GateStatement(sqlQuery); err != nil {
		e.logger.Warn("rejected query",
			zap.String("query", logging.SanitizeQuery(sqlQuery)),
			zap.String("reason", err.Error()))
		return "", &models.QueryResult{
			Success: false,
			Error:   err.Error(),
			Query:   sqlQuery,
		}
	}

	validation := sqlguard.ValidateAndNormalize(sqlQuery)
	if validation.Error != nil {
		e.logger.Warn("rejected query",
			zap.String("query", logging.SanitizeQuery(sqlQuery)),
			zap.String("reason", validation.Error.Error()))
		return "", &models.QueryResult{
			Success: false,
			Error:   validation.Error.Error(),
			Query:   sqlQuery,
		}
	}

	return sqlguard.EnsureLimit(validation.NormalizedSQL, e.rowLimit), nil
}

func (e *SafeExecutor) run(ctx context.Context, sqlQuery string, params []any) *models.QueryResult {
	start := time.Now()

	var (
		execution *datasource.QueryExecutionResult
		err       error
	)
	if params == nil {
		execution, err = e.runner.Query(ctx, sqlQuery)
	} else {
		execution, err = e.runner.QueryWithParams(ctx, sqlQuery, params)
	}
	if err != nil {
		e.logger.Error("execution failed",
			zap.String("query", logging.SanitizeQuery(sqlQuery)),
			zap.Error(err))
		return &models.QueryResult{
			Success: false,
			Error:   logging.SanitizeError(err),
			Query:   sqlQuery,
		}
	}

	e.logger.Info("query executed",
		zap.Int("rows", execution.RowCount),
		zap.Duration("elapsed", time.Since(start)))

	return &models.QueryResult{
		Success:  true,
		Columns:  execution.Columns,
		Rows:     execution.Rows,
		RowCount: execution.RowCount,
		Query:    sqlQuery,
	}
}

// FormatForDisplay renders a result as text: the error on failure, a notice
// on zero rows, otherwise an aligned column table.
func FormatForDisplay(result *models.QueryResult) string {
	if !result.Success {
		return "Error: " + result.Error
	}
	if result.RowCount == 0 {
		return noRowsMessage
	}

	widths := make([]int, len(result.Columns))
	for i, col := range result.Columns {
		widths[i] = len(col)
	}
	cells := make([][]string, len(result.Rows))
	for r, row := range result.Rows {
		cells[r] = make([]string, len(result.Columns))
		for i := range result.Columns {
			var text string
			if i < len(row) && row[i] != nil {
				text = fmt.Sprintf("%v", row[i])
			} else {
				text = "NULL"
			}
			cells[r][i] = text
			if len(text) > widths[i] {
				widths[i] = len(text)
			}
		}
	}

	var b strings.Builder
	writeRow := func(values []string) {
		for i, v := range values {
			if i > 0 {
				b.WriteString(" | ")
			}
			fmt.Fprintf(&b, "%-*s", widths[i], v)
		}
		b.WriteString("\n")
	}

	writeRow(result.Columns)
	separators := make([]string, len(result.Columns))
	for i, w := range widths {
		separators[i] = strings.Repeat("-", w)
	}
	writeRow(separators)
	for _, row := range cells {
		writeRow(row)
	}
	fmt.Fprintf(&b, "\n%d row(s) returned", result.RowCount)

	return b.String()
}
