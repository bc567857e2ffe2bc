package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sqlbuddy/sqlbuddy-engine/pkg/llm"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/models"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/prompts"
)

const (
	insightsUnavailable = "Unable to generate insights: Query execution failed or returned no data."
	insightsNoRows      = "No insights available: Query returned no rows."

	// maxRowsForAnalysis bounds how many rows the digest carries to the model.
	maxRowsForAnalysis = 20
)

// InsightGenerator interprets query results with one analysis call. Failed
// or empty results short-circuit to a sentinel without spending a call.
type InsightGenerator struct {
	generator   llm.TextGenerator
	temperature float64
	logger      *zap.Logger
}

func NewInsightGenerator(generator llm.TextGenerator, temperature float64, logger *zap.Logger) *InsightGenerator {
	return &InsightGenerator{
		generator:   generator,
		temperature: temperature,
		logger:      logger.Named("insights"),
	}
}

// GenerateInsights analyzes a result set against the question it answered.
func (g *InsightGenerator) GenerateInsights(ctx context.Context, sqlQuery string, result *models.QueryResult, question string) (string, error) {
	if result == nil || !result.Success {
		return insightsUnavailable, nil
	}
	if result.RowCount == 0 {
		return insightsNoRows, nil
	}

	digest := buildResultsDigest(result, maxRowsForAnalysis)
	prompt := prompts.BuildInsightPrompt(sqlQuery, digest, question)

	response, err := g.generator.GenerateResponse(ctx, prompt, prompts.InsightSystemPrompt, g.temperature)
	if err != nil {
		return "", fmt.Errorf("generate insights: %w", err)
	}

	g.logger.Debug("generated insights", zap.Int("rows_analyzed", min(result.RowCount, maxRowsForAnalysis)))
	return strings.TrimSpace(response), nil
}

// buildResultsDigest summarizes a result set for analysis: shape, column
// names, a bounded row sample, and min/max/mean/sum for numeric columns.
func buildResultsDigest(result *models.QueryResult, maxRows int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Total rows: %d\n", result.RowCount)
	fmt.Fprintf(&b, "Total columns: %d\n", len(result.Columns))
	fmt.Fprintf(&b, "\nColumn names: %s\n", strings.Join(result.Columns, ", "))

	sample := result.Rows
	if len(sample) > maxRows {
		sample = sample[:maxRows]
	}
	fmt.Fprintf(&b, "\nSample data (first %d rows):\n", len(sample))
	b.WriteString(strings.Join(result.Columns, " | "))
	b.WriteString("\n")
	for _, row := range sample {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = "NULL"
			} else {
				cells[i] = fmt.Sprintf("%v", v)
			}
		}
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString("\n")
	}

	stats := numericColumnStats(result)
	if len(stats) > 0 {
		b.WriteString("\nNumeric column statistics:\n")
		for _, s := range stats {
			fmt.Fprintf(&b, "  %s: min=%v, max=%v, mean=%.2f, sum=%.2f\n",
				s.name, s.min, s.max, s.mean, s.sum)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

type columnStats struct {
	name     string
	min, max float64
	mean     float64
	sum      float64
}

// numericColumnStats computes statistics for columns whose every non-nil
// value is numeric. Integer and float cell types count, as do strings that
// parse as numbers, since drivers return NUMERIC columns as text.
func numericColumnStats(result *models.QueryResult) []columnStats {
	var stats []columnStats
	for i, name := range result.Columns {
		var (
			values  []float64
			numeric = true
		)
		for _, row := range result.Rows {
			if i >= len(row) || row[i] == nil {
				continue
			}
			v, ok := asFloat(row[i])
			if !ok {
				numeric = false
				break
			}
			values = append(values, v)
		}
		if !numeric || len(values) == 0 {
			continue
		}

		s := columnStats{name: name, min: values[0], max: values[0]}
		for _, v := range values {
			if v < s.min {
				s.min = v
			}
			if v > s.max {
				s.max = v
			}
			s.sum += v
		}
		s.mean = s.sum / float64(len(values))
		stats = append(stats, s)
	}
	return stats
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
