// Package prompts holds the system prompts and prompt builders for SQL
// generation, explanation, optimization, and insight analysis.
package prompts

import (
	"fmt"
	"strings"

	"github.com/sqlbuddy/sqlbuddy-engine/pkg/models"
)

// SQLGenerationSystemPrompt instructs the model to emit raw SQL only.
const SQLGenerationSystemPrompt = `You are an expert SQL query generator. Your task is to convert natural language questions into accurate, optimized SQL queries.

Guidelines:
1. Use the provided database schema information to understand table structures, columns, and relationships
2. Generate SQL that is syntactically correct and follows best practices
3. Use appropriate JOINs when querying multiple tables
4. Apply proper WHERE clauses for filtering
5. Use aggregate functions (COUNT, SUM, AVG, etc.) when needed
6. Include ORDER BY and LIMIT clauses when appropriate
7. Always use table aliases for clarity
8. Ensure column names match exactly with the schema

Generate ONLY the SQL query, without any explanation or markdown formatting. Just the raw SQL.`

// ExplanationSystemPrompt asks for a beginner-friendly reading of a query.
const ExplanationSystemPrompt = `You are a SQL educator. Explain SQL queries in simple, beginner-friendly terms.

Explain the following SQL query in plain English, focusing on:
- What tables are being queried
- What columns are selected
- What filters or conditions are applied
- What aggregations or calculations are performed
- What sorting or limiting is done

Keep the explanation clear and accessible to non-technical users.`

// OptimizationSystemPrompt asks for performance suggestions on a query.
const OptimizationSystemPrompt = `You are a SQL performance expert. Analyze SQL queries and suggest optimizations.

Consider:
1. Missing indexes on WHERE/JOIN columns
2. Unnecessary columns in SELECT
3. Inefficient JOINs
4. Missing WHERE clause filters
5. Suboptimal aggregations
6. Missing LIMIT clauses on large result sets

Provide specific, actionable suggestions.`

// InsightSystemPrompt asks for analyst-style interpretation of results.
const InsightSystemPrompt = `You are a data analyst AI that provides insightful interpretations of query results.

Your task is to analyze the SQL query and its results, then provide:
1. Key findings and patterns
2. Notable statistics (percentages, growth rates, comparisons)
3. Anomalies or outliers
4. Business implications
5. Actionable insights

Be specific, use numbers from the data, and make the insights actionable and decision-supportive.
Keep insights concise but meaningful (2-4 bullet points).`

// historyWindow bounds how many trailing conversation messages feed the
// generation prompt: 6 messages, i.e. the last 3 question/answer exchanges.
const historyWindow = 6

// BuildSQLGenerationSystem assembles the system message for SQL generation:
// the base instructions, the retrieved schema context, and a condensed view
// of the recent conversation when one exists.
func BuildSQLGenerationSystem(schemaContext string, history []models.Message) string {
	var b strings.Builder
	b.WriteString(SQLGenerationSystemPrompt)
	b.WriteString("\n\nDatabase Schema Context:\n")
	b.WriteString(schemaContext)

	recent := tailMessages(history, historyWindow)
	if len(recent) > 0 {
		b.WriteString("\n\nPrevious conversation context:\n")
		lines := make([]string, len(recent))
		for i, msg := range recent {
			prefix := "A"
			if msg.Role == models.RoleUser {
				prefix = "Q"
			}
			lines[i] = fmt.Sprintf("%s: %s", prefix, msg.Content)
		}
		b.WriteString(strings.Join(lines, "\n"))
	}

	return b.String()
}

// RecentHistory returns the trailing conversation messages that accompany a
// generation request as ordered messages, bounded by the history window.
func RecentHistory(history []models.Message) []models.Message {
	return tailMessages(history, historyWindow)
}

// BuildExplanationPrompt wraps a query for the explanation call.
func BuildExplanationPrompt(sqlQuery string) string {
	return fmt.Sprintf("Explain this SQL query in simple terms:\n\n%s", sqlQuery)
}

// BuildOptimizationPrompt wraps a query for the optimization call.
func BuildOptimizationPrompt(sqlQuery string) string {
	return fmt.Sprintf("Analyze and suggest optimizations for this SQL query:\n\n%s", sqlQuery)
}

// BuildInsightPrompt assembles the user message for insight generation from
// the executed query, a bounded digest of its results, and the original
// question.
func BuildInsightPrompt(sqlQuery, resultsDigest, question string) string {
	return fmt.Sprintf(`SQL Query:
%s

Query Results (first 20 rows):
%s

Original Question:
%s

Provide insightful analysis of these results.`, sqlQuery, resultsDigest, question)
}

func tailMessages(messages []models.Message, n int) []models.Message {
	if len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}
