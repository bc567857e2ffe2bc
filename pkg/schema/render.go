// Package schema turns introspected database structure into the text
// documents that feed the vector index.
package schema

import (
	"fmt"
	"strings"

	"github.com/sqlbuddy/sqlbuddy-engine/pkg/adapters/datasource"
)

// NoRelationshipsText is rendered when the database has no foreign keys, so
// the relationships document is never empty.
const NoRelationshipsText = "No foreign key relationships found."

// RenderTableText renders one table's structure as plain text: columns with
// nullability and defaults, primary key, foreign keys, and indexes.
func RenderTableText(table *datasource.TableSchema) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Table: %s\n", table.Name)
	b.WriteString("Columns:\n")
	for _, col := range table.Columns {
		fmt.Fprintf(&b, "  - %s (%s", col.Name, col.DataType)
		if !col.IsNullable {
			b.WriteString(", NOT NULL")
		}
		if col.Default != nil {
			fmt.Fprintf(&b, ", DEFAULT %s", *col.Default)
		}
		b.WriteString(")\n")
	}

	if len(table.PrimaryKeys) > 0 {
		fmt.Fprintf(&b, "Primary Key: %s\n", strings.Join(table.PrimaryKeys, ", "))
	}

	for _, fk := range table.ForeignKeys {
		fmt.Fprintf(&b, "Foreign Key: %s references %s(%s)\n",
			strings.Join(fk.Columns, ", "),
			fk.ReferencedTable,
			strings.Join(fk.ReferencedColumns, ", "))
	}

	for _, idx := range table.Indexes {
		kind := "Index"
		if idx.IsUnique {
			kind = "Unique Index"
		}
		fmt.Fprintf(&b, "%s: %s on (%s)\n", kind, idx.Name, strings.Join(idx.Columns, ", "))
	}

	return b.String()
}

// RenderRelationshipsText summarizes every foreign key across the schema in
// one document so join paths can be retrieved together.
func RenderRelationshipsText(tables []*datasource.TableSchema) string {
	var b strings.Builder
	b.WriteString("Database Relationships:\n")

	found := false
	for _, table := range tables {
		for _, fk := range table.ForeignKeys {
			found = true
			fmt.Fprintf(&b, "  - %s.%s references %s.%s\n",
				table.Name, strings.Join(fk.Columns, ", "),
				fk.ReferencedTable, strings.Join(fk.ReferencedColumns, ", "))
		}
	}

	if !found {
		return NoRelationshipsText
	}
	return b.String()
}

// RenderSampleRows renders a small result sample as pipe-separated lines.
// NULL values print as "NULL".
func RenderSampleRows(table string, result *datasource.QueryExecutionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sample rows from %s:\n", table)

	b.WriteString(strings.Join(result.Columns, " | "))
	b.WriteString("\n")
	for _, row := range result.Rows {
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

	return b.String()
}
