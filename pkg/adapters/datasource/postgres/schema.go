package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/sqlbuddy/sqlbuddy-engine/pkg/adapters/datasource"
)

// SchemaIntrospector reads table structure from the public schema of a
// PostgreSQL database using information_schema and the pg_catalog tables.
type SchemaIntrospector struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

var _ datasource.SchemaIntrospector = (*SchemaIntrospector)(nil)

func NewSchemaIntrospector(pool *pgxpool.Pool, logger *zap.Logger) *SchemaIntrospector {
	return &SchemaIntrospector{
		pool:   pool,
		logger: logger.Named("postgres_schema"),
	}
}

// ListTables returns the names of all base tables in the public schema,
// sorted alphabetically.
func (s *SchemaIntrospector) ListTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	s.logger.Debug("listed tables", zap.Int("count", len(tables)))
	return tables, nil
}

// DescribeTable assembles the full structural description of a single table:
// columns in ordinal order, primary key columns, foreign keys grouped by
// constraint, and secondary indexes.
func (s *SchemaIntrospector) DescribeTable(ctx context.Context, table string) (*datasource.TableSchema, error) {
	columns, err := s.getColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %q not found in public schema", table)
	}

	primaryKeys, err := s.getPrimaryKeys(ctx, table)
	if err != nil {
		return nil, err
	}

	foreignKeys, err := s.getForeignKeys(ctx, table)
	if err != nil {
		return nil, err
	}

	indexes, err := s.getIndexes(ctx, table)
	if err != nil {
		return nil, err
	}

	return &datasource.TableSchema{
		Name:        table,
		Columns:     columns,
		PrimaryKeys: primaryKeys,
		ForeignKeys: foreignKeys,
		Indexes:     indexes,
	}, nil
}

// SampleRows fetches up to limit rows from the table. The table name is
// quoted as an identifier so it never participates in SQL syntax.
func (s *SchemaIntrospector) SampleRows(ctx context.Context, table string, limit int) (*datasource.QueryExecutionResult, error) {
	query := fmt.Sprintf("SELECT * FROM %s LIMIT $1", pgx.Identifier{table}.Sanitize())

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("sample rows from %s: %w", table, err)
	}
	defer rows.Close()

	return materializeRows(rows)
}

func (s *SchemaIntrospector) Close() error {
	// The pool is shared with the query runner and closed by the owner.
	return nil
}

func (s *SchemaIntrospector) getColumns(ctx context.Context, table string) ([]datasource.Column, error) {
	query := `
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = 'public'
		  AND table_name = $1
		ORDER BY ordinal_position`

	rows, err := s.pool.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("query columns for %s: %w", table, err)
	}
	defer rows.Close()

	var columns []datasource.Column
	for rows.Next() {
		var (
			col      datasource.Column
			nullable string
		)
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &col.Default); err != nil {
			return nil, fmt.Errorf("scan column for %s: %w", table, err)
		}
		col.IsNullable = nullable == "YES"
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns for %s: %w", table, err)
	}

	return columns, nil
}

func (s *SchemaIntrospector) getPrimaryKeys(ctx context.Context, table string) ([]string, error) {
	query := `
		SELECT a.attname
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE ix.indisprimary
		  AND n.nspname = 'public'
		  AND t.relname = $1
		ORDER BY array_position(ix.indkey, a.attnum)`

	rows, err := s.pool.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("query primary keys for %s: %w", table, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan primary key for %s: %w", table, err)
		}
		keys = append(keys, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate primary keys for %s: %w", table, err)
	}

	return keys, nil
}

func (s *SchemaIntrospector) getForeignKeys(ctx context.Context, table string) ([]datasource.ForeignKey, error) {
	// unnest zips conkey with confkey, so each referencing column pairs with
	// the referenced column at the same ordinal. An uncorrelated
	// information_schema join would cross-product composite keys.
	query := `
		SELECT con.conname, src.attname, ref.relname, dst.attname
		FROM pg_constraint con
		JOIN pg_class rel ON rel.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = rel.relnamespace
		JOIN pg_class ref ON ref.oid = con.confrelid
		JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(attnum, fattnum, ord) ON true
		JOIN pg_attribute src ON src.attrelid = con.conrelid AND src.attnum = k.attnum
		JOIN pg_attribute dst ON dst.attrelid = con.confrelid AND dst.attnum = k.fattnum
		WHERE con.contype = 'f'
		  AND n.nspname = 'public'
		  AND rel.relname = $1
		ORDER BY con.conname, k.ord`

	rows, err := s.pool.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys for %s: %w", table, err)
	}
	defer rows.Close()

	// Multi-column constraints arrive as one row per column; group them back
	// by constraint name, preserving first-seen order.
	var (
		order  []string
		byName = make(map[string]*datasource.ForeignKey)
	)
	for rows.Next() {
		var constraint, column, refTable, refColumn string
		if err := rows.Scan(&constraint, &column, &refTable, &refColumn); err != nil {
			return nil, fmt.Errorf("scan foreign key for %s: %w", table, err)
		}
		fk, ok := byName[constraint]
		if !ok {
			fk = &datasource.ForeignKey{ReferencedTable: refTable}
			byName[constraint] = fk
			order = append(order, constraint)
		}
		fk.Columns = append(fk.Columns, column)
		fk.ReferencedColumns = append(fk.ReferencedColumns, refColumn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign keys for %s: %w", table, err)
	}

	foreignKeys := make([]datasource.ForeignKey, 0, len(order))
	for _, name := range order {
		foreignKeys = append(foreignKeys, *byName[name])
	}
	return foreignKeys, nil
}

func (s *SchemaIntrospector) getIndexes(ctx context.Context, table string) ([]datasource.Index, error) {
	query := `
		SELECT i.relname, ix.indisunique, a.attname
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE NOT ix.indisprimary
		  AND n.nspname = 'public'
		  AND t.relname = $1
		ORDER BY i.relname, array_position(ix.indkey, a.attnum)`

	rows, err := s.pool.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("query indexes for %s: %w", table, err)
	}
	defer rows.Close()

	var (
		order  []string
		byName = make(map[string]*datasource.Index)
	)
	for rows.Next() {
		var (
			name, column string
			unique       bool
		)
		if err := rows.Scan(&name, &unique, &column); err != nil {
			return nil, fmt.Errorf("scan index for %s: %w", table, err)
		}
		idx, ok := byName[name]
		if !ok {
			idx = &datasource.Index{Name: name, IsUnique: unique}
			byName[name] = idx
			order = append(order, name)
		}
		idx.Columns = append(idx.Columns, column)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate indexes for %s: %w", table, err)
	}

	indexes := make([]datasource.Index, 0, len(order))
	for _, name := range order {
		indexes = append(indexes, *byName[name])
	}
	return indexes, nil
}
