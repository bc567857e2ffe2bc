package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/sqlbuddy/sqlbuddy-engine/pkg/adapters/datasource"
)

// SchemaIntrospector reads table structure through SQLite PRAGMA statements.
type SchemaIntrospector struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ datasource.SchemaIntrospector = (*SchemaIntrospector)(nil)

func NewSchemaIntrospector(db *sql.DB, logger *zap.Logger) *SchemaIntrospector {
	return &SchemaIntrospector{
		db:     db,
		logger: logger.Named("sqlite_schema"),
	}
}

// ListTables returns all user tables, sorted alphabetically. Internal
// sqlite_* tables are excluded.
func (s *SchemaIntrospector) ListTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
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

func (s *SchemaIntrospector) DescribeTable(ctx context.Context, table string) (*datasource.TableSchema, error) {
	columns, primaryKeys, err := s.getColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %q not found", table)
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

func (s *SchemaIntrospector) SampleRows(ctx context.Context, table string, limit int) (*datasource.QueryExecutionResult, error) {
	query := fmt.Sprintf("SELECT * FROM %s LIMIT ?", quoteIdentifier(table))

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("sample rows from %s: %w", table, err)
	}
	defer rows.Close()

	return materializeRows(rows)
}

func (s *SchemaIntrospector) Close() error {
	// The handle is shared with the query runner and closed by the owner.
	return nil
}

// getColumns reads column metadata and primary key membership in one pass.
// PRAGMA table_info reports pk as the 1-based position of the column within
// the primary key, or 0 when the column is not part of it.
func (s *SchemaIntrospector) getColumns(ctx context.Context, table string) ([]datasource.Column, []string, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", quoteIdentifier(table))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("query columns for %s: %w", table, err)
	}
	defer rows.Close()

	type pkEntry struct {
		name     string
		position int
	}

	var (
		columns   []datasource.Column
		pkEntries []pkEntry
	)
	for rows.Next() {
		var (
			cid        int
			name       string
			dataType   string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultVal, &pk); err != nil {
			return nil, nil, fmt.Errorf("scan column for %s: %w", table, err)
		}

		col := datasource.Column{
			Name:       name,
			DataType:   dataType,
			IsNullable: notNull == 0,
		}
		if defaultVal.Valid {
			v := defaultVal.String
			col.Default = &v
		}
		columns = append(columns, col)

		if pk > 0 {
			pkEntries = append(pkEntries, pkEntry{name: name, position: pk})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate columns for %s: %w", table, err)
	}

	sort.Slice(pkEntries, func(i, j int) bool { return pkEntries[i].position < pkEntries[j].position })
	primaryKeys := make([]string, 0, len(pkEntries))
	for _, e := range pkEntries {
		primaryKeys = append(primaryKeys, e.name)
	}

	return columns, primaryKeys, nil
}

// getForeignKeys groups PRAGMA foreign_key_list rows back into constraints.
// Multi-column keys share an id and arrive ordered by seq.
func (s *SchemaIntrospector) getForeignKeys(ctx context.Context, table string) ([]datasource.ForeignKey, error) {
	query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdentifier(table))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys for %s: %w", table, err)
	}
	defer rows.Close()

	var (
		order []int
		byID  = make(map[int]*datasource.ForeignKey)
	)
	for rows.Next() {
		var (
			id, seq            int
			refTable, from     string
			to                 sql.NullString
			onUpdate, onDelete string
			match              string
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, fmt.Errorf("scan foreign key for %s: %w", table, err)
		}

		fk, ok := byID[id]
		if !ok {
			fk = &datasource.ForeignKey{ReferencedTable: refTable}
			byID[id] = fk
			order = append(order, id)
		}
		fk.Columns = append(fk.Columns, from)
		// "to" is NULL when the key references the parent's primary key
		// implicitly; render the convention rather than an empty name.
		if to.Valid {
			fk.ReferencedColumns = append(fk.ReferencedColumns, to.String)
		} else {
			fk.ReferencedColumns = append(fk.ReferencedColumns, "rowid")
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign keys for %s: %w", table, err)
	}

	foreignKeys := make([]datasource.ForeignKey, 0, len(order))
	for _, id := range order {
		foreignKeys = append(foreignKeys, *byID[id])
	}
	return foreignKeys, nil
}

func (s *SchemaIntrospector) getIndexes(ctx context.Context, table string) ([]datasource.Index, error) {
	query := fmt.Sprintf("PRAGMA index_list(%s)", quoteIdentifier(table))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query indexes for %s: %w", table, err)
	}

	type indexMeta struct {
		name   string
		unique bool
	}

	var metas []indexMeta
	for rows.Next() {
		var (
			seq     int
			name    string
			unique  int
			origin  string
			partial int
		)
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan index for %s: %w", table, err)
		}
		// origin "pk" marks the implicit primary key index; those columns are
		// already reported as primary keys.
		if origin == "pk" {
			continue
		}
		metas = append(metas, indexMeta{name: name, unique: unique == 1})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate indexes for %s: %w", table, err)
	}
	rows.Close()

	indexes := make([]datasource.Index, 0, len(metas))
	for _, meta := range metas {
		columns, err := s.getIndexColumns(ctx, meta.name)
		if err != nil {
			return nil, err
		}
		indexes = append(indexes, datasource.Index{
			Name:     meta.name,
			Columns:  columns,
			IsUnique: meta.unique,
		})
	}
	return indexes, nil
}

func (s *SchemaIntrospector) getIndexColumns(ctx context.Context, index string) ([]string, error) {
	query := fmt.Sprintf("PRAGMA index_info(%s)", quoteIdentifier(index))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query index columns for %s: %w", index, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			seqno, cid int
			name       sql.NullString
		)
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, fmt.Errorf("scan index column for %s: %w", index, err)
		}
		if name.Valid {
			columns = append(columns, name.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate index columns for %s: %w", index, err)
	}

	return columns, nil
}
