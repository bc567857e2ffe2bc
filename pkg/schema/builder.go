package schema

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sqlbuddy/sqlbuddy-engine/pkg/adapters/datasource"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/logging"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/vectorstore"
)

// Builder walks the database structure and produces the documents that get
// indexed: one per table, one relationships summary, and optionally one
// sample-rows document per table.
type Builder struct {
	introspector   datasource.SchemaIntrospector
	includeSamples bool
	sampleLimit    int
	logger         *zap.Logger
}

func NewBuilder(introspector datasource.SchemaIntrospector, includeSamples bool, sampleLimit int, logger *zap.Logger) *Builder {
	return &Builder{
		introspector:   introspector,
		includeSamples: includeSamples,
		sampleLimit:    sampleLimit,
		logger:         logger.Named("schema_builder"),
	}
}

// BuildDocuments introspects every table and renders the document set.
// Sample-row failures become an inline error marker so indexing proceeds
// over the remaining tables; structural failures abort, since an index
// missing tables would silently mislead generation.
func (b *Builder) BuildDocuments(ctx context.Context) ([]vectorstore.Document, error) {
	tables, err := b.introspector.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("database has no tables to index")
	}

	var (
		docs    []vectorstore.Document
		schemas []*datasource.TableSchema
	)
	for _, table := range tables {
		ts, err := b.introspector.DescribeTable(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("describe table %s: %w", table, err)
		}
		schemas = append(schemas, ts)
		docs = append(docs, vectorstore.Document{
			Source:  table,
			Content: RenderTableText(ts),
		})
	}

	docs = append(docs, vectorstore.Document{
		Source:  "relationships",
		Content: RenderRelationshipsText(schemas),
	})

	if b.includeSamples {
		for _, table := range tables {
			result, err := b.introspector.SampleRows(ctx, table, b.sampleLimit)
			if err != nil {
				b.logger.Warn("sample rows unavailable",
					zap.String("table", table),
					zap.Error(err))
				docs = append(docs, vectorstore.Document{
					Source:  "samples:" + table,
					Content: fmt.Sprintf("Error retrieving sample data: %s", logging.SanitizeError(err)),
				})
				continue
			}
			docs = append(docs, vectorstore.Document{
				Source:  "samples:" + table,
				Content: RenderSampleRows(table, result),
			})
		}
	}

	b.logger.Info("built schema documents",
		zap.Int("tables", len(tables)),
		zap.Int("documents", len(docs)))
	return docs, nil
}
