// Package factory opens the datasource adapter pair matching the configured
// database driver.
package factory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sqlbuddy/sqlbuddy-engine/pkg/adapters/datasource"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/adapters/datasource/postgres"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/adapters/datasource/sqlite"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/apperrors"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/config"
)

// Open connects to the configured database and returns the introspector and
// query runner for it. The two share one underlying connection handle;
// closing the runner releases it.
func Open(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (datasource.SchemaIntrospector, datasource.QueryRunner, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.ConnectionString())
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewSchemaIntrospector(pool, logger), postgres.NewQueryRunner(pool, logger), nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewSchemaIntrospector(db, logger), sqlite.NewQueryRunner(db, logger), nil

	default:
		return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownDriver, cfg.Driver)
	}
}
