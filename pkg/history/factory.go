package history

import (
	"context"

	"github.com/pkg/errors"
	"github.com/pseudomuto/schematool/pkg/config"
	"go.uber.org/fx"
)

// Factory opens the Store for a configuration. Commands call it lazily so
// that a database connection is only made when one is needed.
type Factory func(context.Context, *config.Config) (Store, error)

// Module provides the default Factory.
var Module = fx.Module("history", fx.Provide(func() Factory { return Open }))

// Open returns the Store for cfg.Type.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	if cfg == nil {
		return nil, errors.New("no configuration found")
	}

	switch cfg.Type {
	case config.TypeMemory:
		return NewMemoryStore(), nil
	case config.TypePostgres:
		return OpenPostgres(ctx, cfg)
	case config.TypeClickHouse:
		return OpenClickHouse(ctx, cfg)
	case config.TypeSQLite:
		return OpenSQLite(cfg.RevisionDB(), cfg.HistoryTableName)
	default:
		return nil, &config.ConfigError{Key: "type", Msg: "unknown database type '" + cfg.Type + "'"}
	}
}

// QueriesFor renders history statements for cfg without connecting to the
// database.
func QueriesFor(cfg *config.Config) (Queries, error) {
	switch cfg.Type {
	case config.TypeMemory:
		return NewMemoryStore(), nil
	case config.TypePostgres:
		if cfg.RevisionSchemaName == "" {
			return nil, &config.ConfigError{Key: "revision_schema_name", Msg: "required for postgres"}
		}
		return NewPostgresStore(nil, cfg.RevisionSchemaName, cfg.HistoryTableName), nil
	case config.TypeClickHouse:
		return NewClickHouseStore(nil, cfg.RevisionDB(), cfg.HistoryTableName), nil
	case config.TypeSQLite:
		return &SQLiteStore{table: cfg.HistoryTableName}, nil
	default:
		return nil, &config.ConfigError{Key: "type", Msg: "unknown database type '" + cfg.Type + "'"}
	}
}

// Static returns a Factory that always yields store. Useful in tests.
func Static(store Store) Factory {
	return func(context.Context, *config.Config) (Store, error) {
		return nopCloser{store}, nil
	}
}

// nopCloser keeps a shared store open across commands.
type nopCloser struct {
	Store
}

func (nopCloser) Close() error { return nil }
