package history

import (
	"context"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/pseudomuto/schematool/pkg/config"
	"github.com/pseudomuto/schematool/pkg/utils"
)

// PostgresStore keeps history in a table inside a dedicated revision schema.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
	table  string
}

// NewPostgresStore wraps an existing pool. The pool may be nil when only the
// rendered queries are needed.
func NewPostgresStore(pool *pgxpool.Pool, schema, table string) *PostgresStore {
	return &PostgresStore{pool: pool, schema: schema, table: table}
}

// OpenPostgres connects to the revision database described by cfg.
func OpenPostgres(ctx context.Context, cfg *config.Config) (*PostgresStore, error) {
	if cfg.RevisionSchemaName == "" {
		return nil, &config.ConfigError{Key: "revision_schema_name", Msg: "required for postgres"}
	}

	poolCfg, err := pgxpool.ParseConfig(PostgresURL(cfg))
	if err != nil {
		return nil, errors.Wrap(err, "parse pg config")
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, "create pg pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping pg")
	}

	return NewPostgresStore(pool, cfg.RevisionSchemaName, cfg.HistoryTableName), nil
}

// PostgresURL builds a connection URL from the config.
func PostgresURL(cfg *config.Config) string {
	host := cfg.Host
	if cfg.Port > 0 {
		host = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	}

	u := &url.URL{Scheme: "postgres", Host: host, Path: "/" + cfg.RevisionDB()}
	if cfg.Username != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.Username, cfg.Password)
		} else {
			u.User = url.User(cfg.Username)
		}
	}

	return u.String()
}

// FullTableName is the quoted "schema"."table" identifier.
func (s *PostgresStore) FullTableName() string {
	return pgx.Identifier{s.schema, s.table}.Sanitize()
}

func (s *PostgresStore) Init(ctx context.Context, force bool) error {
	if force {
		stmt := utils.NewSQLBuilder(utils.ANSI).Drop("SCHEMA").IfExists().Raw(pgx.Identifier{s.schema}.Sanitize()).Cascade()
		if _, err := s.pool.Exec(ctx, stmt.String()); err != nil {
			return errors.Wrap(err, "drop revision schema")
		}
	}

	var exists bool
	err := s.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM pg_namespace WHERE nspname = $1)", s.schema).Scan(&exists)
	if err != nil {
		return errors.Wrap(err, "look up revision schema")
	}

	if !exists {
		stmt := utils.NewSQLBuilder(utils.ANSI).Create("SCHEMA").IfNotExists().Raw(pgx.Identifier{s.schema}.Sanitize())
		if _, err := s.pool.Exec(ctx, stmt.String()); err != nil {
			return errors.Wrap(err, "create revision schema")
		}
	}

	stmt := utils.NewSQLBuilder(utils.ANSI).
		Create("TABLE").
		IfNotExists().
		Raw(s.FullTableName()).
		Columns(
			"id SERIAL PRIMARY KEY",
			"alter_hash VARCHAR(100) UNIQUE NOT NULL",
			"ran_on TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP",
		)
	if _, err := s.pool.Exec(ctx, stmt.String()); err != nil {
		return errors.Wrap(err, "create history table")
	}

	return nil
}

func (s *PostgresStore) CommitHistory(ctx context.Context) ([]Entry, error) {
	query := utils.NewSQLBuilder(utils.ANSI).Select("id", "alter_hash", "ran_on").From(s.FullTableName())
	rows, err := s.pool.Query(ctx, query.String())
	if err != nil {
		return nil, errors.Wrap(err, "query commit history")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Sequence, &e.Ref, &e.AppliedAt); err != nil {
			return nil, errors.Wrap(err, "scan history row")
		}
		entries = append(entries, e)
	}

	return entries, errors.Wrap(rows.Err(), "iterate commit history")
}

func (s *PostgresStore) AppliedAlters(ctx context.Context) ([]string, error) {
	entries, err := s.CommitHistory(ctx)
	if err != nil {
		return nil, err
	}

	return Refs(entries), nil
}

func (s *PostgresStore) AppendCommit(ctx context.Context, ref string) error {
	_, err := s.pool.Exec(ctx, s.appendStmt("$1"), ref)
	return errors.Wrapf(err, "append commit %s", ref)
}

func (s *PostgresStore) RemoveCommit(ctx context.Context, ref string) error {
	_, err := s.pool.Exec(ctx, s.removeStmt("$1"), ref)
	return errors.Wrapf(err, "remove commit %s", ref)
}

func (s *PostgresStore) AppendCommitQuery(ref string) string {
	return s.appendStmt(utils.StringLiteral(ref))
}

func (s *PostgresStore) RemoveCommitQuery(ref string) string {
	return s.removeStmt(utils.StringLiteral(ref))
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}

	return nil
}

func (s *PostgresStore) appendStmt(ref string) string {
	return utils.NewSQLBuilder(utils.ANSI).InsertInto(s.FullTableName(), "alter_hash", "ran_on").Values(ref, "NOW()").String()
}

func (s *PostgresStore) removeStmt(ref string) string {
	return utils.NewSQLBuilder(utils.ANSI).DeleteFrom(s.FullTableName()).Where("alter_hash", ref).String()
}
