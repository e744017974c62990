package history

import (
	"context"
	"net"
	"strconv"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/pkg/errors"
	"github.com/pseudomuto/schematool/pkg/config"
	"github.com/pseudomuto/schematool/pkg/utils"
)

type (
	// ClickHouse is the subset of driver.Conn used by ClickHouseStore.
	ClickHouse interface {
		Query(context.Context, string, ...any) (driver.Rows, error)
		Exec(context.Context, string, ...any) error
		Close() error
	}

	// ClickHouseStore keeps history in a MergeTree table. ClickHouse has no
	// auto increment so ids are assigned from max(id)+1 on insert.
	ClickHouseStore struct {
		conn     ClickHouse
		database string
		table    string
	}
)

// NewClickHouseStore wraps an existing connection.
func NewClickHouseStore(conn ClickHouse, database, table string) *ClickHouseStore {
	return &ClickHouseStore{conn: conn, database: database, table: table}
}

// OpenClickHouse connects to the server described by cfg.
func OpenClickHouse(ctx context.Context, cfg *config.Config) (*ClickHouseStore, error) {
	port := cfg.Port
	if port == 0 {
		port = 9000
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{net.JoinHostPort(cfg.Host, strconv.Itoa(port))},
		Auth: clickhouse.Auth{
			Database: cfg.DBName,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open clickhouse connection")
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "failed to connect to clickhouse")
	}

	return NewClickHouseStore(conn, cfg.RevisionDB(), cfg.HistoryTableName), nil
}

// FullTableName is the `database`.`table` identifier.
func (s *ClickHouseStore) FullTableName() string {
	return utils.QualifiedName(utils.ClickHouse, s.database, s.table)
}

func (s *ClickHouseStore) Init(ctx context.Context, force bool) error {
	if force {
		stmt := utils.NewSQLBuilder(utils.ClickHouse).Drop("TABLE").IfExists().Raw(s.FullTableName())
		if err := s.conn.Exec(ctx, stmt.String()); err != nil {
			return errors.Wrap(err, "failed to drop history table")
		}
	}

	db := utils.NewSQLBuilder(utils.ClickHouse).Create("DATABASE").IfNotExists().Name(s.database)
	if err := s.conn.Exec(ctx, db.String()); err != nil {
		return errors.Wrap(err, "failed to create revision database")
	}

	table := utils.NewSQLBuilder(utils.ClickHouse).
		Create("TABLE").
		IfNotExists().
		Raw(s.FullTableName()).
		Columns("id UInt64", "alter_hash String", "ran_on DateTime64(3, 'UTC')").
		Engine("MergeTree()").
		OrderBy("id")
	if err := s.conn.Exec(ctx, table.String()); err != nil {
		return errors.Wrap(err, "failed to create history table")
	}

	return nil
}

func (s *ClickHouseStore) CommitHistory(ctx context.Context) ([]Entry, error) {
	query := utils.NewSQLBuilder(utils.ClickHouse).Select("id", "alter_hash", "ran_on").From(s.FullTableName())
	rows, err := s.conn.Query(ctx, query.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to query commit history")
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			id uint64
			e  Entry
		)
		if err := rows.Scan(&id, &e.Ref, &e.AppliedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan history row")
		}
		e.Sequence = int64(id)
		entries = append(entries, e)
	}

	return entries, errors.Wrap(rows.Err(), "failed to read commit history")
}

func (s *ClickHouseStore) AppliedAlters(ctx context.Context) ([]string, error) {
	entries, err := s.CommitHistory(ctx)
	if err != nil {
		return nil, err
	}

	return Refs(entries), nil
}

func (s *ClickHouseStore) AppendCommit(ctx context.Context, ref string) error {
	return errors.Wrapf(s.conn.Exec(ctx, s.appendStmt("?"), ref), "failed to append commit %s", ref)
}

func (s *ClickHouseStore) RemoveCommit(ctx context.Context, ref string) error {
	return errors.Wrapf(s.conn.Exec(ctx, s.removeStmt("?"), ref), "failed to remove commit %s", ref)
}

func (s *ClickHouseStore) AppendCommitQuery(ref string) string {
	return s.appendStmt(utils.StringLiteral(ref))
}

func (s *ClickHouseStore) RemoveCommitQuery(ref string) string {
	return s.removeStmt(utils.StringLiteral(ref))
}

func (s *ClickHouseStore) Close() error {
	return s.conn.Close()
}

func (s *ClickHouseStore) appendStmt(ref string) string {
	return utils.NewSQLBuilder(utils.ClickHouse).
		InsertInto(s.FullTableName(), "id", "alter_hash", "ran_on").
		Select("max(id) + 1", ref, "now64(3)").
		From(s.FullTableName()).
		String()
}

func (s *ClickHouseStore) removeStmt(ref string) string {
	return utils.NewSQLBuilder(utils.ClickHouse).DeleteFrom(s.FullTableName()).Where("alter_hash", ref).String()
}
