package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/schematool/pkg/utils"

	_ "modernc.org/sqlite"
)

var sqliteTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// SQLiteStore keeps history in a table of a local SQLite database file.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(path, table string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	db.SetMaxOpenConns(1)

	return &SQLiteStore{db: db, table: table}, nil
}

func (s *SQLiteStore) quotedTable() string {
	return utils.QualifiedName(utils.ANSI, s.table)
}

func (s *SQLiteStore) Init(ctx context.Context, force bool) error {
	if force {
		stmt := utils.NewSQLBuilder(utils.ANSI).Drop("TABLE").IfExists().Raw(s.quotedTable())
		if _, err := s.db.ExecContext(ctx, stmt.String()); err != nil {
			return errors.Wrap(err, "drop history table")
		}
	}

	stmt := utils.NewSQLBuilder(utils.ANSI).
		Create("TABLE").
		IfNotExists().
		Raw(s.quotedTable()).
		Columns(
			"id INTEGER PRIMARY KEY AUTOINCREMENT",
			"alter_hash TEXT NOT NULL UNIQUE",
			"ran_on TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP",
		)
	_, err := s.db.ExecContext(ctx, stmt.String())
	return errors.Wrap(err, "create history table")
}

func (s *SQLiteStore) CommitHistory(ctx context.Context) ([]Entry, error) {
	query := utils.NewSQLBuilder(utils.ANSI).Select("id", "alter_hash", "ran_on").From(s.quotedTable())
	rows, err := s.db.QueryContext(ctx, query.String())
	if err != nil {
		return nil, errors.Wrap(err, "query commit history")
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			e     Entry
			ranOn string
		)
		if err := rows.Scan(&e.Sequence, &e.Ref, &ranOn); err != nil {
			return nil, errors.Wrap(err, "scan history row")
		}

		e.AppliedAt = parseSQLiteTime(ranOn)
		entries = append(entries, e)
	}

	return entries, errors.Wrap(rows.Err(), "iterate commit history")
}

func (s *SQLiteStore) AppliedAlters(ctx context.Context) ([]string, error) {
	entries, err := s.CommitHistory(ctx)
	if err != nil {
		return nil, err
	}

	return Refs(entries), nil
}

func (s *SQLiteStore) AppendCommit(ctx context.Context, ref string) error {
	stmt := utils.NewSQLBuilder(utils.ANSI).InsertInto(s.quotedTable(), "alter_hash", "ran_on").Values("?", "?")
	_, err := s.db.ExecContext(ctx, stmt.String(), ref, time.Now().UTC().Format(time.RFC3339Nano))
	return errors.Wrapf(err, "append commit %s", ref)
}

func (s *SQLiteStore) RemoveCommit(ctx context.Context, ref string) error {
	stmt := utils.NewSQLBuilder(utils.ANSI).DeleteFrom(s.quotedTable()).Where("alter_hash", "?")
	_, err := s.db.ExecContext(ctx, stmt.String(), ref)
	return errors.Wrapf(err, "remove commit %s", ref)
}

func (s *SQLiteStore) AppendCommitQuery(ref string) string {
	return utils.NewSQLBuilder(utils.ANSI).
		InsertInto(s.quotedTable(), "alter_hash", "ran_on").
		Values(utils.StringLiteral(ref), "CURRENT_TIMESTAMP").
		String()
}

func (s *SQLiteStore) RemoveCommitQuery(ref string) string {
	return utils.NewSQLBuilder(utils.ANSI).DeleteFrom(s.quotedTable()).Where("alter_hash", utils.StringLiteral(ref)).String()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func parseSQLiteTime(v string) time.Time {
	for _, layout := range sqliteTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}

	return time.Time{}
}
