// Package history records which alters have been applied to a database.
//
// Each backend keeps an append-only table of (id, alter_hash, ran_on) rows in
// the target database. The id gives the order alters were applied in, which
// the migrator uses to find the common prefix between history and the chain.
//
// Supported backends:
//   - memory: process local, used for tests and dry runs
//   - postgres: a table inside a dedicated revision schema (pgx)
//   - clickhouse: a MergeTree table in the revision database
//   - sqlite: a table in the database file itself
//
// Example:
//
//	store, err := history.Open(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer func() { _ = store.Close() }()
//
//	if err := store.Init(ctx, false); err != nil {
//		return err
//	}
//
//	applied, err := store.AppliedAlters(ctx)
package history
