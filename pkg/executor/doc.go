// Package executor runs alter files against a database through its command
// line client.
//
// Each alter file is piped to the client's stdin, the same way an operator
// would run `psql < file.sql`. The client is chosen from the configuration
// (psql, clickhouse-client or sqlite3) unless client_command overrides it.
// A successful up-run appends the alter's ref to history; a successful
// down-run removes it.
//
// # Failures
//
// When the client exits non-zero the executor prints "Error" (and the client
// output in verbose mode) and returns an *AppliedAlterError without touching
// history. With Options.Force the failure is logged, history is updated anyway
// and the result is marked StatusForced.
//
// # Usage Example
//
//	exec := executor.New(executor.Config{
//		Alters: os.DirFS(cfg.AlterDir),
//		Store:  store,
//		Client: executor.ClientFor(cfg),
//		Out:    os.Stdout,
//		ErrOut: os.Stderr,
//	})
//
//	for _, node := range chain.Nodes() {
//		if _, err := exec.RunUp(ctx, node, executor.Options{}); err != nil {
//			return err
//		}
//	}
package executor
