// Package migrator reconciles the alter chain on disk with the history of
// applied alters stored in the database.
//
// # Up
//
// History is sorted by the order alters were applied and compared with the
// chain starting at its oldest alter. Alters excluded by the current
// environment are ignored while comparing. The matching prefix is the common
// history. Anything applied after it no longer matches the chain (typically
// after a branch was resolved), so it is reverted most recent first, unless
// NoUndo is set. The remaining alters are then applied oldest first, stopping
// after Count alters or at Target, whichever comes first.
//
// # Down
//
// History is walked most recent first. Mode selects where to stop:
//   - DownAll reverts everything (or Count entries)
//   - DownBase leaves the earliest applied alter in place
//   - DownRevision stops after reverting Target
//
// History entries without an alter on disk are fatal, or with Force are
// removed from history without running anything.
//
// # Generator
//
// Generator renders alters as SQL for a DBA to run by hand, appending the
// statement that keeps the history table in sync.
//
// Example usage:
//
//	m := migrator.New(migrator.Config{
//		Alters:   os.DirFS(cfg.AlterDir),
//		Store:    store,
//		Executor: exec,
//		Env:      cfg.Env,
//		Out:      os.Stdout,
//	})
//
//	if _, err := m.Up(ctx, migrator.UpOptions{}); err != nil {
//		log.Fatal(err)
//	}
//
//	mode, target := migrator.ParseDownTarget("base")
//	if _, err := m.Down(ctx, migrator.DownOptions{Mode: mode, Target: target}); err != nil {
//		log.Fatal(err)
//	}
package migrator
