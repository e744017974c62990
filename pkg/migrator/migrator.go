package migrator

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/pseudomuto/schematool/pkg/alter"
	"github.com/pseudomuto/schematool/pkg/executor"
	"github.com/pseudomuto/schematool/pkg/history"
)

type (
	// Executor runs a single alter and updates history.
	Executor interface {
		RunUp(context.Context, *alter.Node, executor.Options) (*executor.ExecutionResult, error)
		RunDown(context.Context, *alter.Node, executor.Options) (*executor.ExecutionResult, error)
	}

	// Migrator reconciles the alter chain on disk with the history recorded
	// in the database.
	Migrator struct {
		alters fs.FS
		store  history.Store
		exec   Executor
		env    string
		out    io.Writer
	}

	// Config contains configuration options for creating a new Migrator.
	Config struct {
		// Alters is the alter directory
		Alters fs.FS

		// Store is read to find what has been applied. Writes go through Executor.
		Store history.Store

		Executor Executor

		// Env is matched against require-env/skip-env headers
		Env string

		// Out receives progress lines (default: discarded)
		Out io.Writer
	}

	// UpOptions control Migrator.Up.
	UpOptions struct {
		// Count caps the number of alters walked. Nil means no cap.
		Count *int

		Force   bool
		Verbose bool

		// NoUndo leaves history that diverges from the chain in place
		NoUndo bool

		// Target is the last ref to apply
		Target string
	}

	// DownMode selects how far Down reverts.
	DownMode int

	// DownOptions control Migrator.Down.
	DownOptions struct {
		// Count caps the number of history entries walked. Nil means no cap.
		Count *int

		Force   bool
		Verbose bool

		Mode DownMode

		// Target is the last ref to revert when Mode is DownRevision
		Target string
	}

	// Report lists what a run did, by ref.
	Report struct {
		// Reverted alters, in the order their down-files ran
		Reverted []string

		// Applied alters, in the order their up-files ran
		Applied []string

		// Skipped alters that were already applied
		Skipped []string

		// Excluded alters that don't run in the current environment
		Excluded []string

		// Removed history entries that had no alter to run (forced down only)
		Removed []string
	}
)

const (
	// DownNone reverts Count entries
	DownNone DownMode = iota

	// DownAll reverts every applied alter
	DownAll

	// DownBase reverts everything but the earliest applied alter
	DownBase

	// DownRevision reverts up to and including Target
	DownRevision
)

// ParseDownTarget maps the positional argument of `down` to a mode. "all" and
// "base" are case-insensitive; anything else is a ref.
func ParseDownTarget(arg string) (DownMode, string) {
	switch {
	case arg == "":
		return DownNone, ""
	case strings.EqualFold(arg, "all"):
		return DownAll, ""
	case strings.EqualFold(arg, "base"):
		return DownBase, ""
	default:
		return DownRevision, arg
	}
}

// New creates a Migrator.
func New(cfg Config) *Migrator {
	m := &Migrator{
		alters: cfg.Alters,
		store:  cfg.Store,
		exec:   cfg.Executor,
		env:    cfg.Env,
		out:    cfg.Out,
	}

	if m.out == nil {
		m.out = io.Discard
	}

	return m
}

// Up brings the database in line with the chain. History is matched against
// the chain from the oldest alter; entries after the first mismatch are
// reverted (unless NoUndo) and the rest of the chain is applied.
//
// Example:
//
//	report, err := m.Up(ctx, migrator.UpOptions{Target: "170000000020"})
//	if err != nil {
//		return err
//	}
//
//	fmt.Printf("applied %d alters\n", len(report.Applied))
func (m *Migrator) Up(ctx context.Context, opts UpOptions) (*Report, error) {
	if err := checkCount(opts.Count); err != nil {
		return nil, err
	}

	chain, err := alter.Check(m.alters)
	if err != nil {
		return nil, err
	}

	entries, err := m.store.CommitHistory(ctx)
	if err != nil {
		return nil, err
	}

	hist := history.SortAscending(entries)
	applied := make(map[string]bool, len(hist))
	for _, e := range hist {
		applied[e.Ref] = true
	}

	// pending is ordered newest first so the next alter to apply is at the end
	pending := chain.Nodes()
	pop := func() *alter.Node {
		if len(pending) == 0 {
			return nil
		}

		n := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		return n
	}

	common := 0
	for _, e := range hist {
		n := pop()
		for n != nil && !n.ShouldRun(m.env) {
			n = pop()
		}

		if n == nil {
			break
		}

		if n.ID != e.Ref {
			pending = append(pending, n)
			break
		}

		common++
	}

	slog.Debug("Compared history", "entries", len(hist), "common", common, "pending", len(pending))

	report := &Report{}
	execOpts := executor.Options{Force: opts.Force, Verbose: opts.Verbose}

	if !opts.NoUndo {
		uncommon := hist[common:]
		for i := len(uncommon) - 1; i >= 0; i-- {
			ref := uncommon[i].Ref

			n, err := FindDownAlter(pending, ref, opts.Force)
			if err != nil {
				return report, err
			}

			if _, err := m.exec.RunDown(ctx, n, execOpts); err != nil {
				return report, err
			}

			delete(applied, ref)
			report.Reverted = append(report.Reverted, ref)
		}
	}

	if opts.Target != "" && len(pending) > 0 && !containsRef(pending, opts.Target) {
		return report, &MissingRefError{Ref: opts.Target}
	}

	limit := len(pending)
	if opts.Count != nil {
		limit = *opts.Count
	}

	for i := 0; i < limit && len(pending) > 0; i++ {
		n := pop()
		if opts.Target == n.ID {
			i = limit - 1
		}

		switch {
		case !n.ShouldRun(m.env):
			report.Excluded = append(report.Excluded, n.ID)
		case applied[n.ID]:
			slog.Warn("Alter has already been run. Skipping", "ref", n.ID)
			report.Skipped = append(report.Skipped, n.ID)
		default:
			if _, err := m.exec.RunUp(ctx, n, execOpts); err != nil {
				return report, err
			}

			applied[n.ID] = true
			report.Applied = append(report.Applied, n.ID)
		}
	}

	_, _ = fmt.Fprintln(m.out, "Updated")
	return report, nil
}

// Down reverts applied alters, most recent first.
func (m *Migrator) Down(ctx context.Context, opts DownOptions) (*Report, error) {
	chain, err := alter.Check(m.alters)
	if err != nil {
		return nil, err
	}

	if opts.Mode == DownNone && opts.Count == nil {
		return nil, &OptionsError{Msg: "must specify either argument or number of down-alters to run"}
	}

	if err := checkCount(opts.Count); err != nil {
		return nil, err
	}

	entries, err := m.store.CommitHistory(ctx)
	if err != nil {
		return nil, err
	}

	hist := history.SortDescending(entries)
	limit := len(hist)
	if opts.Count != nil {
		limit = *opts.Count
	}

	report := &Report{}

	var (
		toRun []*alter.Node
		i     int
	)

collect:
	for _, e := range hist {
		if i == limit {
			break
		}

		switch opts.Mode {
		case DownBase:
			if i == limit-1 {
				break collect
			}
		case DownRevision:
			if opts.Target == e.Ref {
				i = limit - 1
			}
		}

		i++

		n := chain.Find(e.Ref)
		if n == nil {
			if !opts.Force {
				return report, &MissingDownAlterError{Ref: e.Ref}
			}

			slog.Warn("Missing alter, removing it from history", "ref", e.Ref)
			if err := m.store.RemoveCommit(ctx, e.Ref); err != nil {
				return report, err
			}

			report.Removed = append(report.Removed, e.Ref)
			continue
		}

		toRun = append(toRun, n)
	}

	if opts.Mode == DownRevision && !containsRef(toRun, opts.Target) {
		return report, &MissingRefError{Ref: opts.Target}
	}

	execOpts := executor.Options{Force: opts.Force, Verbose: opts.Verbose}
	for _, n := range toRun {
		if _, err := m.exec.RunDown(ctx, n, execOpts); err != nil {
			return report, err
		}

		report.Reverted = append(report.Reverted, n.ID)
	}

	_, _ = fmt.Fprintln(m.out, "Downgraded")
	return report, nil
}

// Rebuild reverts every applied alter and then applies the whole chain.
func (m *Migrator) Rebuild(ctx context.Context, force, verbose bool) (*Report, error) {
	_, _ = fmt.Fprintln(m.out, "Bringing all the way down")
	down, err := m.Down(ctx, DownOptions{Mode: DownAll, Force: force, Verbose: verbose})
	if err != nil {
		return down, err
	}

	_, _ = fmt.Fprintln(m.out, "\nBringing all the way back up")
	up, err := m.Up(ctx, UpOptions{Force: force, Verbose: verbose})
	if up == nil {
		return down, err
	}

	up.Reverted = append(down.Reverted, up.Reverted...)
	up.Removed = append(down.Removed, up.Removed...)
	return up, err
}

// FindDownAlter returns the alter in nodes whose down-file reverts ref. A
// validated chain never holds two alters with the same ref; if nodes does,
// force picks the first one.
func FindDownAlter(nodes []*alter.Node, ref string, force bool) (*alter.Node, error) {
	var matches []*alter.Node
	for _, n := range nodes {
		if n.ID == ref {
			matches = append(matches, n)
		}
	}

	switch {
	case len(matches) == 0:
		return nil, &MissingDownAlterError{Ref: ref}
	case len(matches) > 1:
		if !force {
			return nil, &MultipleDownAltersError{Ref: ref}
		}
		slog.Warn("Multiple alters found for a single id, using the first", "ref", ref)
	}

	return matches[0], nil
}

func checkCount(count *int) error {
	if count != nil && *count < 0 {
		return &OptionsError{Msg: fmt.Sprintf("number of alters must not be negative (got %d)", *count)}
	}

	return nil
}

func containsRef(nodes []*alter.Node, ref string) bool {
	for _, n := range nodes {
		if n.ID == ref {
			return true
		}
	}

	return false
}
