package migrator_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/pkg/errors"
	"github.com/pseudomuto/schematool/pkg/alter"
	"github.com/pseudomuto/schematool/pkg/executor"
	"github.com/pseudomuto/schematool/pkg/history"
	"github.com/pseudomuto/schematool/pkg/migrator"
	"github.com/stretchr/testify/require"
)

const (
	T1 = "170000000000"
	T2 = "170000000010"
	T3 = "170000000020"
	T4 = "170000000030"
	T5 = "170000000040"
)

type testAlter struct {
	ref     string
	backref string
	extra   []string
}

func header(direction string, a testAlter) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "-- direction: %s\n", direction)
	if a.backref != "" {
		fmt.Fprintf(&sb, "-- backref: %s\n", a.backref)
	}
	fmt.Fprintf(&sb, "-- ref: %s\n", a.ref)
	for _, line := range a.extra {
		sb.WriteString(line + "\n")
	}
	fmt.Fprintf(&sb, "\nSELECT '%s %s';\n", direction, a.ref)
	return sb.String()
}

func alterFS(alters ...testAlter) fstest.MapFS {
	fsys := fstest.MapFS{}
	for _, a := range alters {
		fsys[a.ref+"-alter-up.sql"] = &fstest.MapFile{Data: []byte(header("up", a))}
		fsys[a.ref+"-alter-down.sql"] = &fstest.MapFile{Data: []byte(header("down", a))}
	}

	return fsys
}

// linear builds a chain where every ref follows the previous one.
func linear(refs ...string) fstest.MapFS {
	alters := make([]testAlter, len(refs))
	for i, ref := range refs {
		alters[i] = testAlter{ref: ref}
		if i > 0 {
			alters[i].backref = refs[i-1]
		}
	}

	return alterFS(alters...)
}

type call struct {
	direction alter.Direction
	ref       string
}

// fakeExecutor records calls and updates the store the way the real executor does.
type fakeExecutor struct {
	store history.Store
	calls []call
	fail  map[string]bool
}

func (f *fakeExecutor) RunUp(ctx context.Context, n *alter.Node, opts executor.Options) (*executor.ExecutionResult, error) {
	f.calls = append(f.calls, call{alter.Up, n.ID})
	if f.fail[n.ID] && !opts.Force {
		return nil, &executor.AppliedAlterError{Filename: n.Filename, ExitCode: 1}
	}
	return &executor.ExecutionResult{Ref: n.ID}, f.store.AppendCommit(ctx, n.ID)
}

func (f *fakeExecutor) RunDown(ctx context.Context, n *alter.Node, opts executor.Options) (*executor.ExecutionResult, error) {
	f.calls = append(f.calls, call{alter.Down, n.ID})
	if f.fail[n.ID] && !opts.Force {
		return nil, errors.Errorf("%s execution unsuccessful", n.DownFilename())
	}
	return &executor.ExecutionResult{Ref: n.ID}, f.store.RemoveCommit(ctx, n.ID)
}

type fixture struct {
	fs       fstest.MapFS
	store    *history.MemoryStore
	exec     *fakeExecutor
	migrator *migrator.Migrator
}

func newFixture(t *testing.T, fsys fstest.MapFS, env string, applied ...string) *fixture {
	t.Helper()

	store := history.NewMemoryStore()
	for _, ref := range applied {
		require.NoError(t, store.AppendCommit(context.Background(), ref))
	}

	exec := &fakeExecutor{store: store, fail: map[string]bool{}}
	return &fixture{
		fs:    fsys,
		store: store,
		exec:  exec,
		migrator: migrator.New(migrator.Config{
			Alters:   fsys,
			Store:    store,
			Executor: exec,
			Env:      env,
		}),
	}
}

func (f *fixture) history(t *testing.T) []string {
	t.Helper()

	entries, err := f.store.CommitHistory(context.Background())
	require.NoError(t, err)
	return history.Refs(history.SortAscending(entries))
}
