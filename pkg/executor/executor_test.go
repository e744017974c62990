package executor_test

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/pkg/errors"
	"github.com/pseudomuto/schematool/pkg/alter"
	"github.com/pseudomuto/schematool/pkg/config"
	"github.com/pseudomuto/schematool/pkg/executor"
	"github.com/pseudomuto/schematool/pkg/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	runFunc  func(context.Context, executor.Command, string) (executor.Result, error)
	commands []executor.Command
	inputs   []string
}

func (m *mockRunner) Run(ctx context.Context, cmd executor.Command, stdin io.Reader) (executor.Result, error) {
	data, err := io.ReadAll(stdin)
	if err != nil {
		return executor.Result{}, err
	}

	m.commands = append(m.commands, cmd)
	m.inputs = append(m.inputs, string(data))
	if m.runFunc != nil {
		return m.runFunc(ctx, cmd, string(data))
	}
	return executor.Result{}, nil
}

func testAlters() fstest.MapFS {
	return fstest.MapFS{
		"170000000000-init-up.sql":   {Data: []byte("-- direction: up\n-- ref: 170000000000\n\nCREATE TABLE t (id int);\n")},
		"170000000000-init-down.sql": {Data: []byte("-- direction: down\n-- ref: 170000000000\n\nDROP TABLE t;\n")},
	}
}

func testNode() *alter.Node {
	return &alter.Node{ID: "170000000000", Filename: "170000000000-init-up.sql"}
}

func TestNew(t *testing.T) {
	ex := executor.New(executor.Config{Store: history.NewMemoryStore(), Alters: testAlters()})
	assert.NotNil(t, ex)
}

func TestExecutor_RunUp(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		var out bytes.Buffer
		store := history.NewMemoryStore()
		runner := &mockRunner{}
		ex := executor.New(executor.Config{
			Alters: testAlters(),
			Store:  store,
			Runner: runner,
			Out:    &out,
		})

		res, err := ex.RunUp(ctx, testNode(), executor.Options{})
		require.NoError(t, err)
		require.Equal(t, executor.StatusSuccess, res.Status)
		require.Equal(t, alter.Up, res.Direction)
		require.Equal(t, "Running alter: 170000000000-init-up.sql\n", out.String())
		require.Contains(t, runner.inputs[0], "CREATE TABLE t")
		require.Equal(t, "true", runner.commands[0].Name)

		applied, err := store.AppliedAlters(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"170000000000"}, applied)
	})

	t.Run("failure", func(t *testing.T) {
		var errOut bytes.Buffer
		store := history.NewMemoryStore()
		runner := &mockRunner{runFunc: func(context.Context, executor.Command, string) (executor.Result, error) {
			return executor.Result{ExitCode: 3, Stdout: "partial\n", Stderr: "syntax error\n"}, nil
		}}
		ex := executor.New(executor.Config{
			Alters: testAlters(),
			Store:  store,
			Runner: runner,
			ErrOut: &errOut,
		})

		res, err := ex.RunUp(ctx, testNode(), executor.Options{})
		var applyErr *executor.AppliedAlterError
		require.ErrorAs(t, err, &applyErr)
		require.Equal(t, "170000000000-init-up.sql execution unsuccessful", applyErr.Error())
		require.Equal(t, 3, applyErr.ExitCode)
		require.Equal(t, "syntax error\n", applyErr.Stderr)
		require.Equal(t, executor.StatusFailed, res.Status)
		require.Equal(t,
			"\n----------------------\npartialsyntax error\n----------------------\nError\n",
			errOut.String(),
		)

		applied, err := store.AppliedAlters(ctx)
		require.NoError(t, err)
		require.Empty(t, applied)
	})

	t.Run("verbose_failure_echoes_output", func(t *testing.T) {
		var errOut bytes.Buffer
		runner := &mockRunner{runFunc: func(context.Context, executor.Command, string) (executor.Result, error) {
			return executor.Result{ExitCode: 1, Stdout: "out"}, nil
		}}
		ex := executor.New(executor.Config{
			Alters: testAlters(),
			Store:  history.NewMemoryStore(),
			Runner: runner,
			ErrOut: &errOut,
		})

		_, err := ex.RunUp(ctx, testNode(), executor.Options{Verbose: true})
		require.Error(t, err)
		require.Equal(t, "Error\n----------------------\nout\n----------------------\n\n", errOut.String())
	})

	t.Run("forced_failure_records_history", func(t *testing.T) {
		store := history.NewMemoryStore()
		runner := &mockRunner{runFunc: func(context.Context, executor.Command, string) (executor.Result, error) {
			return executor.Result{ExitCode: 1}, nil
		}}
		ex := executor.New(executor.Config{Alters: testAlters(), Store: store, Runner: runner})

		res, err := ex.RunUp(ctx, testNode(), executor.Options{Force: true})
		require.NoError(t, err)
		require.Equal(t, executor.StatusForced, res.Status)

		var applyErr *executor.AppliedAlterError
		require.ErrorAs(t, res.Error, &applyErr)

		applied, err := store.AppliedAlters(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"170000000000"}, applied)
	})

	t.Run("start_error", func(t *testing.T) {
		runner := &mockRunner{runFunc: func(context.Context, executor.Command, string) (executor.Result, error) {
			return executor.Result{}, errors.New("executable not found")
		}}
		ex := executor.New(executor.Config{Alters: testAlters(), Store: history.NewMemoryStore(), Runner: runner})

		_, err := ex.RunUp(ctx, testNode(), executor.Options{Force: true})
		require.ErrorContains(t, err, "executable not found")
	})

	t.Run("missing_file", func(t *testing.T) {
		ex := executor.New(executor.Config{Alters: fstest.MapFS{}, Store: history.NewMemoryStore(), Runner: &mockRunner{}})

		_, err := ex.RunUp(ctx, testNode(), executor.Options{})
		require.ErrorContains(t, err, "failed to open 170000000000-init-up.sql")
	})
}

func TestExecutor_RunDown(t *testing.T) {
	ctx := context.Background()
	store := history.NewMemoryStore()
	require.NoError(t, store.AppendCommit(ctx, "170000000000"))

	runner := &mockRunner{}
	ex := executor.New(executor.Config{Alters: testAlters(), Store: store, Runner: runner})

	res, err := ex.RunDown(ctx, testNode(), executor.Options{})
	require.NoError(t, err)
	require.Equal(t, "170000000000-init-down.sql", res.Filename)
	require.Contains(t, runner.inputs[0], "DROP TABLE t")

	applied, err := store.AppliedAlters(ctx)
	require.NoError(t, err)
	require.Empty(t, applied)
}

func TestClientFor(t *testing.T) {
	t.Run("postgres", func(t *testing.T) {
		cmd := executor.ClientFor(&config.Config{
			Type:               config.TypePostgres,
			Host:               "db",
			Port:               5432,
			Username:           "admin",
			Password:           "secret",
			DBName:             "app",
			RevisionSchemaName: "revision",
		})("x-up.sql")

		require.Equal(t, "psql", cmd.Name)
		require.Equal(t, []string{
			"-h", "db", "-U", "admin", "-p", "5432",
			"-v", "verbose", "-v", "ON_ERROR_STOP=1", "-v", "schema=revision",
			"app",
		}, cmd.Args)
		require.Equal(t, []string{"PGPASSWORD=secret"}, cmd.Env)
	})

	t.Run("postgres_omits_unset_values", func(t *testing.T) {
		cmd := executor.ClientFor(&config.Config{
			Type:               config.TypePostgres,
			DBName:             "app",
			RevisionSchemaName: "revision",
		})("x-up.sql")

		require.Equal(t, []string{
			"-v", "verbose", "-v", "ON_ERROR_STOP=1", "-v", "schema=revision",
			"app",
		}, cmd.Args)
		require.Empty(t, cmd.Env)
	})

	t.Run("clickhouse", func(t *testing.T) {
		cmd := executor.ClientFor(&config.Config{
			Type:     config.TypeClickHouse,
			Host:     "ch",
			Port:     9000,
			Username: "default",
			DBName:   "app",
		})("x-up.sql")

		require.Equal(t, "clickhouse-client", cmd.Name)
		require.Equal(t, []string{"--host", "ch", "--port", "9000", "--user", "default", "--database", "app", "--multiquery"}, cmd.Args)
	})

	t.Run("clickhouse_omits_unset_values", func(t *testing.T) {
		cmd := executor.ClientFor(&config.Config{Type: config.TypeClickHouse})("x-up.sql")
		require.Equal(t, []string{"--multiquery"}, cmd.Args)
	})

	t.Run("sqlite", func(t *testing.T) {
		cmd := executor.ClientFor(&config.Config{Type: config.TypeSQLite, DBName: "app.db"})("x-up.sql")
		require.Equal(t, "sqlite3", cmd.Name)
		require.Equal(t, []string{"-bail", "app.db"}, cmd.Args)
	})

	t.Run("memory", func(t *testing.T) {
		client := executor.ClientFor(&config.Config{Type: config.TypeMemory})
		require.Equal(t, "true", client("170000000000-init-up.sql").Name)
		require.Equal(t, "false", client("170000000000-error-up.sql").Name)
	})

	t.Run("override", func(t *testing.T) {
		cmd := executor.ClientFor(&config.Config{
			Type:          config.TypePostgres,
			ClientCommand: []string{"docker", "exec", "-i", "db", "psql"},
		})("x-up.sql")

		require.Equal(t, "docker", cmd.Name)
		require.Equal(t, []string{"exec", "-i", "db", "psql"}, cmd.Args)
	})
}

func TestProcessRunner(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	ctx := context.Background()
	runner := executor.ProcessRunner{}

	t.Run("pipes_stdin", func(t *testing.T) {
		res, err := runner.Run(ctx, executor.Command{Name: "sh", Args: []string{"-c", "cat; echo oops >&2"}}, strings.NewReader("SELECT 1;"))
		require.NoError(t, err)
		require.Equal(t, 0, res.ExitCode)
		require.Equal(t, "SELECT 1;", res.Stdout)
		require.Equal(t, "oops\n", res.Stderr)
	})

	t.Run("exit_code", func(t *testing.T) {
		res, err := runner.Run(ctx, executor.Command{Name: "sh", Args: []string{"-c", "exit 4"}}, strings.NewReader(""))
		require.NoError(t, err)
		require.Equal(t, 4, res.ExitCode)
	})

	t.Run("env", func(t *testing.T) {
		res, err := runner.Run(ctx, executor.Command{
			Name: "sh",
			Args: []string{"-c", "printf %s \"$PGPASSWORD\""},
			Env:  []string{"PGPASSWORD=secret"},
		}, strings.NewReader(""))
		require.NoError(t, err)
		require.Equal(t, "secret", res.Stdout)
	})

	t.Run("not_found", func(t *testing.T) {
		_, err := runner.Run(ctx, executor.Command{Name: "definitely-not-a-sql-client"}, strings.NewReader(""))
		require.ErrorContains(t, err, "failed to start definitely-not-a-sql-client")
	})
}
