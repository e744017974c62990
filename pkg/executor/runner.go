package executor

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/schematool/pkg/config"
)

type (
	// Command is a SQL client invocation. Env entries are appended to the
	// current process environment.
	Command struct {
		Name string
		Args []string
		Env  []string
	}

	// Result captures the outcome of a finished client process.
	Result struct {
		ExitCode int
		Stdout   string
		Stderr   string
	}

	// Runner starts a client process with stdin attached.
	//
	// A non-zero exit is reported through Result; the error is reserved for
	// processes that could not be started at all.
	Runner interface {
		Run(ctx context.Context, cmd Command, stdin io.Reader) (Result, error)
	}

	// ClientFunc returns the client command used to run the named alter file.
	ClientFunc func(filename string) Command

	// ProcessRunner runs commands as child processes.
	ProcessRunner struct{}
)

func (ProcessRunner) Run(ctx context.Context, c Command, stdin io.Reader) (Result, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Stdin = stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	err := cmd.Run()

	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}

		return res, errors.Wrapf(err, "failed to start %s", c.Name)
	}

	return res, nil
}

// ClientFor builds the client command for the configured backend. A
// configured client_command always wins.
func ClientFor(cfg *config.Config) ClientFunc {
	if len(cfg.ClientCommand) > 0 {
		argv := cfg.ClientCommand
		return func(string) Command {
			return Command{Name: argv[0], Args: argv[1:]}
		}
	}

	switch cfg.Type {
	case config.TypePostgres:
		return func(string) Command { return postgresClient(cfg) }
	case config.TypeClickHouse:
		return func(string) Command { return clickhouseClient(cfg) }
	case config.TypeSQLite:
		return func(string) Command { return Command{Name: "sqlite3", Args: []string{"-bail", cfg.DBName}} }
	default:
		return MemoryClient
	}
}

// MemoryClient succeeds for every file except those with "error" in the name.
func MemoryClient(filename string) Command {
	if strings.Contains(filename, "error") {
		return Command{Name: "false"}
	}

	return Command{Name: "true"}
}

func postgresClient(cfg *config.Config) Command {
	var args []string
	if cfg.Host != "" {
		args = append(args, "-h", cfg.Host)
	}
	if cfg.Username != "" {
		args = append(args, "-U", cfg.Username)
	}
	if cfg.Port > 0 {
		args = append(args, "-p", strconv.Itoa(cfg.Port))
	}
	args = append(args,
		"-v", "verbose",
		"-v", "ON_ERROR_STOP=1",
		"-v", "schema="+cfg.RevisionSchemaName,
		cfg.DBName,
	)

	cmd := Command{Name: "psql", Args: args}
	if cfg.Password != "" {
		cmd.Env = []string{"PGPASSWORD=" + cfg.Password}
	}

	return cmd
}

func clickhouseClient(cfg *config.Config) Command {
	var args []string
	if cfg.Host != "" {
		args = append(args, "--host", cfg.Host)
	}
	if cfg.Port > 0 {
		args = append(args, "--port", strconv.Itoa(cfg.Port))
	}
	if cfg.Username != "" {
		args = append(args, "--user", cfg.Username)
	}
	if cfg.Password != "" {
		args = append(args, "--password", cfg.Password)
	}
	if cfg.DBName != "" {
		args = append(args, "--database", cfg.DBName)
	}

	return Command{Name: "clickhouse-client", Args: append(args, "--multiquery")}
}
