package executor

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/schematool/pkg/alter"
	"github.com/pseudomuto/schematool/pkg/history"
)

const separator = "\n----------------------\n"

type (
	// Executor runs alter files through the database client and records the
	// outcome in the history store.
	//
	// Example usage:
	//
	//	exec := executor.New(executor.Config{
	//		Alters: os.DirFS(cfg.AlterDir),
	//		Store:  store,
	//		Client: executor.ClientFor(cfg),
	//	})
	//
	//	res, err := exec.RunUp(ctx, node, executor.Options{})
	//	if err != nil {
	//		return err
	//	}
	//
	//	fmt.Printf("%s: %s\n", res.Filename, res.Status)
	Executor struct {
		alters fs.FS
		store  history.Store
		runner Runner
		client ClientFunc
		out    io.Writer
		errOut io.Writer
	}

	// Config contains configuration options for creating a new Executor.
	Config struct {
		// Alters is the alter directory
		Alters fs.FS

		// Store records applied alters
		Store history.Store

		// Runner starts client processes (default: ProcessRunner)
		Runner Runner

		// Client builds the client command (default: MemoryClient)
		Client ClientFunc

		// Out receives progress lines, ErrOut receives client output on failure
		Out    io.Writer
		ErrOut io.Writer
	}

	// Options control a single execution.
	Options struct {
		// Force records history even when the client fails
		Force bool

		// Verbose echoes client output on failure
		Verbose bool
	}

	// ExecutionResult contains the result of running a single alter file.
	ExecutionResult struct {
		Ref       string
		Filename  string
		Direction alter.Direction
		Status    ExecutionStatus

		// Error contains the client failure, if any. It is set for forced runs too.
		Error error

		ExecutionTime time.Duration
		Stdout        string
		Stderr        string
	}

	// ExecutionStatus represents the outcome of an alter execution.
	ExecutionStatus string

	// AppliedAlterError is returned when the client exits non-zero.
	AppliedAlterError struct {
		Filename string
		ExitCode int
		Stdout   string
		Stderr   string
	}
)

const (
	// StatusSuccess indicates the alter ran and history was updated
	StatusSuccess ExecutionStatus = "success"

	// StatusFailed indicates the client failed and history was left alone
	StatusFailed ExecutionStatus = "failed"

	// StatusForced indicates the client failed but history was updated anyway
	StatusForced ExecutionStatus = "forced"
)

func (e *AppliedAlterError) Error() string {
	return fmt.Sprintf("%s execution unsuccessful", e.Filename)
}

// New creates a new executor with the provided configuration.
func New(config Config) *Executor {
	e := &Executor{
		alters: config.Alters,
		store:  config.Store,
		runner: config.Runner,
		client: config.Client,
		out:    config.Out,
		errOut: config.ErrOut,
	}

	if e.runner == nil {
		e.runner = ProcessRunner{}
	}
	if e.client == nil {
		e.client = MemoryClient
	}
	if e.out == nil {
		e.out = io.Discard
	}
	if e.errOut == nil {
		e.errOut = io.Discard
	}

	return e
}

// RunUp runs the node's up-file and records it as applied.
func (e *Executor) RunUp(ctx context.Context, node *alter.Node, opts Options) (*ExecutionResult, error) {
	res, err := e.run(ctx, node, alter.Up, opts)
	if err != nil {
		return res, err
	}

	if err := e.store.AppendCommit(ctx, node.ID); err != nil {
		return res, err
	}

	return res, nil
}

// RunDown runs the node's down-file and removes it from history.
func (e *Executor) RunDown(ctx context.Context, node *alter.Node, opts Options) (*ExecutionResult, error) {
	res, err := e.run(ctx, node, alter.Down, opts)
	if err != nil {
		return res, err
	}

	if err := e.store.RemoveCommit(ctx, node.ID); err != nil {
		return res, err
	}

	return res, nil
}

func (e *Executor) run(ctx context.Context, node *alter.Node, dir alter.Direction, opts Options) (*ExecutionResult, error) {
	filename := node.FilenameFor(dir)
	res := &ExecutionResult{Ref: node.ID, Filename: filename, Direction: dir}

	_, _ = fmt.Fprintf(e.out, "Running alter: %s\n", filename)

	f, err := e.alters.Open(filename)
	if err != nil {
		res.Status = StatusFailed
		res.Error = errors.Wrapf(err, "failed to open %s", filename)
		return res, res.Error
	}
	defer func() { _ = f.Close() }()

	start := time.Now()
	out, err := e.runner.Run(ctx, e.client(filename), f)
	res.ExecutionTime = time.Since(start)
	res.Stdout = out.Stdout
	res.Stderr = out.Stderr

	if err != nil {
		res.Status = StatusFailed
		res.Error = err
		return res, err
	}

	slog.Debug("Executed alter", "file", filename, "exit", out.ExitCode, "duration", res.ExecutionTime)

	if out.Stderr != "" {
		e.writeOutput(out)
	}

	if out.ExitCode == 0 {
		res.Status = StatusSuccess
		return res, nil
	}

	_, _ = fmt.Fprint(e.errOut, "Error")
	if opts.Verbose {
		e.writeOutput(out)
	}
	_, _ = fmt.Fprintln(e.errOut)

	res.Error = &AppliedAlterError{
		Filename: filename,
		ExitCode: out.ExitCode,
		Stdout:   out.Stdout,
		Stderr:   out.Stderr,
	}

	if opts.Force {
		slog.Warn("Alter failed, continuing because of force", "file", filename, "exit", out.ExitCode)
		res.Status = StatusForced
		return res, nil
	}

	res.Status = StatusFailed
	return res, res.Error
}

func (e *Executor) writeOutput(out Result) {
	_, _ = fmt.Fprint(e.errOut, separator)
	_, _ = fmt.Fprint(e.errOut, strings.TrimRight(out.Stdout, " \t\r\n"))
	_, _ = fmt.Fprint(e.errOut, strings.TrimRight(out.Stderr, " \t\r\n"))
	_, _ = fmt.Fprint(e.errOut, separator)
}
