package cmd

import (
	"context"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/schematool/pkg/alter"
	"github.com/pseudomuto/schematool/pkg/config"
	"github.com/pseudomuto/schematool/pkg/executor"
	"github.com/pseudomuto/schematool/pkg/history"
	"github.com/pseudomuto/schematool/pkg/migrator"
	"github.com/pseudomuto/schematool/pkg/utils"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

// deps are the collaborators shared by every command.
type deps struct {
	fx.In

	Config config.Loader
	Stores history.Factory
	Refs   *alter.RefGenerator
}

// requireConfig loads and validates the configuration, failing when the
// directory has no config file.
func requireConfig(load config.Loader) (*config.Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	if cfg == nil {
		return nil, errors.Errorf("no config file found (looked for %s)", strings.Join(config.Filenames, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func alterFS(cfg *config.Config) fs.FS {
	return os.DirFS(cfg.AlterDir)
}

// session is an opened store together with the config it was opened for.
type session struct {
	cfg   *config.Config
	store history.Store
}

func openSession(ctx context.Context, d deps) (*session, error) {
	cfg, err := requireConfig(d.Config)
	if err != nil {
		return nil, err
	}

	store, err := d.Stores(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open history store")
	}

	return &session{cfg: cfg, store: store}, nil
}

func (s *session) Close() {
	_ = s.store.Close()
}

func (s *session) migrator(cmd *cli.Command) *migrator.Migrator {
	exec := executor.New(executor.Config{
		Alters: alterFS(s.cfg),
		Store:  s.store,
		Client: executor.ClientFor(s.cfg),
		Out:    stdout(cmd),
		ErrOut: stderr(cmd),
	})

	return migrator.New(migrator.Config{
		Alters:   alterFS(s.cfg),
		Store:    s.store,
		Executor: exec,
		Env:      s.cfg.Env,
		Out:      stdout(cmd),
	})
}

// count is the --number flag, or nil when it wasn't given. An explicit -n 0
// runs nothing.
func count(cmd *cli.Command) *int {
	if !cmd.IsSet("number") {
		return nil
	}

	return utils.Ptr(int(cmd.Int("number")))
}

// stdout is the root command's writer, where the app (or a test) directs
// user-facing output.
func stdout(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.Writer != nil {
		return root.Writer
	}

	return os.Stdout
}

func stderr(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.ErrWriter != nil {
		return root.ErrWriter
	}

	return os.Stderr
}
