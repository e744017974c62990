package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/pseudomuto/schematool/pkg/history"
	"github.com/pseudomuto/schematool/pkg/resolver"
	"github.com/urfave/cli/v3"
)

// resolveCmd moves a divergent branch behind the tail of the chain.
//
// Example usage:
//
//	# by ref
//	schema resolve 170000000020
//
//	# by up-file
//	schema resolve alters/170000000020-add_index-up.sql
func resolveCmd(d deps) *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve a divergent branch in the alter chain",
		ArgsUsage: "<ref|filename>",
		Description: `When two alters share a backref (usually after merging two branches), pass
the first alter of the branch that should go last. It and every alter after
it are given new refs and re-linked behind the current tail. Renamed files are
staged with git unless git is disabled in the config.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := requireConfig(d.Config)
			if err != nil {
				return err
			}

			rcfg := resolver.Config{
				AlterDir:  cfg.AlterDir,
				StaticDir: cfg.StaticAlterDir,
				Git:       cfg.GitEnabled(),
				Refs:      d.Refs,
				Out:       stdout(cmd),
			}

			if cfg.StaticAlterDir != "" {
				if rcfg.Queries, err = history.QueriesFor(cfg); err != nil {
					return err
				}
			}

			moved, err := resolver.New(rcfg).Resolve(ctx, cmd.Args().First())
			if err != nil {
				return err
			}

			for _, r := range moved {
				slog.Debug("Relocated alter", "from", r.OldRef, "to", r.NewRef, "backref", r.BackRef)
			}

			if _, err := fmt.Fprintln(stdout(cmd), "Everything looks good!"); err != nil {
				return errors.Wrap(err, "failed to write output")
			}

			return nil
		},
	}
}
