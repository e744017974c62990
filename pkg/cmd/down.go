package cmd

import (
	"context"
	"log/slog"

	"github.com/pseudomuto/schematool/pkg/migrator"
	"github.com/urfave/cli/v3"
)

// downCmd reverts applied alters, most recent first.
//
// Example usage:
//
//	schema down -n 1
//	schema down base
//	schema down 170000000010
func downCmd(d deps) *cli.Command {
	return &cli.Command{
		Name:      "down",
		Usage:     "Revert applied alters",
		ArgsUsage: "[all|base|ref]",
		Description: `Revert applied alters, most recent first.

Arguments:
  all    undo every applied alter
  base   undo all but the initial alter
  ref    undo alters up to, and including, the given ref

Either an argument or --number is required.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "number",
				Aliases: []string{"n"},
				Usage:   "run at most N down-alters",
			},
			forceFlag(),
			verboseFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			mode, target := migrator.ParseDownTarget(cmd.Args().First())

			s, err := openSession(ctx, d)
			if err != nil {
				return err
			}
			defer s.Close()

			report, err := s.migrator(cmd).Down(ctx, migrator.DownOptions{
				Count:   count(cmd),
				Force:   cmd.Bool("force"),
				Verbose: cmd.Bool("verbose"),
				Mode:    mode,
				Target:  target,
			})
			if err != nil {
				return err
			}

			slog.Debug("Down complete", "reverted", len(report.Reverted), "removed", len(report.Removed))
			return nil
		},
	}
}
