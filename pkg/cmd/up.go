package cmd

import (
	"context"
	"log/slog"

	"github.com/pseudomuto/schematool/pkg/migrator"
	"github.com/urfave/cli/v3"
)

// upCmd applies pending alters, undoing history that diverged from the chain.
//
// Command flags:
//   - --number, -n: apply at most N alters
//   - --force, -f: keep going (and record history) when an alter fails
//   - --verbose, -v: echo client output when an alter fails
//   - --no-undo, -u: leave diverged history in place
//
// Example usage:
//
//	# Apply everything
//	schema up
//
//	# Apply up to and including a specific alter
//	schema up 170000000020
func upCmd(d deps) *cli.Command {
	return &cli.Command{
		Name:      "up",
		Usage:     "Apply pending alters",
		ArgsUsage: "[ref]",
		Description: `Compare the history table with the alter chain, revert any history that
is no longer part of the chain (most recent first) and apply the remaining
alters oldest first. When a ref is given, alters are applied up to and
including it.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "number",
				Aliases: []string{"n"},
				Usage:   "run at most N up-alters",
			},
			forceFlag(),
			verboseFlag(),
			&cli.BoolFlag{
				Name:    "no-undo",
				Aliases: []string{"u"},
				Usage:   "do not undo previously run alters that diverge from the chain",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := openSession(ctx, d)
			if err != nil {
				return err
			}
			defer s.Close()

			report, err := s.migrator(cmd).Up(ctx, migrator.UpOptions{
				Count:   count(cmd),
				Force:   cmd.Bool("force"),
				Verbose: cmd.Bool("verbose"),
				NoUndo:  cmd.Bool("no-undo"),
				Target:  cmd.Args().First(),
			})
			if err != nil {
				return err
			}

			slog.Debug("Up complete",
				"applied", len(report.Applied),
				"reverted", len(report.Reverted),
				"skipped", len(report.Skipped),
				"excluded", len(report.Excluded),
			)

			return nil
		},
	}
}

func forceFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "force",
		Aliases: []string{"f"},
		Usage:   "continue running alters even if an error has occurred",
	}
}

func verboseFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "output client messages when an alter fails",
	}
}
