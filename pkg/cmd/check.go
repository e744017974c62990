package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pseudomuto/schematool/pkg/alter"
	"github.com/urfave/cli/v3"
)

// checkCmd validates the alter chain without touching the database. It is the
// command installed as the pre-commit hook.
func checkCmd(d deps) *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Validate the alter chain",
		Description: `Build the alter chain and verify that it is a single, linear list:

- every backref resolves to exactly one alter
- there is one head, one tail and no branches
- every up-file is part of the chain and has a matching down-file
- up and down files agree on backref and environment headers`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "print every alter in the validated chain",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := requireConfig(d.Config)
			if err != nil {
				return err
			}

			chain, err := alter.Check(alterFS(cfg))
			if err != nil {
				return err
			}

			out := stdout(cmd)
			if cmd.Bool("verbose") {
				slog.Info("Validated alter chain", "dir", cfg.AlterDir, "alters", chain.Len())
				for _, node := range chain.Nodes() {
					fmt.Fprintln(out, node)
				}
			}

			fmt.Fprintln(out, "Everything looks good!")
			return nil
		},
	}
}
