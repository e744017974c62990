package cmd

import (
	"context"

	"github.com/urfave/cli/v3"
)

func rebuildCmd(d deps) *cli.Command {
	return &cli.Command{
		Name:  "rebuild",
		Usage: "Revert every applied alter, then apply the whole chain",
		Flags: []cli.Flag{
			forceFlag(),
			verboseFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := openSession(ctx, d)
			if err != nil {
				return err
			}
			defer s.Close()

			_, err = s.migrator(cmd).Rebuild(ctx, cmd.Bool("force"), cmd.Bool("verbose"))
			return err
		},
	}
}
