package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// genRefCmd prints a fresh ref for hand-written alters.
func genRefCmd(d deps) *cli.Command {
	return &cli.Command{
		Name:  "gen-ref",
		Usage: "Generate a new alter ref",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ref, err := d.Refs.Next(0)
			if err != nil {
				return err
			}

			fmt.Fprintf(stdout(cmd), "ref: %s\n\n", ref)
			return nil
		},
	}
}
