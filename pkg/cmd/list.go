package cmd

import (
	"context"
	"fmt"
	"slices"

	"github.com/pkg/errors"
	"github.com/pseudomuto/schematool/pkg/alter"
	"github.com/urfave/cli/v3"
)

// listCmd prints the chain newest first, marking applied alters with `*`.
//
// Example output:
//
//	-> *[170000000010] add_index
//	    *[170000000000] create_users
func listCmd(d deps) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List the alters in the chain",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "list-from-bottom",
				Aliases: []string{"r"},
				Usage:   "list oldest alters first",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := openSession(ctx, d)
			if err != nil {
				return err
			}
			defer s.Close()

			chain, err := alter.BuildChain(alterFS(s.cfg))
			if err != nil {
				return err
			}

			out := stdout(cmd)
			if chain.Empty() {
				fmt.Fprintln(out, "No alters found")
				return nil
			}

			applied, err := s.store.AppliedAlters(ctx)
			if err != nil {
				return errors.Wrap(err, "failed to read history")
			}

			nodes := chain.Nodes()
			if cmd.Bool("list-from-bottom") {
				slices.Reverse(nodes)
			}

			for _, node := range nodes {
				node.Applied = slices.Contains(applied, node.ID)
				fmt.Fprintln(out, node)
			}

			return nil
		},
	}
}
