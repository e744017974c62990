package cmd

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/pseudomuto/schematool/pkg/config"
	"github.com/pseudomuto/schematool/pkg/project"
	"github.com/urfave/cli/v3"
)

// initCmd prepares a project directory and the history table.
//
// On a directory without a config file it writes a default schema.yaml and an
// empty alters directory and stops, so the config can be edited first. Once a
// config exists it creates the revision schema and history table, and links
// the pre-commit hook when one is configured.
//
// Example usage:
//
//	schema init
//	schema init --force
func initCmd(d deps) *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize the project and the history table",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "drop existing history before creating the table",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			out := stdout(cmd)

			proj := project.New(".")
			created, err := proj.Initialize()
			if err != nil {
				return errors.Wrap(err, "failed to initialize project")
			}

			if created {
				fmt.Fprintf(out, "Created %s, update it and run init again to create the history table\n", config.Filenames[0])
				return nil
			}

			s, err := openSession(ctx, d)
			if err != nil {
				return err
			}
			defer s.Close()

			force := cmd.Bool("force")
			if force {
				fmt.Fprintln(out, "Removing existing history")
			}

			fmt.Fprintln(out, "Creating revision database")
			fmt.Fprintln(out, "Creating history table")
			if err := s.store.Init(ctx, force); err != nil {
				return errors.Wrap(err, "failed to initialize history")
			}
			fmt.Fprintln(out, "DB Initialized")

			if s.cfg.PreCommitHook == "" {
				return nil
			}

			return proj.InstallHook(s.cfg.PreCommitHook, out)
		},
	}
}
