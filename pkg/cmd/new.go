package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/schematool/pkg/alter"
	"github.com/pseudomuto/schematool/pkg/consts"
	"github.com/urfave/cli/v3"
)

// newCmd creates the new command which appends an up/down alter pair to the
// chain.
//
// Example usage:
//
//	schema new -f add_users_table
//	schema new -f backfill --require-env prod,stage
func newCmd(d deps) *cli.Command {
	return &cli.Command{
		Name:  "new",
		Usage: "Create a new up/down alter pair after the current tail",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "name of the alter (without the ref or direction)",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.StringFlag{
				Name:  "require-env",
				Usage: "comma separated environments the alter is limited to",
			},
			&cli.StringFlag{
				Name:  "skip-env",
				Usage: "comma separated environments that skip the alter",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := requireConfig(d.Config)
			if err != nil {
				return err
			}

			if cmd.String("require-env") != "" && cmd.String("skip-env") != "" {
				return &alter.ConfigError{Msg: "require-env and skip-env can't be used together"}
			}

			chain, err := alter.BuildChain(alterFS(cfg))
			if err != nil {
				return err
			}

			ref, err := d.Refs.Next(0)
			if err != nil {
				return err
			}

			return createAlter(cmd, cfg.AlterDir, chain.Tail, ref)
		},
	}
}

func createAlter(cmd *cli.Command, dir string, tail *alter.Node, ref string) error {
	name := strings.TrimSuffix(cmd.String("file"), ".sql")
	if name == "" {
		name = "_"
	}

	var env []string
	for _, key := range []string{alter.KeyRequireEnv, alter.KeySkipEnv} {
		value := cmd.String(key)
		if value == "" {
			continue
		}

		if _, err := alter.ParseEnv(value); err != nil {
			return err
		}

		env = append(env, fmt.Sprintf("-- %s: %s\n", key, value))
	}

	out := stdout(cmd)
	if tail != nil {
		fmt.Fprintf(out, "Parent file:  %s\n", filepath.Join(dir, tail.Filename))
	}

	for _, direction := range []alter.Direction{alter.Up, alter.Down} {
		filename := filepath.Join(dir, fmt.Sprintf("%s-%s-%s.sql", ref, name, direction))

		var sb strings.Builder
		fmt.Fprintf(&sb, "-- direction: %s\n", direction)
		if tail != nil {
			fmt.Fprintf(&sb, "-- backref: %s\n", tail.ID)
		}
		fmt.Fprintf(&sb, "-- ref: %s\n", ref)
		for _, line := range env {
			sb.WriteString(line)
		}
		sb.WriteString("\n\n\n")

		if err := os.WriteFile(filename, []byte(sb.String()), consts.ModeFile); err != nil {
			return errors.Wrapf(err, "failed to create %s", filename)
		}

		fmt.Fprintf(out, "Created file: %s\n", filename)
	}

	return nil
}
