package cmd

import (
	"context"
	"fmt"

	"github.com/pseudomuto/schematool/pkg/alter"
	"github.com/pseudomuto/schematool/pkg/config"
	"github.com/pseudomuto/schematool/pkg/history"
	"github.com/pseudomuto/schematool/pkg/migrator"
	"github.com/urfave/cli/v3"
)

// genSQLCmd renders alters as SQL that can be run by hand, for databases the
// tool can't reach directly.
//
// Command flags:
//   - --no-revision, -R: omit the history statement
//   - --no-sql, -S: omit the alter contents
//   - --down, -d: render down-files
//   - --include-rev-query, -q: embed the history statement after the ref header
//   - --write-to-file, -w: write one file per alter to static_alter_dir
//
// Example usage:
//
//	schema gen-sql > all.sql
//	schema gen-sql -d 170000000020
//	schema gen-sql -w
func genSQLCmd(d deps) *cli.Command {
	return &cli.Command{
		Name:      "gen-sql",
		Usage:     "Generate SQL for alters",
		ArgsUsage: "[ref...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "no-revision",
				Aliases: []string{"R"},
				Usage:   "do not include the revision history statement",
			},
			&cli.BoolFlag{
				Name:    "no-sql",
				Aliases: []string{"S"},
				Usage:   "only include the revision history statement",
			},
			&cli.BoolFlag{
				Name:    "down",
				Aliases: []string{"d"},
				Usage:   "generate SQL for down-alters",
			},
			&cli.BoolFlag{
				Name:    "include-rev-query",
				Aliases: []string{"q"},
				Usage:   "embed the revision query after the ref header",
			},
			&cli.BoolFlag{
				Name:    "write-to-file",
				Aliases: []string{"w"},
				Usage:   "write one file per alter to static_alter_dir",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := requireConfig(d.Config)
			if err != nil {
				return err
			}

			toFile := cmd.Bool("write-to-file")
			if toFile && cfg.StaticAlterDir == "" {
				return &config.ConfigError{Key: "static_alter_dir", Msg: "required to write static alters"}
			}

			queries, err := history.QueriesFor(cfg)
			if err != nil {
				return err
			}

			chain, err := alter.Check(alterFS(cfg))
			if err != nil {
				return err
			}

			gen := migrator.NewGenerator(alterFS(cfg), queries)
			opts := migrator.GenerateOptions{
				NoRevision: cmd.Bool("no-revision"),
				NoSQL:      cmd.Bool("no-sql"),
				Down:       cmd.Bool("down"),
				RevQuery:   cmd.Bool("include-rev-query"),
			}

			nodes, err := gen.Select(chain, cmd.Args().Slice(), opts.Down)
			if err != nil {
				return err
			}

			out := stdout(cmd)
			if toFile {
				paths, err := gen.WriteStatic(cfg.StaticAlterDir, nodes, opts)
				for _, path := range paths {
					fmt.Fprintln(out, path)
				}

				return err
			}

			sql, err := gen.Generate(nodes, opts)
			if err != nil {
				return err
			}

			_, err = fmt.Fprint(out, sql)
			return err
		},
	}
}
