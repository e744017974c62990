// Package cmd provides the CLI commands for the schema tool.
//
// # Available Commands
//
//   - new: append an up/down alter pair after the current tail
//   - check: validate the alter chain (used as a pre-commit hook)
//   - list: print the chain, marking applied alters
//   - up: apply pending alters, undoing diverged history
//   - down: revert applied alters (N, all, base or up to a ref)
//   - rebuild: down all, then up
//   - gen-ref: print a fresh ref
//   - resolve: move a divergent branch behind the tail
//   - init: write a default config, create the history table, link the hook
//   - gen-sql: render alters as SQL to be run by hand
//
// # Command Structure
//
// Each command is a constructor returning a *cli.Command, registered in the
// "commands" fx group. Commands receive a config.Loader and a
// history.Factory and call them lazily, after the root command has switched
// to the --dir directory, so commands that don't need a database never open
// one.
//
// # Global Options
//
//   - --dir, -d: project directory (defaults to current directory)
//   - --debug: debug logging
//   - --help, -h: display command help
//   - --version: display version information
//
// # Example Usage
//
//	schema init
//	schema new -f create_users
//	schema up
//	schema down -n 1
//	schema gen-sql -d 170000000020
package cmd
