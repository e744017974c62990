package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/pseudomuto/schematool/pkg/cmd"
	"github.com/pseudomuto/schematool/pkg/config"
	"github.com/pseudomuto/schematool/pkg/history"
	"go.uber.org/fx"
)

// NB: These are set by GoReleaser during a build.
var (
	version string
	commit  string
	date    string
)

func main() {
	fx.New(
		fx.NopLogger,
		fx.Supply(
			os.Args,
			&cmd.Version{
				Version:   version,
				Commit:    commit,
				Timestamp: date,
			},
		),
		fx.Provide(func(lc fx.Lifecycle) context.Context {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			lc.Append(fx.StopHook(stop))
			return ctx
		}),
		config.Module,
		history.Module,
		cmd.Module,
	).Run()
}
