package cmd

import (
	"github.com/pseudomuto/schematool/pkg/alter"
	"go.uber.org/fx"
)

var Module = fx.Module("cli",
	fx.Provide(
		func() *alter.RefGenerator { return alter.NewRefGenerator(nil) },
		fx.Annotate(newCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(checkCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(listCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(upCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(downCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(rebuildCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(genRefCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(resolveCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(initCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(genSQLCmd, fx.ResultTags(`group:"commands"`)),
	),
	fx.Invoke(Run),
)
