package web

import (
	"trade_journal/internal/modules/users/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("web",
		fx.Provide(
			func(d *service.Directory) UserLookup { return d },
			NewAuth,
			NewMetrics,
			NewRouter,
		),
		fx.Invoke(RunHTTP),
	)
}
