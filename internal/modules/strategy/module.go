package strategy

import (
	"trade_journal/internal/modules/strategy/service"
	"trade_journal/internal/modules/strategy/service/pg"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("strategy",
		fx.Provide(
			pg.NewStrategies, // *pg.Strategies
			func(r *pg.Strategies) service.Repository { return r },
			func(r *pg.Strategies) service.TreeReader { return r },
			service.NewCatalog, // *service.Catalog
		),
	)
}
