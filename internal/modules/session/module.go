package session

import (
	"trade_journal/internal/modules/session/service"
	"trade_journal/internal/modules/session/service/pg"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("session",
		fx.Provide(
			pg.NewRuns, // *pg.Runs, поверх *strategy pg.Strategies
			func(r *pg.Runs) service.Repository { return r },
			service.NewEngine,
		),
	)
}
