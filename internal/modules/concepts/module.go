package concepts

import (
	"trade_journal/internal/modules/concepts/service"
	"trade_journal/internal/modules/concepts/service/pg"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("concepts",
		// 1. Репозиторий
		fx.Provide(
			pg.NewConcepts, // *pg.Concepts
			func(r *pg.Concepts) service.Repository { return r },
		),
		// 2. Сервис библиотеки
		fx.Provide(
			service.NewLibrary,
		),
	)
}
