package daybook

import (
	conceptspg "trade_journal/internal/modules/concepts/service/pg"
	"trade_journal/internal/modules/daybook/service"
	"trade_journal/internal/modules/daybook/service/pg"

	"go.uber.org/fx"
)

// repository склеивает журнал и справочник концептов под один интерфейс.
type repository struct {
	*pg.Journals
	*conceptspg.Concepts
}

func Module() fx.Option {
	return fx.Module("daybook",
		fx.Provide(
			pg.NewJournals,
			func(j *pg.Journals, c *conceptspg.Concepts) service.Repository {
				return repository{Journals: j, Concepts: c}
			},
			service.NewBook,
		),
	)
}
