package users

import (
	"trade_journal/internal/modules/users/service"
	"trade_journal/internal/modules/users/service/pg"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("users",
		fx.Provide(
			pg.NewUsers,
			func(r *pg.Users) service.Repository { return r },
			service.NewDirectory,
		),
	)
}
