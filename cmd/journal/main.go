package main

import (
	"context"
	"log"
	"trade_journal/internal/modules/concepts"
	"trade_journal/internal/modules/config"
	"trade_journal/internal/modules/daybook"
	"trade_journal/internal/modules/health"
	"trade_journal/internal/modules/postgres"
	"trade_journal/internal/modules/session"
	"trade_journal/internal/modules/strategy"
	"trade_journal/internal/modules/users"
	"trade_journal/internal/modules/web"
	"trade_journal/internal/notify"
	"trade_journal/pkg/logger"
	"trade_journal/pkg/tracing"

	"go.uber.org/fx"
)

func initTracing(lc fx.Lifecycle, cfg *config.Config) error {
	_, closer, err := tracing.InitTracer(tracing.Config{
		Enabled: cfg.Tracing.Enabled,
		Host:    cfg.Tracing.Host,
		Port:    cfg.Tracing.Port,
	})
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			closer()
			logger.Sync()
			return nil
		},
	})
	return nil
}

func main() {
	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		fx.Invoke(initTracing),
		postgres.Module(),
		notify.Module(),
		users.Module(),
		concepts.Module(),
		strategy.Module(),
		session.Module(),
		daybook.Module(),
		health.Module(),
		web.Module(),
	)
	if err := app.Err(); err != nil {
		log.Fatal(err)
	}
	app.Run()
}
