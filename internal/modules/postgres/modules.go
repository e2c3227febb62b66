package postgres

import (
	"context"
	"fmt"
	"trade_journal/internal/modules/config"
	"trade_journal/pkg/db"

	"go.uber.org/fx"
)

// NewTxManager открывает пул и проверяет соединение.
func NewTxManager(ctx context.Context, cfg *config.Config) (*db.PgTxManager, error) {
	poolMaster, err := db.NewPool(ctx, db.PoolConfig{
		DSN:      cfg.DB,
		MaxConns: cfg.DBMaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create poolMaster: %w", err)
	}

	err = poolMaster.Ping(ctx)
	if err != nil {
		poolMaster.Close()
		return nil, err
	}

	return db.NewPgTxManager(poolMaster), nil
}

func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			NewTxManager,
			func(m *db.PgTxManager) db.TxManager { return m },
		),
		fx.Invoke(func(lc fx.Lifecycle, m *db.PgTxManager) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					return Migrate(ctx, m)
				},
				OnStop: func(ctx context.Context) error {
					m.Close()
					return nil
				},
			})
		}),
	)
}
