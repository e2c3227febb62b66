package notify

import (
	"trade_journal/internal/modules/config"
	"trade_journal/pkg/logger"

	"go.uber.org/fx"
)

// NewNotifier выбирает telegram при наличии токена, иначе лог.
func NewNotifier(cfg *config.Config) Notifier {
	if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == 0 {
		return NewStdout()
	}
	t, err := NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
	if err != nil {
		logger.Error("telegram notifier disabled: %v", err)
		return NewStdout()
	}
	return t
}

func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(NewNotifier),
	)
}
