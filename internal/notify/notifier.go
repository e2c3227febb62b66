package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
	"trade_journal/internal/models"
	"trade_journal/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Notifier interface {
	Send(ctx context.Context, msg string) error
}

// Telegram: пассивный нотифайер: только отправка сообщений в один чат.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
}

// telegramTimeout ограничивает каждый запрос к Bot API.
const telegramTimeout = 5 * time.Second

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	return newTelegram(token, tgbot.APIEndpoint, chatID, telegramTimeout)
}

func newTelegram(token, endpoint string, chatID int64, timeout time.Duration) (*Telegram, error) {
	b, err := tgbot.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, err
	}
	return &Telegram{
		bot:    b,
		chatID: chatID,
	}, nil
}

// Send returns as soon as ctx is done; the request itself is bounded by the client timeout.
func (t *Telegram) Send(ctx context.Context, msg string) error {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		_, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg))
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stdout: заглушка, всё пишет в лог.
type Stdout struct{}

func NewStdout() *Stdout { return &Stdout{} }

func (s *Stdout) Send(_ context.Context, msg string) error {
	logger.Info("[NOTIFY] %s", msg)
	return nil
}

// Recorder keeps messages in memory; used in tests.
type Recorder struct {
	mu       sync.Mutex
	Messages []string
}

func (r *Recorder) Send(_ context.Context, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, msg)
	return nil
}

// RunSummary formats the message sent when a run is finalized.
func RunSummary(run *models.SessionRun, checked, total int, trade *models.Trade) string {
	var b strings.Builder
	name := run.StrategyName
	if name == "" {
		name = fmt.Sprintf("strategy #%d", run.StrategyID)
	}
	fmt.Fprintf(&b, "✅ Run #%d %s", run.ID, name)
	if run.Symbol != "" {
		fmt.Fprintf(&b, " [%s]", run.Symbol)
	}
	fmt.Fprintf(&b, " completed: %d/%d steps", checked, total)
	if run.TradeTaken && trade != nil {
		fmt.Fprintf(&b, ", %s %sR", trade.Direction, trade.ResultR.StringFixed(2))
	} else {
		b.WriteString(", no trade")
	}
	return b.String()
}
