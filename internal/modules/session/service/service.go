package service

import (
	"context"
	"time"
	"trade_journal/internal/models"
	strategy "trade_journal/internal/modules/strategy/service"
	"trade_journal/internal/notify"
	"trade_journal/pkg/db"
)

type Repository interface {
	strategy.TreeReader

	InsertSessionRun(ctx context.Context, tx db.Transaction, run *models.SessionRun) error
	GetSessionRun(ctx context.Context, tx db.Transaction, userID, runID int64) (*models.SessionRun, error)
	ListRecentSessionRuns(ctx context.Context, tx db.Transaction, userID int64, limit int) ([]models.SessionRun, error)
	UpdateSessionRun(ctx context.Context, tx db.Transaction, run *models.SessionRun) error

	InsertStepChecks(ctx context.Context, tx db.Transaction, runID int64, stepIDs []int64) error
	ListStepChecks(ctx context.Context, tx db.Transaction, runID int64) ([]models.StepCheck, error)
	UpdateStepCheck(ctx context.Context, tx db.Transaction, c *models.StepCheck) error

	GetTrade(ctx context.Context, tx db.Transaction, runID int64) (*models.Trade, error)
	UpsertTrade(ctx context.Context, tx db.Transaction, t *models.Trade) error
	DeleteTrade(ctx context.Context, tx db.Transaction, runID int64) error
}

// Engine runs strategy checklists: start, check/uncheck, review.
// Every operation takes the acting user explicitly; runs of other users are not found.
type Engine struct {
	tx       db.TxManager
	repo     Repository
	notifier notify.Notifier
	now      func() time.Time
}

func NewEngine(tx db.TxManager, repo Repository, notifier notify.Notifier) *Engine {
	return &Engine{
		tx:       tx,
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
	}
}

// WithClock подменяет часы (тесты).
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}
