package service

import (
	"context"
	"trade_journal/internal/helper"
	"trade_journal/internal/models"
	strategy "trade_journal/internal/modules/strategy/service"
	"trade_journal/pkg/db"
	"trade_journal/pkg/logger"
	"trade_journal/pkg/tracing"
)

const maxSymbolLen = 20

// Start creates a run for an active strategy and materializes one unchecked
// StepCheck per step, in checklist order.
func (e *Engine) Start(ctx context.Context, userID, strategyID int64, symbol string) (runID int64, err error) {
	span, ctx := tracing.StartSpan(ctx, "session.Start")
	defer tracing.Finish(span, &err)

	symbol = helper.NormSymbol(symbol)
	if helper.TooLong(symbol, maxSymbolLen) {
		return 0, models.Invalid("symbol", "at most 20 characters")
	}

	var stepsCount int
	err = e.tx.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		tree, err := strategy.LoadTree(ctxTx, tx, e.repo, strategyID)
		if err != nil {
			return err
		}
		if !tree.Strategy.IsActive {
			return models.ErrNotFound
		}

		run := &models.SessionRun{
			UserID:     userID,
			StrategyID: strategyID,
			StartedAt:  e.now(),
			Symbol:     symbol,
		}
		if err := e.repo.InsertSessionRun(ctxTx, tx, run); err != nil {
			return err
		}

		stepIDs := tree.StepIDs()
		if err := e.repo.InsertStepChecks(ctxTx, tx, run.ID, stepIDs); err != nil {
			return err
		}
		runID = run.ID
		stepsCount = len(stepIDs)
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info("[SESSION] user %d started run %d strategy=%d symbol=%q steps=%d",
		userID, runID, strategyID, symbol, stepsCount)
	return runID, nil
}
