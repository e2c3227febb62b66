package pg

import (
	"context"
	"fmt"
	"trade_journal/internal/models"
	strategypg "trade_journal/internal/modules/strategy/service/pg"
	"trade_journal/pkg/db"
)

// Runs implement db store for session runs, step checks and trades.
// Strategy tree reads are delegated to the strategy repository.
type Runs struct {
	*strategypg.Strategies
}

// NewRuns instance
func NewRuns(strategies *strategypg.Strategies) *Runs {
	return &Runs{Strategies: strategies}
}

const runColumns = `r.id, r.user_id, r.strategy_id, r.started_at, r.ended_at, r.symbol,
	r.day_notes, r.trade_taken, r.completed, s.name`

func scanRun(row interface{ Scan(dest ...any) error }, r *models.SessionRun) error {
	return row.Scan(&r.ID, &r.UserID, &r.StrategyID, &r.StartedAt, &r.EndedAt, &r.Symbol,
		&r.DayNotes, &r.TradeTaken, &r.Completed, &r.StrategyName)
}

func (r *Runs) InsertSessionRun(ctx context.Context, tx db.Transaction, run *models.SessionRun) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.InsertSessionRun: %w", err)
		}
	}()
	return tx.QueryRow(ctx, `
		INSERT INTO session_runs (user_id, strategy_id, started_at, symbol)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		run.UserID, run.StrategyID, run.StartedAt, run.Symbol,
	).Scan(&run.ID)
}

// GetSessionRun returns models.ErrNotFound for runs of other users.
func (r *Runs) GetSessionRun(ctx context.Context, tx db.Transaction, userID, runID int64) (run *models.SessionRun, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.GetSessionRun: %w", err)
		}
	}()
	run = &models.SessionRun{}
	err = scanRun(tx.QueryRow(ctx, `
		SELECT `+runColumns+`
		FROM session_runs r
		JOIN strategies s ON s.id = r.strategy_id
		WHERE r.id = $1 AND r.user_id = $2`, runID, userID), run)
	if db.IsNoRows(err) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (r *Runs) ListRecentSessionRuns(ctx context.Context, tx db.Transaction, userID int64, limit int) (out []models.SessionRun, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.ListRecentSessionRuns: %w", err)
		}
	}()
	rows, err := tx.Query(ctx, `
		SELECT `+runColumns+`
		FROM session_runs r
		JOIN strategies s ON s.id = r.strategy_id
		WHERE r.user_id = $1
		ORDER BY r.started_at DESC, r.id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var run models.SessionRun
		if err = scanRun(rows, &run); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (r *Runs) UpdateSessionRun(ctx context.Context, tx db.Transaction, run *models.SessionRun) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.UpdateSessionRun: %w", err)
		}
	}()
	tag, err := tx.Exec(ctx, `
		UPDATE session_runs
		SET ended_at = $3, symbol = $4, day_notes = $5, trade_taken = $6, completed = $7
		WHERE id = $1 AND user_id = $2`,
		run.ID, run.UserID, run.EndedAt, run.Symbol, run.DayNotes, run.TradeTaken, run.Completed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// InsertStepChecks creates unchecked rows keeping the order of stepIDs.
func (r *Runs) InsertStepChecks(ctx context.Context, tx db.Transaction, runID int64, stepIDs []int64) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.InsertStepChecks: %w", err)
		}
	}()
	if len(stepIDs) == 0 {
		return nil
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO step_checks (session_run_id, step_id, checked, notes)
		SELECT $1, s.step_id, FALSE, ''
		FROM unnest($2::bigint[]) WITH ORDINALITY AS s(step_id, pos)
		ORDER BY s.pos`, runID, stepIDs)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("duplicate step in run %d: %w", runID, models.ErrConflict)
	}
	return err
}

func (r *Runs) ListStepChecks(ctx context.Context, tx db.Transaction, runID int64) (out []models.StepCheck, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.ListStepChecks: %w", err)
		}
	}()
	rows, err := tx.Query(ctx, `
		SELECT id, session_run_id, step_id, checked, checked_at, notes
		FROM step_checks
		WHERE session_run_id = $1
		ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c models.StepCheck
		if err = rows.Scan(&c.ID, &c.SessionRunID, &c.StepID, &c.Checked, &c.CheckedAt, &c.Notes); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Runs) UpdateStepCheck(ctx context.Context, tx db.Transaction, c *models.StepCheck) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.UpdateStepCheck: %w", err)
		}
	}()
	tag, err := tx.Exec(ctx, `
		UPDATE step_checks
		SET checked = $3, checked_at = $4, notes = $5
		WHERE id = $1 AND session_run_id = $2`,
		c.ID, c.SessionRunID, c.Checked, c.CheckedAt, c.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetTrade returns nil, nil when the run has no trade.
func (r *Runs) GetTrade(ctx context.Context, tx db.Transaction, runID int64) (t *models.Trade, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.GetTrade: %w", err)
		}
	}()
	t = &models.Trade{}
	err = tx.QueryRow(ctx, `
		SELECT id, session_run_id, direction, entry_time, stop, target, result_r, notes
		FROM trades
		WHERE session_run_id = $1`, runID,
	).Scan(&t.ID, &t.SessionRunID, &t.Direction, &t.EntryTime, &t.Stop, &t.Target, &t.ResultR, &t.Notes)
	if db.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// UpsertTrade keeps at most one trade per run.
func (r *Runs) UpsertTrade(ctx context.Context, tx db.Transaction, t *models.Trade) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.UpsertTrade: %w", err)
		}
	}()
	return tx.QueryRow(ctx, `
		INSERT INTO trades (session_run_id, direction, entry_time, stop, target, result_r, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_run_id) DO UPDATE
		SET direction = EXCLUDED.direction,
		    entry_time = EXCLUDED.entry_time,
		    stop = EXCLUDED.stop,
		    target = EXCLUDED.target,
		    result_r = EXCLUDED.result_r,
		    notes = EXCLUDED.notes
		RETURNING id`,
		t.SessionRunID, string(t.Direction), t.EntryTime, t.Stop, t.Target, t.ResultR, t.Notes,
	).Scan(&t.ID)
}

func (r *Runs) DeleteTrade(ctx context.Context, tx db.Transaction, runID int64) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.DeleteTrade: %w", err)
		}
	}()
	_, err = tx.Exec(ctx, `DELETE FROM trades WHERE session_run_id = $1`, runID)
	return err
}
