package service

import (
	"context"
	"time"
	"trade_journal/internal/helper"
	"trade_journal/internal/models"
	"trade_journal/pkg/db"
	"trade_journal/pkg/logger"
	"trade_journal/pkg/tracing"
)

const maxCheckNotesLen = 300

// CheckInput is the submitted state of one step.
type CheckInput struct {
	Checked bool
	Notes   string
}

// UpdateChecklist applies one checklist submission atomically. Steps missing
// from input are stored as unchecked with empty notes.
func (e *Engine) UpdateChecklist(ctx context.Context, userID, runID int64, input map[int64]CheckInput) (err error) {
	span, ctx := tracing.StartSpan(ctx, "session.UpdateChecklist")
	defer tracing.Finish(span, &err)

	var changed, checked int
	err = e.tx.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		if _, err := e.repo.GetSessionRun(ctxTx, tx, userID, runID); err != nil {
			return err
		}
		checks, err := e.repo.ListStepChecks(ctxTx, tx, runID)
		if err != nil {
			return err
		}

		now := e.now()
		changed, checked = 0, 0
		for i := range checks {
			c := checks[i]
			in := input[c.StepID]
			if !applyCheck(&c, in, now) {
				if c.Checked {
					checked++
				}
				continue
			}
			if err := e.repo.UpdateStepCheck(ctxTx, tx, &c); err != nil {
				return err
			}
			changed++
			if c.Checked {
				checked++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("[SESSION] run %d checklist saved: changed=%d checked=%d", runID, changed, checked)
	return nil
}

// applyCheck mutates c to the submitted state and reports whether anything changed.
// checked_at is stamped on unchecked->checked, cleared on ->unchecked, kept otherwise.
func applyCheck(c *models.StepCheck, in CheckInput, now time.Time) bool {
	notes := helper.Truncate(in.Notes, maxCheckNotesLen)
	changed := c.Notes != notes
	c.Notes = notes

	switch {
	case in.Checked && !c.Checked:
		at := now
		c.Checked = true
		c.CheckedAt = &at
		changed = true
	case !in.Checked && (c.Checked || c.CheckedAt != nil):
		c.Checked = false
		c.CheckedAt = nil
		changed = true
	case in.Checked && c.CheckedAt == nil:
		at := now
		c.CheckedAt = &at
		changed = true
	}
	return changed
}
