package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"trade_journal/internal/models"
	"trade_journal/internal/notify"
	"trade_journal/pkg/db"
	"trade_journal/pkg/logger"
	"trade_journal/pkg/tracing"

	"github.com/shopspring/decimal"
)

// TradeForm holds the raw trade sub-form values.
type TradeForm struct {
	Direction string
	EntryTime string
	Stop      string
	Target    string
	ResultR   string
	Notes     string
}

type ReviewInput struct {
	TradeTaken bool
	DayNotes   string
	Trade      TradeForm
}

var entryTimeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	time.RFC3339,
}

// ParseTrade validates the trade sub-form. Every field except notes is required.
func ParseTrade(f TradeForm) (*models.Trade, error) {
	v := models.NewValidationError()
	t := &models.Trade{Notes: strings.TrimSpace(f.Notes)}

	t.Direction = models.Direction(strings.ToUpper(strings.TrimSpace(f.Direction)))
	switch {
	case t.Direction == "":
		v.Add("direction", "required")
	case !t.Direction.Valid():
		v.Add("direction", "must be LONG or SHORT")
	}

	if raw := strings.TrimSpace(f.EntryTime); raw == "" {
		v.Add("entry_time", "required")
	} else if at, ok := parseEntryTime(raw); ok {
		t.EntryTime = at
	} else {
		v.Add("entry_time", "enter a valid date/time")
	}

	t.Stop = parseNumeric(v, "stop", f.Stop, 12, 4)
	t.Target = parseNumeric(v, "target", f.Target, 12, 4)
	t.ResultR = parseNumeric(v, "result_r", f.ResultR, 8, 2)

	if err := v.OrNil(); err != nil {
		return nil, err
	}
	return t, nil
}

func parseEntryTime(raw string) (time.Time, bool) {
	for _, layout := range entryTimeLayouts {
		if at, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return at, true
		}
	}
	return time.Time{}, false
}

func parseNumeric(v *models.ValidationError, field, raw string, precision, scale int32) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		v.Add(field, "required")
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		v.Add(field, "enter a number")
		return decimal.Zero
	}
	if !fitsNumeric(d, precision, scale) {
		v.Add(field, "too many digits")
		return decimal.Zero
	}
	return d
}

// fitsNumeric reports whether d is storable as NUMERIC(precision, scale).
func fitsNumeric(d decimal.Decimal, precision, scale int32) bool {
	if !d.Equal(d.Round(scale)) {
		return false
	}
	return d.Abs().LessThan(decimal.New(1, precision-scale))
}

// Review finalizes the run. With trade_taken the trade must validate first;
// otherwise an existing trade is removed. Completion is never undone.
func (e *Engine) Review(ctx context.Context, userID, runID int64, in ReviewInput) (err error) {
	span, ctx := tracing.StartSpan(ctx, "session.Review")
	defer tracing.Finish(span, &err)

	var trade *models.Trade
	if in.TradeTaken {
		if trade, err = ParseTrade(in.Trade); err != nil {
			return err
		}
	}

	var (
		run            *models.SessionRun
		checked, total int
	)
	err = e.tx.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		r, err := e.repo.GetSessionRun(ctxTx, tx, userID, runID)
		if err != nil {
			return err
		}
		run = r

		run.Completed = true
		if run.EndedAt == nil {
			now := e.now()
			run.EndedAt = &now
		}
		run.DayNotes = in.DayNotes
		run.TradeTaken = in.TradeTaken
		if err := e.repo.UpdateSessionRun(ctxTx, tx, run); err != nil {
			return err
		}

		if trade != nil {
			trade.SessionRunID = run.ID
			if err := e.repo.UpsertTrade(ctxTx, tx, trade); err != nil {
				return err
			}
		} else if err := e.repo.DeleteTrade(ctxTx, tx, run.ID); err != nil {
			return err
		}

		checks, err := e.repo.ListStepChecks(ctxTx, tx, run.ID)
		if err != nil {
			return err
		}
		checked, total = countChecked(checks), len(checks)
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("[SESSION] run %d finalized: trade_taken=%v checked=%d/%d", runID, run.TradeTaken, checked, total)

	if e.notifier != nil {
		if nErr := e.notifier.Send(ctx, notify.RunSummary(run, checked, total, trade)); nErr != nil {
			logger.Warn("[SESSION] run %d notify failed: %v", runID, nErr)
		}
	}
	return nil
}

// IsValidation is a helper for handlers re-rendering the review form.
func IsValidation(err error) (*models.ValidationError, bool) {
	var v *models.ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
