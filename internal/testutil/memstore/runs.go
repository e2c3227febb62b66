package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"trade_journal/internal/models"
	"trade_journal/pkg/db"
)

func (s *Store) InsertSessionRun(_ context.Context, _ db.Transaction, run *models.SessionRun) error {
	if err := s.write("InsertSessionRun"); err != nil {
		return err
	}
	if _, ok := s.d.strategies[run.StrategyID]; !ok {
		return fmt.Errorf("memstore: strategy %d does not exist", run.StrategyID)
	}
	run.ID = s.d.nextID()
	stored := *run
	stored.StrategyName = ""
	s.d.runs[run.ID] = stored
	return nil
}

func (s *Store) GetSessionRun(_ context.Context, _ db.Transaction, userID, runID int64) (*models.SessionRun, error) {
	run, ok := s.d.runs[runID]
	if !ok || run.UserID != userID {
		return nil, models.ErrNotFound
	}
	run.StrategyName = s.d.strategies[run.StrategyID].Name
	return &run, nil
}

func (s *Store) ListRecentSessionRuns(_ context.Context, _ db.Transaction, userID int64, limit int) ([]models.SessionRun, error) {
	var out []models.SessionRun
	for _, run := range s.d.runs {
		if run.UserID == userID {
			run.StrategyName = s.d.strategies[run.StrategyID].Name
			out = append(out, run)
		}
	}
	slices.SortFunc(out, func(a, b models.SessionRun) int {
		return cmp.Or(b.StartedAt.Compare(a.StartedAt), cmp.Compare(b.ID, a.ID))
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) UpdateSessionRun(_ context.Context, _ db.Transaction, run *models.SessionRun) error {
	if err := s.write("UpdateSessionRun"); err != nil {
		return err
	}
	old, ok := s.d.runs[run.ID]
	if !ok || old.UserID != run.UserID {
		return models.ErrNotFound
	}
	stored := *run
	stored.StrategyName = ""
	s.d.runs[run.ID] = stored
	return nil
}

func (s *Store) InsertStepChecks(_ context.Context, _ db.Transaction, runID int64, stepIDs []int64) error {
	if err := s.write("InsertStepChecks"); err != nil {
		return err
	}
	for _, stepID := range stepIDs {
		for _, c := range s.d.checks {
			if c.SessionRunID == runID && c.StepID == stepID {
				return fmt.Errorf("duplicate step in run %d: %w", runID, models.ErrConflict)
			}
		}
		c := models.StepCheck{ID: s.d.nextID(), SessionRunID: runID, StepID: stepID}
		s.d.checks[c.ID] = c
	}
	return nil
}

func (s *Store) ListStepChecks(_ context.Context, _ db.Transaction, runID int64) ([]models.StepCheck, error) {
	var out []models.StepCheck
	for _, c := range s.d.checks {
		if c.SessionRunID == runID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b models.StepCheck) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Store) UpdateStepCheck(_ context.Context, _ db.Transaction, c *models.StepCheck) error {
	if err := s.write("UpdateStepCheck"); err != nil {
		return err
	}
	old, ok := s.d.checks[c.ID]
	if !ok || old.SessionRunID != c.SessionRunID {
		return models.ErrNotFound
	}
	s.d.checks[c.ID] = *c
	return nil
}

func (s *Store) GetTrade(_ context.Context, _ db.Transaction, runID int64) (*models.Trade, error) {
	for _, t := range s.d.trades {
		if t.SessionRunID == runID {
			return &t, nil
		}
	}
	return nil, nil
}

func (s *Store) UpsertTrade(_ context.Context, _ db.Transaction, t *models.Trade) error {
	if err := s.write("UpsertTrade"); err != nil {
		return err
	}
	for id, old := range s.d.trades {
		if old.SessionRunID == t.SessionRunID {
			t.ID = id
			s.d.trades[id] = *t
			return nil
		}
	}
	t.ID = s.d.nextID()
	s.d.trades[t.ID] = *t
	return nil
}

func (s *Store) DeleteTrade(_ context.Context, _ db.Transaction, runID int64) error {
	if err := s.write("DeleteTrade"); err != nil {
		return err
	}
	for id, t := range s.d.trades {
		if t.SessionRunID == runID {
			delete(s.d.trades, id)
		}
	}
	return nil
}

// Trades counts trade rows of a run (test assertions).
func (s *Store) Trades(runID int64) int {
	n := 0
	for _, t := range s.d.trades {
		if t.SessionRunID == runID {
			n++
		}
	}
	return n
}
