package service

import (
	"context"
	"trade_journal/internal/models"
	strategy "trade_journal/internal/modules/strategy/service"
	"trade_journal/pkg/db"
)

type StepView struct {
	Step   models.Step
	Images []models.StepImage
	// Check is nil for steps added to the strategy after the run started.
	Check *models.StepCheck
}

type SectionView struct {
	Section models.Section
	Steps   []StepView
}

// RunView is everything the checklist and review pages show.
type RunView struct {
	Run      models.SessionRun
	Strategy models.Strategy
	Sections []SectionView
	Trade    *models.Trade
	Total    int
	Checked  int
}

// Percent of checked steps, 0..100.
func (v *RunView) Percent() int {
	if v.Total == 0 {
		return 0
	}
	return v.Checked * 100 / v.Total
}

// Detail assembles the ordered checklist of a run. Pure read.
func (e *Engine) Detail(ctx context.Context, userID, runID int64) (out *RunView, err error) {
	err = e.tx.RunReplica(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		run, err := e.repo.GetSessionRun(ctxTx, tx, userID, runID)
		if err != nil {
			return err
		}
		tree, err := strategy.LoadTree(ctxTx, tx, e.repo, run.StrategyID)
		if err != nil {
			return err
		}
		checks, err := e.repo.ListStepChecks(ctxTx, tx, run.ID)
		if err != nil {
			return err
		}
		trade, err := e.repo.GetTrade(ctxTx, tx, run.ID)
		if err != nil {
			return err
		}

		if run.StrategyName == "" {
			run.StrategyName = tree.Strategy.Name
		}
		out = buildRunView(run, tree, checks)
		out.Trade = trade
		return nil
	})
	return out, err
}

func buildRunView(run *models.SessionRun, tree *models.StrategyTree, checks []models.StepCheck) *RunView {
	byStep := make(map[int64]*models.StepCheck, len(checks))
	for i := range checks {
		byStep[checks[i].StepID] = &checks[i]
	}

	view := &RunView{
		Run:      *run,
		Strategy: tree.Strategy,
		Sections: make([]SectionView, 0, len(tree.Sections)),
		Total:    len(checks),
		Checked:  countChecked(checks),
	}
	for _, sec := range tree.Sections {
		sv := SectionView{Section: sec.Section, Steps: make([]StepView, 0, len(sec.Steps))}
		for _, st := range sec.Steps {
			sv.Steps = append(sv.Steps, StepView{
				Step:   st.Step,
				Images: st.Images,
				Check:  byStep[st.Step.ID],
			})
		}
		view.Sections = append(view.Sections, sv)
	}
	return view
}

func countChecked(checks []models.StepCheck) int {
	n := 0
	for _, c := range checks {
		if c.Checked {
			n++
		}
	}
	return n
}

// Recent returns the caller's latest runs, newest first.
func (e *Engine) Recent(ctx context.Context, userID int64, limit int) (out []models.SessionRun, err error) {
	if limit <= 0 {
		limit = 10
	}
	err = e.tx.RunReplica(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		out, err = e.repo.ListRecentSessionRuns(ctxTx, tx, userID, limit)
		return err
	})
	return out, err
}
