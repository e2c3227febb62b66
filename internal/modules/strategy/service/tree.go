package service

import (
	"context"
	"sort"
	"trade_journal/internal/models"
	"trade_journal/pkg/db"
)

// TreeReader is the read part of the repository, shared with the session engine.
type TreeReader interface {
	GetStrategy(ctx context.Context, tx db.Transaction, id int64) (*models.Strategy, error)
	ListSections(ctx context.Context, tx db.Transaction, strategyID int64) ([]models.Section, error)
	ListSteps(ctx context.Context, tx db.Transaction, strategyID int64) ([]models.Step, error)
	ListStepImages(ctx context.Context, tx db.Transaction, strategyID int64) ([]models.StepImage, error)
}

// LoadTree reads the strategy and its children inside an existing transaction.
func LoadTree(ctx context.Context, tx db.Transaction, r TreeReader, strategyID int64) (*models.StrategyTree, error) {
	s, err := r.GetStrategy(ctx, tx, strategyID)
	if err != nil {
		return nil, err
	}
	sections, err := r.ListSections(ctx, tx, strategyID)
	if err != nil {
		return nil, err
	}
	steps, err := r.ListSteps(ctx, tx, strategyID)
	if err != nil {
		return nil, err
	}
	images, err := r.ListStepImages(ctx, tx, strategyID)
	if err != nil {
		return nil, err
	}
	return BuildTree(*s, sections, steps, images), nil
}

// BuildTree nests flat rows into a tree. Every level is ordered by (order, id),
// regardless of the order the rows came in. Rows pointing to an unknown parent are dropped.
func BuildTree(s models.Strategy, sections []models.Section, steps []models.Step, images []models.StepImage) *models.StrategyTree {
	sections = append([]models.Section(nil), sections...)
	sort.SliceStable(sections, func(i, j int) bool {
		return byOrderThenID(sections[i].Order, sections[i].ID, sections[j].Order, sections[j].ID)
	})

	steps = append([]models.Step(nil), steps...)
	sort.SliceStable(steps, func(i, j int) bool {
		return byOrderThenID(steps[i].Order, steps[i].ID, steps[j].Order, steps[j].ID)
	})

	images = append([]models.StepImage(nil), images...)
	sort.SliceStable(images, func(i, j int) bool {
		return byOrderThenID(images[i].Order, images[i].ID, images[j].Order, images[j].ID)
	})

	imagesByStep := make(map[int64][]models.StepImage)
	for _, im := range images {
		imagesByStep[im.StepID] = append(imagesByStep[im.StepID], im)
	}

	stepsBySection := make(map[int64][]models.StepNode)
	for _, st := range steps {
		stepsBySection[st.SectionID] = append(stepsBySection[st.SectionID], models.StepNode{
			Step:   st,
			Images: imagesByStep[st.ID],
		})
	}

	tree := &models.StrategyTree{Strategy: s, Sections: make([]models.SectionNode, 0, len(sections))}
	for _, sec := range sections {
		if sec.StrategyID != 0 && sec.StrategyID != s.ID {
			continue
		}
		tree.Sections = append(tree.Sections, models.SectionNode{
			Section: sec,
			Steps:   stepsBySection[sec.ID],
		})
	}
	return tree
}

func byOrderThenID(oi int, idi int64, oj int, idj int64) bool {
	if oi != oj {
		return oi < oj
	}
	return idi < idj
}
