package service

import (
	"context"
	"fmt"
	"trade_journal/internal/models"
	"trade_journal/pkg/db"
	"trade_journal/pkg/logger"
)

// CloneResult is the outcome for one source strategy.
type CloneResult struct {
	SourceID int64
	Clone    *models.Strategy
	Err      error
}

// Clone deep-copies each strategy in its own transaction. A failing strategy
// does not stop the others.
func (c *Catalog) Clone(ctx context.Context, ids []int64) []CloneResult {
	out := make([]CloneResult, 0, len(ids))
	for _, id := range ids {
		res := CloneResult{SourceID: id}
		res.Err = c.tx.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
			clone, err := c.cloneOne(ctxTx, tx, id)
			res.Clone = clone
			return err
		})
		if res.Err != nil {
			res.Clone = nil
			logger.Error("[STRATEGY] clone %d failed: %v", id, res.Err)
		} else {
			logger.Info("[STRATEGY] cloned %d -> %d %q", id, res.Clone.ID, res.Clone.Name)
		}
		out = append(out, res)
	}
	return out
}

func (c *Catalog) cloneOne(ctx context.Context, tx db.Transaction, id int64) (*models.Strategy, error) {
	src, err := LoadTree(ctx, tx, c.repo, id)
	if err != nil {
		return nil, err
	}

	name, err := c.nextCopyName(ctx, tx, src.Strategy.Name)
	if err != nil {
		return nil, err
	}

	clone := &models.Strategy{
		Name:        name,
		Description: src.Strategy.Description,
		IsActive:    src.Strategy.IsActive,
	}
	if err := c.repo.InsertStrategy(ctx, tx, clone); err != nil {
		return nil, err
	}

	for _, secNode := range src.Sections {
		sec := models.Section{
			StrategyID: clone.ID,
			Name:       secNode.Section.Name,
			Order:      secNode.Section.Order,
		}
		if err := c.repo.InsertSection(ctx, tx, &sec); err != nil {
			return nil, err
		}

		for _, stepNode := range secNode.Steps {
			step := models.Step{
				SectionID:   sec.ID,
				Title:       stepNode.Step.Title,
				Description: stepNode.Step.Description,
				Order:       stepNode.Step.Order,
				Required:    stepNode.Step.Required,
			}
			if err := c.repo.InsertStep(ctx, tx, &step); err != nil {
				return nil, err
			}

			for _, srcImage := range stepNode.Images {
				im := models.StepImage{
					StepID:  step.ID,
					Image:   srcImage.Image,
					Caption: srcImage.Caption,
					Order:   srcImage.Order,
				}
				if err := c.repo.InsertStepImage(ctx, tx, &im); err != nil {
					return nil, err
				}
			}
		}
	}
	return clone, nil
}

// nextCopyName: "X (Copy)", then "X (Copy 2)", "X (Copy 3)", ...
func (c *Catalog) nextCopyName(ctx context.Context, tx db.Transaction, base string) (string, error) {
	candidate := fmt.Sprintf("%s (Copy)", base)
	for index := 2; ; index++ {
		exists, err := c.repo.StrategyNameExists(ctx, tx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s (Copy %d)", base, index)
	}
}
