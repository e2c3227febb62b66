package service

import (
	"context"
	"trade_journal/internal/models"
	"trade_journal/pkg/db"
	"trade_journal/pkg/tracing"
)

type Repository interface {
	TreeReader

	ListActiveStrategies(ctx context.Context, tx db.Transaction) ([]models.Strategy, error)
	StrategyNameExists(ctx context.Context, tx db.Transaction, name string) (bool, error)
	InsertStrategy(ctx context.Context, tx db.Transaction, s *models.Strategy) error
	InsertSection(ctx context.Context, tx db.Transaction, s *models.Section) error
	InsertStep(ctx context.Context, tx db.Transaction, s *models.Step) error
	InsertStepImage(ctx context.Context, tx db.Transaction, im *models.StepImage) error
}

// Catalog serves the strategy definition tree: browsing, import and cloning.
type Catalog struct {
	tx   db.TxManager
	repo Repository
}

func NewCatalog(tx db.TxManager, repo Repository) *Catalog {
	return &Catalog{tx: tx, repo: repo}
}

// ListActive returns active strategies by name, without children.
func (c *Catalog) ListActive(ctx context.Context) (out []models.Strategy, err error) {
	err = c.tx.RunReplica(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		out, err = c.repo.ListActiveStrategies(ctxTx, tx)
		return err
	})
	return out, err
}

// ActiveTrees returns every active strategy with its full section/step/image tree.
func (c *Catalog) ActiveTrees(ctx context.Context) (out []models.StrategyTree, err error) {
	span, ctx := tracing.StartSpan(ctx, "strategy.ActiveTrees")
	defer tracing.Finish(span, &err)

	err = c.tx.RunReplica(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		list, err := c.repo.ListActiveStrategies(ctxTx, tx)
		if err != nil {
			return err
		}
		out = make([]models.StrategyTree, 0, len(list))
		for _, s := range list {
			tree, err := LoadTree(ctxTx, tx, c.repo, s.ID)
			if err != nil {
				return err
			}
			out = append(out, *tree)
		}
		return nil
	})
	return out, err
}

// Tree returns one strategy tree (active or not).
func (c *Catalog) Tree(ctx context.Context, strategyID int64) (out *models.StrategyTree, err error) {
	err = c.tx.RunReplica(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		out, err = LoadTree(ctxTx, tx, c.repo, strategyID)
		return err
	})
	return out, err
}
