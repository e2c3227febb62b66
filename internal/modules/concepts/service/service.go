package service

import (
	"context"
	"trade_journal/internal/models"
	"trade_journal/pkg/db"
	"trade_journal/pkg/logger"
	"trade_journal/pkg/tracing"
)

type Repository interface {
	ListActiveConcepts(ctx context.Context, tx db.Transaction) ([]models.Concept, error)
	GetOrCreateConcept(ctx context.Context, tx db.Transaction, name string) (bool, error)
	DeleteConcept(ctx context.Context, tx db.Transaction, id int64) error
}

// Library is the read side of the concept list plus admin seeding.
type Library struct {
	tx   db.TxManager
	repo Repository
}

func NewLibrary(tx db.TxManager, repo Repository) *Library {
	return &Library{tx: tx, repo: repo}
}

// ListActive returns active concepts ordered by name.
func (l *Library) ListActive(ctx context.Context) (out []models.Concept, err error) {
	span, ctx := tracing.StartSpan(ctx, "concepts.ListActive")
	defer tracing.Finish(span, &err)

	err = l.tx.RunReplica(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		out, err = l.repo.ListActiveConcepts(ctxTx, tx)
		return err
	})
	return out, err
}

// Seed get-or-creates every name and reports how many were new.
func (l *Library) Seed(ctx context.Context, names []string) (created int, err error) {
	err = l.tx.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		created = 0
		for _, name := range names {
			ok, err := l.repo.GetOrCreateConcept(ctxTx, tx, name)
			if err != nil {
				return err
			}
			if ok {
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	logger.Info("[CONCEPTS] seeded %d of %d", created, len(names))
	return created, nil
}

// Delete fails with models.ErrConflict while slot items still reference the concept.
func (l *Library) Delete(ctx context.Context, id int64) error {
	return l.tx.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		return l.repo.DeleteConcept(ctxTx, tx, id)
	})
}
