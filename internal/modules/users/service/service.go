package service

import (
	"context"
	"strings"
	"trade_journal/internal/helper"
	"trade_journal/internal/models"
	"trade_journal/pkg/db"
	"trade_journal/pkg/logger"
)

type Repository interface {
	CreateUser(ctx context.Context, tx db.Transaction, username string) (*models.User, error)
	GetUser(ctx context.Context, tx db.Transaction, id int64) (*models.User, error)
}

type Directory struct {
	tx   db.TxManager
	repo Repository
}

func NewDirectory(tx db.TxManager, repo Repository) *Directory {
	return &Directory{tx: tx, repo: repo}
}

func (d *Directory) Create(ctx context.Context, username string) (u *models.User, err error) {
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		return nil, models.Invalid("username", "required")
	case helper.TooLong(username, 150):
		return nil, models.Invalid("username", "at most 150 characters")
	}

	err = d.tx.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		u, err = d.repo.CreateUser(ctxTx, tx, username)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Info("[USERS] created %q id=%d", u.Username, u.ID)
	return u, nil
}

func (d *Directory) Get(ctx context.Context, id int64) (u *models.User, err error) {
	err = d.tx.RunReplica(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		u, err = d.repo.GetUser(ctxTx, tx, id)
		return err
	})
	return u, err
}
