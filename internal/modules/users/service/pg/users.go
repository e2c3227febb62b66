package pg

import (
	"context"
	"fmt"
	"trade_journal/internal/models"
	"trade_journal/pkg/db"
)

// Users implement db store
type Users struct{}

// NewUsers instance
func NewUsers() *Users {
	return &Users{}
}

func (r *Users) CreateUser(ctx context.Context, tx db.Transaction, username string) (u *models.User, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.CreateUser: %w", err)
		}
	}()
	u = &models.User{Username: username}
	err = tx.QueryRow(ctx, `
		INSERT INTO users (username)
		VALUES ($1)
		RETURNING id, created_at`, username,
	).Scan(&u.ID, &u.CreatedAt)
	if db.IsUniqueViolation(err) {
		return nil, fmt.Errorf("user %q already exists: %w", username, models.ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Users) GetUser(ctx context.Context, tx db.Transaction, id int64) (u *models.User, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.GetUser: %w", err)
		}
	}()
	u = &models.User{}
	err = tx.QueryRow(ctx, `SELECT id, username, created_at FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Username, &u.CreatedAt)
	if db.IsNoRows(err) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
