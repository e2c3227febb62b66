package memstore

import (
	"context"
	"fmt"
	"time"
	"trade_journal/internal/models"
	"trade_journal/pkg/db"
)

func (s *Store) CreateUser(_ context.Context, _ db.Transaction, username string) (*models.User, error) {
	if err := s.write("CreateUser"); err != nil {
		return nil, err
	}
	for _, u := range s.d.users {
		if u.Username == username {
			return nil, fmt.Errorf("user %q already exists: %w", username, models.ErrConflict)
		}
	}
	u := models.User{ID: s.d.nextID(), Username: username, CreatedAt: time.Now()}
	s.d.users[u.ID] = u
	return &u, nil
}

func (s *Store) GetUser(_ context.Context, _ db.Transaction, id int64) (*models.User, error) {
	u, ok := s.d.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}
