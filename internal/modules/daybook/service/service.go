package service

import (
	"context"
	"time"
	"trade_journal/internal/models"
	"trade_journal/pkg/db"
)

type Repository interface {
	GetOrCreateDayJournal(ctx context.Context, tx db.Transaction, userID int64, date time.Time) (*models.DayJournal, error)
	UpdateDayJournal(ctx context.Context, tx db.Transaction, j *models.DayJournal) error
	ListJournalDates(ctx context.Context, tx db.Transaction, userID int64, from, to time.Time) ([]time.Time, error)

	ListSlotItems(ctx context.Context, tx db.Transaction, journalID int64) ([]models.JournalSlotItem, error)
	DeleteSlotItems(ctx context.Context, tx db.Transaction, journalID int64) error
	InsertSlotItem(ctx context.Context, tx db.Transaction, it *models.JournalSlotItem) error

	ListActiveConcepts(ctx context.Context, tx db.Transaction) ([]models.Concept, error)
	ActiveConceptIDs(ctx context.Context, tx db.Transaction, ids []int64) (map[int64]bool, error)
}

// Book is the per-user day journal: free-text fields, concept slots and the month calendar.
type Book struct {
	tx   db.TxManager
	repo Repository
	now  func() time.Time
}

func NewBook(tx db.TxManager, repo Repository) *Book {
	return &Book{tx: tx, repo: repo, now: time.Now}
}

// WithClock подменяет часы (тесты).
func (b *Book) WithClock(now func() time.Time) *Book {
	b.now = now
	return b
}
