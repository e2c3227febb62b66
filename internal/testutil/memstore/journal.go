package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"
	"trade_journal/internal/models"
	"trade_journal/pkg/db"
)

func (s *Store) GetOrCreateDayJournal(_ context.Context, _ db.Transaction, userID int64, date time.Time) (*models.DayJournal, error) {
	for _, j := range s.d.journals {
		if j.UserID == userID && j.Date.Equal(date) {
			return &j, nil
		}
	}
	if err := s.write("GetOrCreateDayJournal"); err != nil {
		return nil, err
	}
	j := models.DayJournal{
		ID:        s.d.nextID(),
		UserID:    userID,
		Date:      date,
		Session:   models.DefaultSessionLabel,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.d.journals[j.ID] = j
	return &j, nil
}

func (s *Store) UpdateDayJournal(_ context.Context, _ db.Transaction, j *models.DayJournal) error {
	if err := s.write("UpdateDayJournal"); err != nil {
		return err
	}
	old, ok := s.d.journals[j.ID]
	if !ok || old.UserID != j.UserID {
		return models.ErrNotFound
	}
	j.UpdatedAt = time.Now()
	s.d.journals[j.ID] = *j
	return nil
}

func (s *Store) ListJournalDates(_ context.Context, _ db.Transaction, userID int64, from, to time.Time) ([]time.Time, error) {
	var out []time.Time
	for _, j := range s.d.journals {
		if j.UserID == userID && !j.Date.Before(from) && j.Date.Before(to) {
			out = append(out, j.Date)
		}
	}
	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return out, nil
}

func (s *Store) ListSlotItems(_ context.Context, _ db.Transaction, journalID int64) ([]models.JournalSlotItem, error) {
	var out []models.JournalSlotItem
	for _, it := range s.d.slots {
		if it.JournalID == journalID {
			it.ConceptName = s.d.concepts[it.ConceptID].Name
			out = append(out, it)
		}
	}
	slices.SortFunc(out, func(a, b models.JournalSlotItem) int {
		return cmp.Or(
			cmp.Compare(a.Timeframe, b.Timeframe),
			cmp.Compare(a.Order, b.Order),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out, nil
}

func (s *Store) DeleteSlotItems(_ context.Context, _ db.Transaction, journalID int64) error {
	if err := s.write("DeleteSlotItems"); err != nil {
		return err
	}
	for id, it := range s.d.slots {
		if it.JournalID == journalID {
			delete(s.d.slots, id)
		}
	}
	return nil
}

func (s *Store) InsertSlotItem(_ context.Context, _ db.Transaction, it *models.JournalSlotItem) error {
	if err := s.write("InsertSlotItem"); err != nil {
		return err
	}
	if _, ok := s.d.concepts[it.ConceptID]; !ok {
		return fmt.Errorf("concept %d: %w", it.ConceptID, models.ErrNotFound)
	}
	if _, ok := s.d.journals[it.JournalID]; !ok {
		return fmt.Errorf("memstore: journal %d does not exist", it.JournalID)
	}
	it.ID = s.d.nextID()
	stored := *it
	stored.ConceptName = ""
	s.d.slots[it.ID] = stored
	return nil
}

// Journals returns every journal of the user (test assertions).
func (s *Store) Journals(userID int64) []models.DayJournal {
	var out []models.DayJournal
	for _, j := range s.d.journals {
		if j.UserID == userID {
			out = append(out, j)
		}
	}
	return out
}

// SlotItems returns the journal's items ordered like ListSlotItems.
func (s *Store) SlotItems(journalID int64) []models.JournalSlotItem {
	out, _ := s.ListSlotItems(context.Background(), nil, journalID)
	return out
}
