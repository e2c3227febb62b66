package pg

import (
	"context"
	"fmt"
	"time"
	"trade_journal/internal/models"
	"trade_journal/pkg/db"
)

// Journals implement db store for day journals and their slot items.
type Journals struct{}

// NewJournals instance
func NewJournals() *Journals {
	return &Journals{}
}

// GetOrCreateDayJournal relies on UNIQUE (user_id, date): concurrent callers get the same row.
func (r *Journals) GetOrCreateDayJournal(ctx context.Context, tx db.Transaction, userID int64, date time.Time) (j *models.DayJournal, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.GetOrCreateDayJournal: %w", err)
		}
	}()
	_, err = tx.Exec(ctx, `
		INSERT INTO day_journals (user_id, date, session)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, date) DO NOTHING`, userID, date, models.DefaultSessionLabel)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}

	j = &models.DayJournal{}
	err = tx.QueryRow(ctx, `
		SELECT id, user_id, date, session, symbol, trade_taken, why_taken,
		       what_i_did_well, what_to_improve, general_notes, created_at, updated_at
		FROM day_journals
		WHERE user_id = $1 AND date = $2`, userID, date,
	).Scan(&j.ID, &j.UserID, &j.Date, &j.Session, &j.Symbol, &j.TradeTaken, &j.WhyTaken,
		&j.WhatIDidWell, &j.WhatToImprove, &j.GeneralNotes, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (r *Journals) UpdateDayJournal(ctx context.Context, tx db.Transaction, j *models.DayJournal) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.UpdateDayJournal: %w", err)
		}
	}()
	err = tx.QueryRow(ctx, `
		UPDATE day_journals
		SET session = $3, symbol = $4, trade_taken = $5, why_taken = $6,
		    what_i_did_well = $7, what_to_improve = $8, general_notes = $9, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at`,
		j.ID, j.UserID, j.Session, j.Symbol, j.TradeTaken, j.WhyTaken,
		j.WhatIDidWell, j.WhatToImprove, j.GeneralNotes,
	).Scan(&j.UpdatedAt)
	if db.IsNoRows(err) {
		return models.ErrNotFound
	}
	return err
}

// ListJournalDates returns journal dates in [from, to).
func (r *Journals) ListJournalDates(ctx context.Context, tx db.Transaction, userID int64, from, to time.Time) (out []time.Time, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.ListJournalDates: %w", err)
		}
	}()
	rows, err := tx.Query(ctx, `
		SELECT date
		FROM day_journals
		WHERE user_id = $1 AND date >= $2 AND date < $3
		ORDER BY date`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var d time.Time
		if err = rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Journals) ListSlotItems(ctx context.Context, tx db.Transaction, journalID int64) (out []models.JournalSlotItem, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.ListSlotItems: %w", err)
		}
	}()
	rows, err := tx.Query(ctx, `
		SELECT it.id, it.journal_id, it.timeframe, it.concept_id, c.name, it."order", it.note
		FROM journal_slot_items it
		JOIN concepts c ON c.id = it.concept_id
		WHERE it.journal_id = $1
		ORDER BY it.timeframe, it."order", it.id`, journalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it models.JournalSlotItem
		if err = rows.Scan(&it.ID, &it.JournalID, &it.Timeframe, &it.ConceptID, &it.ConceptName, &it.Order, &it.Note); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Journals) DeleteSlotItems(ctx context.Context, tx db.Transaction, journalID int64) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.DeleteSlotItems: %w", err)
		}
	}()
	_, err = tx.Exec(ctx, `DELETE FROM journal_slot_items WHERE journal_id = $1`, journalID)
	return err
}

func (r *Journals) InsertSlotItem(ctx context.Context, tx db.Transaction, it *models.JournalSlotItem) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.InsertSlotItem: %w", err)
		}
	}()
	err = tx.QueryRow(ctx, `
		INSERT INTO journal_slot_items (journal_id, timeframe, concept_id, "order", note)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		it.JournalID, string(it.Timeframe), it.ConceptID, it.Order, it.Note,
	).Scan(&it.ID)
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("concept %d: %w", it.ConceptID, models.ErrNotFound)
	}
	return err
}
