package service

import (
	"context"
	"strings"
	"time"
	"trade_journal/internal/helper"
	"trade_journal/internal/models"
	"trade_journal/pkg/db"
	"trade_journal/pkg/logger"
)

// DayForm is the editable part of a day journal.
type DayForm struct {
	Session       string
	Symbol        string
	TradeTaken    bool
	WhyTaken      string
	WhatIDidWell  string
	WhatToImprove string
	GeneralNotes  string
}

func FormOf(j *models.DayJournal) DayForm {
	return DayForm{
		Session:       j.Session,
		Symbol:        j.Symbol,
		TradeTaken:    j.TradeTaken,
		WhyTaken:      j.WhyTaken,
		WhatIDidWell:  j.WhatIDidWell,
		WhatToImprove: j.WhatToImprove,
		GeneralNotes:  j.GeneralNotes,
	}
}

func (f *DayForm) Validate() error {
	v := models.NewValidationError()
	f.Session = strings.TrimSpace(f.Session)
	switch {
	case f.Session == "":
		v.Add("session", "required")
	case helper.TooLong(f.Session, 40):
		v.Add("session", "at most 40 characters")
	}
	f.Symbol = strings.TrimSpace(f.Symbol)
	if helper.TooLong(f.Symbol, 20) {
		v.Add("symbol", "at most 20 characters")
	}
	return v.OrNil()
}

type SlotGroup struct {
	Timeframe models.Timeframe
	Label     string
	Items     []models.JournalSlotItem
}

type DayView struct {
	Date     time.Time
	Journal  models.DayJournal
	Concepts []models.Concept
	Slots    []SlotGroup
}

// Day opens (creating if needed) the journal of one date.
func (b *Book) Day(ctx context.Context, userID int64, date time.Time) (out *DayView, err error) {
	date = helper.DateOf(date)
	err = b.tx.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		j, err := b.repo.GetOrCreateDayJournal(ctxTx, tx, userID, date)
		if err != nil {
			return err
		}
		items, err := b.repo.ListSlotItems(ctxTx, tx, j.ID)
		if err != nil {
			return err
		}
		concepts, err := b.repo.ListActiveConcepts(ctxTx, tx)
		if err != nil {
			return err
		}
		out = &DayView{
			Date:     date,
			Journal:  *j,
			Concepts: concepts,
			Slots:    groupSlots(items),
		}
		return nil
	})
	return out, err
}

// groupSlots buckets items by timeframe in display order, each bucket by (order, id).
func groupSlots(items []models.JournalSlotItem) []SlotGroup {
	byTF := make(map[models.Timeframe][]models.JournalSlotItem, len(models.Timeframes))
	for _, it := range items {
		byTF[it.Timeframe] = append(byTF[it.Timeframe], it)
	}
	out := make([]SlotGroup, 0, len(models.Timeframes))
	for _, tf := range models.Timeframes {
		list := byTF[tf]
		sortSlotItems(list)
		out = append(out, SlotGroup{Timeframe: tf, Label: tf.Label(), Items: list})
	}
	return out
}

// UpdateDay saves the free-text fields of the day journal.
func (b *Book) UpdateDay(ctx context.Context, userID int64, date time.Time, form DayForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	date = helper.DateOf(date)
	err := b.tx.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		j, err := b.repo.GetOrCreateDayJournal(ctxTx, tx, userID, date)
		if err != nil {
			return err
		}
		j.Session = form.Session
		j.Symbol = form.Symbol
		j.TradeTaken = form.TradeTaken
		j.WhyTaken = form.WhyTaken
		j.WhatIDidWell = form.WhatIDidWell
		j.WhatToImprove = form.WhatToImprove
		j.GeneralNotes = form.GeneralNotes
		return b.repo.UpdateDayJournal(ctxTx, tx, j)
	})
	if err != nil {
		return err
	}
	logger.Info("[DAYBOOK] user %d saved day %s", userID, date.Format(time.DateOnly))
	return nil
}
