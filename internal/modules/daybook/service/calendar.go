package service

import (
	"context"
	"time"
	"trade_journal/internal/helper"
	"trade_journal/internal/models"
	"trade_journal/pkg/db"
)

type CalendarDay struct {
	Date       time.Time
	InMonth    bool
	HasJournal bool
	Today      bool
}

type YearMonth struct {
	Year  int
	Month int
}

// Month is a Sunday-first grid of full weeks around one month.
type Month struct {
	YearMonth
	Name  string
	Weeks [][]CalendarDay
	Prev  YearMonth
	Next  YearMonth
}

// MonthGrid returns the dates of the full Sunday-first weeks covering the month.
func MonthGrid(year int, month time.Month) [][]time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	next := first.AddDate(0, 1, 0)

	var weeks [][]time.Time
	for d := start; d.Before(next); {
		week := make([]time.Time, 7)
		for i := range week {
			week[i] = d
			d = d.AddDate(0, 0, 1)
		}
		weeks = append(weeks, week)
	}
	return weeks
}

func (m YearMonth) prev() YearMonth {
	if m.Month == 1 {
		return YearMonth{Year: m.Year - 1, Month: 12}
	}
	return YearMonth{Year: m.Year, Month: m.Month - 1}
}

func (m YearMonth) next() YearMonth {
	if m.Month == 12 {
		return YearMonth{Year: m.Year + 1, Month: 1}
	}
	return YearMonth{Year: m.Year, Month: m.Month + 1}
}

// Calendar builds the month view; year/month of 0 mean the current month.
func (b *Book) Calendar(ctx context.Context, userID int64, year, month int) (out *Month, err error) {
	today := helper.DateOf(b.now())
	if year == 0 {
		year = today.Year()
	}
	if month == 0 {
		month = int(today.Month())
	}
	first, ok := helper.Date(year, month, 1)
	if !ok || year < 2 || year > 9998 {
		return nil, models.Invalid("month", "invalid year or month")
	}

	var dates []time.Time
	err = b.tx.RunReplica(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		dates, err = b.repo.ListJournalDates(ctxTx, tx, userID, first, first.AddDate(0, 1, 0))
		return err
	})
	if err != nil {
		return nil, err
	}
	has := make(map[time.Time]bool, len(dates))
	for _, d := range dates {
		has[helper.DateOf(d)] = true
	}

	ym := YearMonth{Year: year, Month: month}
	out = &Month{
		YearMonth: ym,
		Name:      first.Month().String(),
		Prev:      ym.prev(),
		Next:      ym.next(),
	}
	for _, week := range MonthGrid(year, first.Month()) {
		days := make([]CalendarDay, 0, len(week))
		for _, d := range week {
			days = append(days, CalendarDay{
				Date:       d,
				InMonth:    d.Month() == first.Month(),
				HasJournal: has[d],
				Today:      d.Equal(today),
			})
		}
		out.Weeks = append(out.Weeks, days)
	}
	return out, nil
}
