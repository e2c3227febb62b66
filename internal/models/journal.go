package models

import "time"

type Timeframe string

const (
	TimeframeDaily Timeframe = "D"
	Timeframe4H    Timeframe = "4H"
	Timeframe1H    Timeframe = "1H"
	Timeframe15M   Timeframe = "15M"
	Timeframe5M    Timeframe = "5M"
	Timeframe1M    Timeframe = "1M"
)

// Timeframes in display order.
var Timeframes = []Timeframe{
	TimeframeDaily,
	Timeframe4H,
	Timeframe1H,
	Timeframe15M,
	Timeframe5M,
	Timeframe1M,
}

func ParseTimeframe(raw string) (Timeframe, bool) {
	for _, tf := range Timeframes {
		if string(tf) == raw {
			return tf, true
		}
	}
	return "", false
}

func (t Timeframe) Label() string {
	switch t {
	case TimeframeDaily:
		return "Daily"
	case Timeframe1M:
		return "1M (Optional)"
	default:
		return string(t)
	}
}

const DefaultSessionLabel = "NY"

// DayJournal is one journal per user per calendar date.
type DayJournal struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Date          time.Time `json:"date"`
	Session       string    `json:"session"`
	Symbol        string    `json:"symbol"`
	TradeTaken    bool      `json:"trade_taken"`
	WhyTaken      string    `json:"why_taken"`
	WhatIDidWell  string    `json:"what_i_did_well"`
	WhatToImprove string    `json:"what_to_improve"`
	GeneralNotes  string    `json:"general_notes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// JournalSlotItem is a concept placed into a timeframe slot of a day journal.
type JournalSlotItem struct {
	ID          int64     `json:"id"`
	JournalID   int64     `json:"journal_id"`
	Timeframe   Timeframe `json:"timeframe"`
	ConceptID   int64     `json:"concept_id"`
	ConceptName string    `json:"concept_name,omitempty"` // read-only, joined
	Order       int       `json:"order"`
	Note        string    `json:"note"`
}
