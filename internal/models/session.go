package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SessionRun is one execution of a strategy checklist.
type SessionRun struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	StrategyID int64      `json:"strategy_id"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	Symbol     string     `json:"symbol"`
	DayNotes   string     `json:"day_notes"`
	TradeTaken bool       `json:"trade_taken"`
	Completed  bool       `json:"completed"`

	StrategyName string `json:"strategy_name,omitempty"` // read-only, joined
}

// StepCheck is the state of one step inside one run.
type StepCheck struct {
	ID           int64      `json:"id"`
	SessionRunID int64      `json:"session_run_id"`
	StepID       int64      `json:"step_id"`
	Checked      bool       `json:"checked"`
	CheckedAt    *time.Time `json:"checked_at,omitempty"`
	Notes        string     `json:"notes"`
}

type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

func (d Direction) Valid() bool {
	return d == DirectionLong || d == DirectionShort
}

// Trade is the optional outcome of a run; one per run at most.
type Trade struct {
	ID           int64           `json:"id"`
	SessionRunID int64           `json:"session_run_id"`
	Direction    Direction       `json:"direction"`
	EntryTime    time.Time       `json:"entry_time"`
	Stop         decimal.Decimal `json:"stop"`
	Target       decimal.Decimal `json:"target"`
	ResultR      decimal.Decimal `json:"result_r"`
	Notes        string          `json:"notes"`
}
