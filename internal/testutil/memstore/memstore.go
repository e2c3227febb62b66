// Package memstore is an in-memory replacement of the postgres repositories.
// It implements db.TxManager: a failed unit of work restores the state it
// started from, and RunReplica rejects writes.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"trade_journal/internal/models"
	"trade_journal/pkg/db"
)

var ErrReadOnly = errors.New("memstore: write in read-only transaction")

type data struct {
	seq int64

	users      map[int64]models.User
	concepts   map[int64]models.Concept
	strategies map[int64]models.Strategy
	sections   map[int64]models.Section
	steps      map[int64]models.Step
	images     map[int64]models.StepImage
	journals   map[int64]models.DayJournal
	slots      map[int64]models.JournalSlotItem
	runs       map[int64]models.SessionRun
	checks     map[int64]models.StepCheck
	trades     map[int64]models.Trade
}

func newData() *data {
	return &data{
		users:      make(map[int64]models.User),
		concepts:   make(map[int64]models.Concept),
		strategies: make(map[int64]models.Strategy),
		sections:   make(map[int64]models.Section),
		steps:      make(map[int64]models.Step),
		images:     make(map[int64]models.StepImage),
		journals:   make(map[int64]models.DayJournal),
		slots:      make(map[int64]models.JournalSlotItem),
		runs:       make(map[int64]models.SessionRun),
		checks:     make(map[int64]models.StepCheck),
		trades:     make(map[int64]models.Trade),
	}
}

func (d *data) clone() *data {
	return &data{
		seq:        d.seq,
		users:      maps.Clone(d.users),
		concepts:   maps.Clone(d.concepts),
		strategies: maps.Clone(d.strategies),
		sections:   maps.Clone(d.sections),
		steps:      maps.Clone(d.steps),
		images:     maps.Clone(d.images),
		journals:   maps.Clone(d.journals),
		slots:      maps.Clone(d.slots),
		runs:       maps.Clone(d.runs),
		checks:     maps.Clone(d.checks),
		trades:     maps.Clone(d.trades),
	}
}

func (d *data) nextID() int64 {
	d.seq++
	return d.seq
}

// Store serializes units of work with one mutex. Repository methods called
// outside RunMaster/RunReplica must come from a single goroutine (test setup).
type Store struct {
	mu       sync.Mutex
	d        *data
	readOnly bool

	// Fail, when set, is consulted by every write; a non-nil result aborts it.
	Fail func(op string) error
}

var _ db.TxManager = (*Store)(nil)

func New() *Store {
	return &Store{d: newData()}
}

func (s *Store) RunMaster(ctx context.Context, fn db.TxFunc) error {
	return s.run(ctx, false, fn)
}

func (s *Store) RunReplica(ctx context.Context, fn db.TxFunc) error {
	return s.run(ctx, true, fn)
}

func (s *Store) RunRepeatableRead(ctx context.Context, fn db.TxFunc) error {
	return s.run(ctx, false, fn)
}

func (s *Store) run(ctx context.Context, readOnly bool, fn db.TxFunc) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.d.clone()
	s.readOnly = readOnly
	defer func() {
		s.readOnly = false
		if p := recover(); p != nil {
			s.d = snapshot
			panic(p)
		}
		if err != nil {
			s.d = snapshot
		}
	}()
	return fn(ctx, nil)
}

func (s *Store) write(op string) error {
	if s.readOnly {
		return fmt.Errorf("%s: %w", op, ErrReadOnly)
	}
	if s.Fail != nil {
		if err := s.Fail(op); err != nil {
			return err
		}
	}
	return nil
}
