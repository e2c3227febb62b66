package service

import (
	"context"
	"sync/atomic"
	"time"
)

// Pinger проверяет доступность БД.
type Pinger interface {
	Ping(ctx context.Context) error
}

type State struct {
	ready     atomic.Bool
	startedAt time.Time
	db        Pinger

	requests        atomic.Int64
	lastRequestUnix atomic.Int64 // unix seconds
}

func NewState(db Pinger) *State {
	s := &State{startedAt: time.Now(), db: db}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }

// Ready is true once the web server listens and the database answers.
func (s *State) Ready(ctx context.Context) (bool, error) {
	if !s.ready.Load() {
		return false, nil
	}
	if s.db == nil {
		return true, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *State) TouchRequest(t time.Time) {
	s.requests.Add(1)
	s.lastRequestUnix.Store(t.Unix())
}

func (s *State) Requests() int64 { return s.requests.Load() }

func (s *State) LastRequest() time.Time {
	u := s.lastRequestUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
