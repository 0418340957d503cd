package api

import (
	"sync"

	"vidrelay/app/database"
	"vidrelay/app/pipeline"
)

// RunHistory exposes persisted run records when database persistence is
// enabled; nil otherwise.
type RunHistory interface {
	GetRecentRuns(limit int) ([]database.Run, error)
}

var _ RunHistory = (*database.RunRepository)(nil)

// Status holds the most recent run result for the API to serve. Updated by
// the poll loop, read by handlers.
type Status struct {
	mu      sync.RWMutex
	lastRun *pipeline.RunStats
	lastErr string
}

func NewStatus() *Status {
	return &Status{}
}

func (s *Status) Update(stats *pipeline.RunStats, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun = stats
	if err != nil {
		s.lastErr = err.Error()
	} else {
		s.lastErr = ""
	}
}

func (s *Status) Snapshot() (*pipeline.RunStats, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun, s.lastErr
}
