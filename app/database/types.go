package database

import "time"

// Run is one recorded orchestrator run.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Cursor     string
	Fetched    int
	Eligible   int
	Succeeded  int
	Failed     int
}

// ItemOutcome is one recorded per-item pipeline result.
type ItemOutcome struct {
	ID        int64
	RunID     string
	ItemID    string
	Outcome   string
	Error     string
	CreatedAt time.Time
}
