package database

import (
	"fmt"

	"vidrelay/app/pipeline"
)

// RunRepository records run history for diagnostics. Failed item IDs stay
// visible here even after the cursor has moved past them, which is the
// operator's way of spotting silently skipped items.
type RunRepository struct {
	db *DB
}

var _ pipeline.RunRecorder = (*RunRepository)(nil)

func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) RecordRun(stats pipeline.RunStats) error {
	_, err := r.db.Exec(`
		INSERT INTO runs (id, started_at, finished_at, cursor, fetched, eligible, succeeded, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, stats.RunID, stats.StartedAt, stats.FinishedAt, stats.Cursor,
		stats.Fetched, stats.Eligible, stats.Succeeded, stats.Failed)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

func (r *RunRepository) RecordItemOutcome(runID, itemID string, outcome pipeline.Outcome, errMsg string) error {
	_, err := r.db.Exec(`
		INSERT INTO item_outcomes (run_id, item_id, outcome, error)
		VALUES (?, ?, ?, ?)
	`, runID, itemID, outcome.String(), errMsg)
	if err != nil {
		return fmt.Errorf("failed to record item outcome: %w", err)
	}
	return nil
}

func (r *RunRepository) GetRecentRuns(limit int) ([]Run, error) {
	rows, err := r.db.Query(`
		SELECT id, started_at, finished_at, cursor, fetched, eligible, succeeded, failed
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		err := rows.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Cursor,
			&run.Fetched, &run.Eligible, &run.Succeeded, &run.Failed)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func (r *RunRepository) GetItemOutcomes(runID string) ([]ItemOutcome, error) {
	rows, err := r.db.Query(`
		SELECT id, run_id, item_id, outcome, error, created_at
		FROM item_outcomes
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []ItemOutcome
	for rows.Next() {
		var o ItemOutcome
		err := rows.Scan(&o.ID, &o.RunID, &o.ItemID, &o.Outcome, &o.Error, &o.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item outcome: %w", err)
		}
		outcomes = append(outcomes, o)
	}

	return outcomes, rows.Err()
}
