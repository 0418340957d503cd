package database

import (
	"database/sql"
	"errors"
	"fmt"

	"vidrelay/app/checkpoint"
)

// CheckpointRepository stores the cursor in a single-row table. It satisfies
// the same contract as the file store: only the latest cursor is kept, and
// an absent row means no item has ever been processed.
type CheckpointRepository struct {
	db *DB
}

var _ checkpoint.Store = (*CheckpointRepository)(nil)

func NewCheckpointRepository(db *DB) *CheckpointRepository {
	return &CheckpointRepository{db: db}
}

func (r *CheckpointRepository) Load() (string, error) {
	var cursor string
	err := r.db.QueryRow(`SELECT cursor FROM checkpoint WHERE id = 1`).Scan(&cursor)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return cursor, nil
}

func (r *CheckpointRepository) Save(cursor string) error {
	_, err := r.db.Exec(`
		INSERT INTO checkpoint (id, cursor, updated_at)
		VALUES (1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			cursor = excluded.cursor,
			updated_at = CURRENT_TIMESTAMP
	`, cursor)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}
