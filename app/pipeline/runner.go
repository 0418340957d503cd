package pipeline

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"vidrelay/app/checkpoint"
	"vidrelay/app/feed"
)

type PageFetcher interface {
	FetchPage(ctx context.Context, cursor string) ([]feed.Item, error)
}

type ItemProcessor interface {
	Process(ctx context.Context, item feed.Item) Result
}

var _ ItemProcessor = (*Pipeline)(nil)

// RunRecorder persists run history for diagnostics. Implementations must
// tolerate being called once per run and once per processed item.
type RunRecorder interface {
	RecordRun(stats RunStats) error
	RecordItemOutcome(runID, itemID string, outcome Outcome, errMsg string) error
}

// RunStats summarizes one run of the orchestrator.
type RunStats struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Cursor     string
	Fetched    int
	Eligible   int
	Succeeded  int
	Failed     int
}

// Runner drives one run: load cursor, fetch one page, reverse it to
// oldest-first, filter, and process the remaining items sequentially.
// Sequential processing is deliberate: the cursor must advance in strict
// oldest-to-newest order, and parallel pipelines could move it past an
// unprocessed older item.
type Runner struct {
	fetcher   PageFetcher
	processor ItemProcessor
	store     checkpoint.Store
	recorder  RunRecorder
}

func NewRunner(fetcher PageFetcher, processor ItemProcessor, store checkpoint.Store, recorder RunRecorder) *Runner {
	return &Runner{
		fetcher:   fetcher,
		processor: processor,
		store:     store,
		recorder:  recorder,
	}
}

// Run processes at most one feed page. A single item's failure does not
// stop the run; a page-fetch failure or a checkpoint persist failure does.
// The returned stats are valid even when an error is returned.
func (r *Runner) Run(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	defer func() {
		stats.FinishedAt = time.Now().UTC()
		r.record(stats)
	}()

	cursor, err := r.store.Load()
	if err != nil {
		slog.Error("Failed to load checkpoint", "error", err)
		return stats, err
	}
	stats.Cursor = cursor

	items, err := r.fetcher.FetchPage(ctx, cursor)
	if err != nil {
		slog.Error("Failed to fetch feed page", "cursor", cursor, "error", err)
		return stats, err
	}
	stats.Fetched = len(items)

	// The feed delivers newest-first; processing goes oldest-first so the
	// cursor only ever moves forward.
	items = slices.Clone(items)
	slices.Reverse(items)

	for _, item := range items {
		if !feed.Eligible(item) {
			slog.Debug("Skipping ineligible item", "item", item.ID, "stickied", item.Stickied, "is_video", item.IsVideo)
			continue
		}
		stats.Eligible++

		res := r.processor.Process(ctx, item)

		errMsg := ""
		if res.Err != nil {
			errMsg = res.Err.Error()
		}
		if r.recorder != nil {
			if err := r.recorder.RecordItemOutcome(stats.RunID, item.ID, res.Outcome, errMsg); err != nil {
				slog.Warn("Failed to record item outcome", "item", item.ID, "error", err)
			}
		}

		if res.Outcome == OutcomeSuccess {
			stats.Succeeded++
			stats.Cursor = item.ID
		} else {
			stats.Failed++
		}

		if res.CheckpointErr != nil {
			// The item was published but the cursor did not persist.
			// Continuing would republish everything after the next
			// restart, so the run stops here.
			return stats, res.CheckpointErr
		}
	}

	slog.Info("Run completed",
		"run_id", stats.RunID,
		"duration", time.Since(stats.StartedAt),
		"fetched", stats.Fetched,
		"eligible", stats.Eligible,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"cursor", stats.Cursor)

	return stats, nil
}

func (r *Runner) record(stats *RunStats) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.RecordRun(*stats); err != nil {
		slog.Warn("Failed to record run history", "run_id", stats.RunID, "error", err)
	}
}
