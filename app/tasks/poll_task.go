package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"vidrelay/app/pipeline"
)

// PollRunner is the orchestrator as the scheduler sees it.
type PollRunner interface {
	Run(ctx context.Context) (*pipeline.RunStats, error)
}

// PollFeedTask executes one full run: fetch a page, process the eligible
// items, advance the checkpoint. Failed runs are not retried by the
// scheduler; the next tick polls again from the persisted cursor.
type PollFeedTask struct {
	Task
	runner PollRunner
}

func NewPollFeedTask(runner PollRunner) *PollFeedTask {
	return &PollFeedTask{
		Task:   NewTask(TaskTypePollFeed),
		runner: runner,
	}
}

func (t *PollFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	stats, err := t.runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("poll run failed: %w", err)
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"id", t.ID,
		"duration", t.GetDuration(),
		"fetched", stats.Fetched,
		"eligible", stats.Eligible,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed)

	return nil
}
