package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type TaskSchedulerInterface interface {
	Start()
	Stop()
}

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler polls the feed on a fixed interval. A single worker keeps runs
// strictly sequential: ticks arriving while a run is still in flight are
// dropped, never queued behind it.
type Scheduler struct {
	runner      PollRunner
	interval    time.Duration
	taskTimeout time.Duration
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(runner PollRunner, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		runner:      runner,
		interval:    interval,
		taskTimeout: 15 * time.Minute,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 1),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.worker()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueuePoll()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueuePoll()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) enqueuePoll() {
	task := NewPollFeedTask(s.runner)

	select {
	case s.taskQueue <- task:
	case <-s.ctx.Done():
	default:
		slog.Warn("Previous poll still running, skipping tick", "type", string(task.GetType()))
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(task)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, s.taskTimeout)
	defer cancel()

	if err := task.Execute(taskCtx); err != nil {
		// No retry here: the next tick re-reads the same cursor and
		// re-attempts whatever never advanced it.
		slog.Error("Task execution failed", "type", string(task.GetType()), "id", task.GetID(), "duration", task.GetDuration(), "error", err)
	}
}
