// Package scheduler runs queued one-shot tasks on a fixed tick. Tasks are
// fire and forget: a task that fails or panics is logged and removed, never
// retried.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"github.com/google/uuid"
	"github.com/parleybot/parley/pkg/logger"
)

const defaultInterval = 5 * time.Second

// TaskFunc is one unit of deferred work. Returning an error drops the task
// with a log line; it will not run again.
type TaskFunc func(ctx context.Context) error

type task struct {
	id   string
	due  time.Time
	fn   TaskFunc
	name string
}

type Scheduler struct {
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	tasks   []*task
	running bool
	stopCh  chan struct{}
	done    sync.WaitGroup
}

func New() *Scheduler {
	return &Scheduler{
		interval: defaultInterval,
		now:      time.Now,
	}
}

// Queue registers fn to run at the first tick at or after due. A zero due
// time means the next tick. Safe to call from inside a running task.
func (s *Scheduler) Queue(name string, due time.Time, fn TaskFunc) string {
	t := &task{id: uuid.NewString(), due: due, fn: fn, name: name}

	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()

	logger.DebugCF("scheduler", "Task queued", map[string]any{
		"task": name,
		"due":  due.Format(time.RFC3339),
	})
	return t.id
}

// QueueCron registers fn for the next occurrence of the cron expression.
// Recurring schedules re-queue themselves from inside fn.
func (s *Scheduler) QueueCron(name, expr string, fn TaskFunc) (string, error) {
	next, err := gronx.NextTick(expr, false)
	if err != nil {
		return "", fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return s.Queue(name, next, fn), nil
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Start launches the tick loop. Calling Start on a running scheduler is a
// no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	s.done.Add(1)
	go func() {
		defer s.done.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-stopCh:
				return
			case <-ticker.C:
				s.RunDue(ctx)
			}
		}
	}()

	logger.InfoC("scheduler", "Scheduler started")
}

// Stop ends the tick loop and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.done.Wait()
	logger.InfoC("scheduler", "Scheduler stopped")
}

// RunDue executes every task whose due time has passed and removes each one
// afterwards, success or not. The task list is snapshotted first, so tasks
// queued while running land in the next tick.
func (s *Scheduler) RunDue(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var due []*task
	for _, t := range s.tasks {
		if !t.due.After(now) {
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	for _, t := range due {
		s.run(ctx, t)
		s.remove(t.id)
	}
}

func (s *Scheduler) run(ctx context.Context, t *task) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCF("scheduler", "Task panicked", map[string]any{
				"task":  t.name,
				"panic": fmt.Sprint(r),
			})
		}
	}()

	if err := t.fn(ctx); err != nil {
		logger.ErrorCF("scheduler", "Task failed", map[string]any{
			"task":  t.name,
			"error": err.Error(),
		})
	}
}

func (s *Scheduler) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.id == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return
		}
	}
}
