// Package sched runs long-lived tasks as goroutines with the bookkeeping a
// firmware scheduler would expect: a name, a stack allowance and a priority.
package sched

import (
	"context"
	"errors"
	"fmt"
	"golang.org/x/sync/errgroup"
	"sync"
	"time"
)

// Priority levels, higher runs first. Nothing may be spawned at PriorityIdle.
const (
	PriorityIdle = 0
	PriorityMax  = 7
)

type TaskSpec struct {
	Name string
	// StackSize is recorded for diagnostics; goroutine stacks grow on demand.
	StackSize int
	Priority  int
}

func (spec TaskSpec) validate() error {
	switch {
	case spec.Name == "":
		return errors.New("task name is required")
	case spec.StackSize <= 0:
		return fmt.Errorf("task %s: stack size must be positive", spec.Name)
	case spec.Priority <= PriorityIdle || spec.Priority > PriorityMax:
		return fmt.Errorf("task %s: priority %d outside (%d, %d]", spec.Name, spec.Priority, PriorityIdle, PriorityMax)
	}
	return nil
}

type TaskFunc func(ctx context.Context) error

type Logger interface {
	Printf(format string, v ...interface{})
}

type Scheduler struct {
	group  *errgroup.Group
	ctx    context.Context
	logger Logger

	mu    sync.Mutex
	tasks []TaskSpec
}

// New creates a Scheduler whose tasks are cancelled when ctx is done or when any task
// returns an error other than context.Canceled.
func New(ctx context.Context, logger Logger) *Scheduler {
	group, ctx := errgroup.WithContext(ctx)
	return &Scheduler{group: group, ctx: ctx, logger: logger}
}

func (s *Scheduler) Spawn(spec TaskSpec, fn TaskFunc) error {
	if err := spec.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.tasks = append(s.tasks, spec)
	s.mu.Unlock()

	s.logger.Printf("Spawning task %s (stack=%d, priority=%d)\n", spec.Name, spec.StackSize, spec.Priority)
	s.group.Go(func() error {
		err := fn(s.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Printf("Task %s stopped: %v\n", spec.Name, err)
			return fmt.Errorf("task %s: %w", spec.Name, err)
		}
		s.logger.Printf("Task %s stopped\n", spec.Name)
		return nil
	})
	return nil
}

// Wait blocks until every spawned task has returned.
func (s *Scheduler) Wait() error {
	return s.group.Wait()
}

func (s *Scheduler) Tasks() []TaskSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TaskSpec(nil), s.tasks...)
}

// Context is the context handed to spawned tasks.
func (s *Scheduler) Context() context.Context {
	return s.ctx
}

// Sleep suspends the calling task for d, returning early with the context error if
// ctx is done first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
