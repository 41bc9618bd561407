// Package sched runs cooperative tasks on a single logical thread.
//
// Tasks are goroutines, but only the holder of the scheduler's baton may run.
// A task keeps the baton until it yields by calling Yielder.Sleep, so no two
// tasks ever execute at once and a task that never yields starves the rest.
package sched

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Yielder is handed to every task. Sleep is the only yield point.
type Yielder interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// TaskFunc is the body of a cooperative task. It returns when ctx is done or
// on an unrecoverable error.
type TaskFunc func(ctx context.Context, y Yielder) error

// Task is a named cooperative task.
type Task struct {
	Name string
	Run  TaskFunc
}

// Scheduler interleaves tasks by passing a single baton between them.
type Scheduler struct {
	clock  Clock
	baton  chan struct{}
	logger *log.Logger
}

// New creates a scheduler using the given clock.
func New(clock Clock, logger *log.Logger) *Scheduler {
	s := &Scheduler{
		clock:  clock,
		baton:  make(chan struct{}, 1),
		logger: logger,
	}
	s.baton <- struct{}{}
	return s
}

// Clock returns the scheduler's clock.
func (s *Scheduler) Clock() Clock {
	return s.clock
}

func (s *Scheduler) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-s.baton:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) release() {
	s.baton <- struct{}{}
}

// Exclusive runs fn while holding the baton, so fn never interleaves with a
// task's work between two yield points. It is how externally driven code
// (connection accept/close) touches state shared with the tasks.
func (s *Scheduler) Exclusive(ctx context.Context, fn func()) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()
	fn()
	return nil
}

// Run starts every task and blocks until all of them return. The first task
// to return stops the others. Context cancellation is a clean shutdown and
// yields a nil error.
func (s *Scheduler) Run(ctx context.Context, tasks ...Task) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make([]error, len(tasks))
	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer cancel()
			errs[i] = s.runTask(ctx, t)
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}

func (s *Scheduler) runTask(ctx context.Context, t Task) error {
	y := &yielder{s: s}
	if err := s.acquire(ctx); err != nil {
		return nil
	}
	y.held = true
	s.logger.Debug("task started", "task", t.Name)

	err := t.Run(ctx, y)
	if y.held {
		y.held = false
		s.release()
	}

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		s.logger.Error("task failed", "task", t.Name, "error", err)
		return fmt.Errorf("task %s: %w", t.Name, err)
	}
	s.logger.Debug("task stopped", "task", t.Name)
	return nil
}

// yielder tracks whether its task currently holds the baton.
type yielder struct {
	s    *Scheduler
	held bool
}

func (y *yielder) Now() time.Time {
	return y.s.clock.Now()
}

func (y *yielder) Sleep(ctx context.Context, d time.Duration) error {
	y.held = false
	y.s.release()
	if err := y.s.clock.Sleep(ctx, d); err != nil {
		return err
	}
	if err := y.s.acquire(ctx); err != nil {
		return err
	}
	y.held = true
	return nil
}

// Unscheduled returns a Yielder that sleeps on clock without any baton.
// It drives a single task on its own, e.g. in tests.
func Unscheduled(clock Clock) Yielder {
	return soloYielder{clock: clock}
}

type soloYielder struct {
	clock Clock
}

func (y soloYielder) Now() time.Time {
	return y.clock.Now()
}

func (y soloYielder) Sleep(ctx context.Context, d time.Duration) error {
	return y.clock.Sleep(ctx, d)
}
