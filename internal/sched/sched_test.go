package sched

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestTasksNeverOverlap(t *testing.T) {
	s := New(RealClock(), quietLogger())

	var active, maxActive atomic.Int32
	var ranA, ranB atomic.Int32

	work := func(counter *atomic.Int32) TaskFunc {
		return func(ctx context.Context, y Yielder) error {
			for {
				n := active.Add(1)
				if n > maxActive.Load() {
					maxActive.Store(n)
				}
				// Busy section between yields
				for i := 0; i < 1000; i++ {
					_ = i * i
				}
				counter.Add(1)
				active.Add(-1)

				if err := y.Sleep(ctx, time.Millisecond); err != nil {
					return err
				}
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	err := s.Run(ctx,
		Task{Name: "a", Run: work(&ranA)},
		Task{Name: "b", Run: work(&ranB)},
	)
	if err != nil {
		t.Fatalf("Run() returned %v, expected nil on deadline", err)
	}

	if maxActive.Load() != 1 {
		t.Errorf("observed %d tasks running at once, expected 1", maxActive.Load())
	}
	if ranA.Load() == 0 || ranB.Load() == 0 {
		t.Errorf("both tasks should progress, got a=%d b=%d", ranA.Load(), ranB.Load())
	}
}

func TestExclusiveWaitsForYield(t *testing.T) {
	s := New(RealClock(), quietLogger())

	var inTick atomic.Bool
	var violations, calls atomic.Int32

	tick := func(ctx context.Context, y Yielder) error {
		for {
			inTick.Store(true)
			time.Sleep(200 * time.Microsecond) // Work without yielding
			inTick.Store(false)
			if err := y.Sleep(ctx, time.Millisecond); err != nil {
				return err
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ctx.Err() == nil {
			_ = s.Exclusive(ctx, func() {
				calls.Add(1)
				if inTick.Load() {
					violations.Add(1)
				}
			})
			time.Sleep(500 * time.Microsecond)
		}
	}()

	if err := s.Run(ctx, Task{Name: "tick", Run: tick}); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	<-done

	if calls.Load() == 0 {
		t.Fatal("Exclusive callback never ran")
	}
	if violations.Load() != 0 {
		t.Errorf("Exclusive ran mid-tick %d times", violations.Load())
	}
}

func TestRunStopsOthersOnError(t *testing.T) {
	s := New(RealClock(), quietLogger())
	boom := errors.New("boom")

	var otherStopped atomic.Bool
	err := s.Run(context.Background(),
		Task{Name: "failing", Run: func(ctx context.Context, y Yielder) error {
			if err := y.Sleep(ctx, 2*time.Millisecond); err != nil {
				return err
			}
			return boom
		}},
		Task{Name: "looping", Run: func(ctx context.Context, y Yielder) error {
			defer otherStopped.Store(true)
			for {
				if err := y.Sleep(ctx, time.Millisecond); err != nil {
					return err
				}
			}
		}},
	)

	if !errors.Is(err, boom) {
		t.Errorf("Run() = %v, expected to wrap boom", err)
	}
	if !otherStopped.Load() {
		t.Error("looping task should have been cancelled")
	}
}

func TestExclusiveHonoursCancelledContext(t *testing.T) {
	s := New(RealClock(), quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	if err := s.Exclusive(ctx, func() { called = true }); !errors.Is(err, context.Canceled) {
		t.Errorf("Exclusive() = %v, expected context.Canceled", err)
	}
	if called {
		t.Error("callback should not run on a cancelled context")
	}
}

func TestFakeClockSleepAdvances(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFakeClock(start)
	y := Unscheduled(c)

	for i := 0; i < 5; i++ {
		if err := y.Sleep(context.Background(), time.Millisecond); err != nil {
			t.Fatal(err)
		}
	}
	if got := y.Now().Sub(start); got != 5*time.Millisecond {
		t.Errorf("virtual time advanced %v, expected 5ms", got)
	}
	if c.Slept() != 5*time.Millisecond {
		t.Errorf("Slept() = %v, expected 5ms", c.Slept())
	}

	c.Advance(time.Second)
	if c.Slept() != 5*time.Millisecond {
		t.Error("Advance should not count as sleeping")
	}
}
