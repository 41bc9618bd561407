package sound

import (
	"context"
	"io"
	"slices"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/dragonslayer/internal/config"
	"github.com/vovakirdan/dragonslayer/internal/hw"
	"github.com/vovakirdan/dragonslayer/internal/sched"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestEventString(t *testing.T) {
	tests := []struct {
		event    Event
		expected string
	}{
		{Hit, "hit"},
		{Win, "win"},
		{Lose, "lose"},
		{Event(9), "Event(9)"},
	}
	for _, tc := range tests {
		if got := tc.event.String(); got != tc.expected {
			t.Errorf("String() = %q, expected %q", got, tc.expected)
		}
	}

	if _, err := ParseEvent("roar"); err == nil {
		t.Error("expected error for unknown event")
	}
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()
	if _, ok := q.Pop(); ok {
		t.Fatal("empty queue should not pop")
	}

	in := []Event{Hit, Hit, Win, Lose, Hit}
	for _, e := range in {
		q.Push(e)
	}
	if q.Len() != len(in) {
		t.Fatalf("Len() = %d, expected %d", q.Len(), len(in))
	}
	if !slices.Equal(q.Pending(), in) {
		t.Errorf("Pending() = %v, expected %v", q.Pending(), in)
	}

	var out []Event
	for {
		e, ok := q.Pop()
		if !ok {
			break
		}
		out = append(out, e)
	}
	if !slices.Equal(out, in) {
		t.Errorf("popped %v, expected %v", out, in)
	}
}

func TestNewTunes(t *testing.T) {
	tunes, err := NewTunes(config.Default().Sound)
	if err != nil {
		t.Fatal(err)
	}
	if got := tunes.Duration(Hit); got != 50*time.Millisecond {
		t.Errorf("hit lasts %v, expected 50ms", got)
	}
	if got := tunes.Duration(Win); got != 300*time.Millisecond {
		t.Errorf("win lasts %v, expected 300ms", got)
	}

	cfg := config.Default().Sound
	cfg.Tunes = map[string][]config.Note{"fanfare": {{Freq: 440, Duration: time.Millisecond}}}
	if _, err := NewTunes(cfg); err == nil {
		t.Error("expected error for unknown tune name")
	}
}

// runUntilDrained drives the sequencer on a fake clock until the queue is
// empty and one idle poll has passed.
func runUntilDrained(t *testing.T, q *Queue, buzzer hw.Buzzer, clock *sched.FakeClock) {
	t.Helper()
	cfg := config.Default().Sound
	tunes, err := NewTunes(cfg)
	if err != nil {
		t.Fatal(err)
	}
	seq := NewSequencer(q, buzzer, tunes, cfg, log.New(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	y := &stopWhenIdle{Yielder: sched.Unscheduled(clock), queue: q, idle: cfg.IdlePoll, cancel: cancel}

	if err := seq.Run(ctx, y); err != context.Canceled {
		t.Fatalf("Run() = %v, expected context.Canceled", err)
	}
}

// stopWhenIdle cancels the run after the first idle poll with an empty queue
// has slept.
type stopWhenIdle struct {
	sched.Yielder
	queue  *Queue
	idle   time.Duration
	cancel context.CancelFunc
}

func (y *stopWhenIdle) Sleep(ctx context.Context, d time.Duration) error {
	err := y.Yielder.Sleep(ctx, d)
	if d == y.idle && y.queue.Len() == 0 {
		y.cancel()
	}
	return err
}

func TestSequencerPlaysInOrder(t *testing.T) {
	clock := sched.NewFakeClock(epoch)
	buzzer := hw.NewRecordingBuzzer(clock.Now)
	q := NewQueue()
	q.Push(Hit)
	q.Push(Win)
	q.Push(Lose)

	runUntilDrained(t, q, buzzer, clock)

	expected := []int{1000, 659, 784, 1047, 523, 392, 294}
	if got := buzzer.Tones(); !slices.Equal(got, expected) {
		t.Errorf("Tones() = %v, expected %v", got, expected)
	}

	// Every tone is followed by a silence after its duration.
	events := buzzer.Events()
	if len(events) != 2*len(expected) {
		t.Fatalf("got %d buzzer calls, expected %d", len(events), 2*len(expected))
	}
	if gap := events[1].At.Sub(events[0].At); gap != 50*time.Millisecond {
		t.Errorf("hit tone held %v, expected 50ms", gap)
	}
	for i := 2; i < len(events); i += 2 {
		if events[i].Duty != 32768 {
			t.Errorf("tone %d duty = %d, expected 32768", i/2, events[i].Duty)
		}
		if gap := events[i+1].At.Sub(events[i].At); gap != 100*time.Millisecond {
			t.Errorf("tone %d held %v, expected 100ms", i/2, gap)
		}
	}
}

func TestSequencerRest(t *testing.T) {
	clock := sched.NewFakeClock(epoch)
	buzzer := hw.NewRecordingBuzzer(clock.Now)
	cfg := config.Default().Sound
	tunes := Tunes{Hit: {{Freq: 0, Duration: 20 * time.Millisecond}, {Freq: 880, Duration: 10 * time.Millisecond}}}
	seq := NewSequencer(NewQueue(), buzzer, tunes, cfg, log.New(io.Discard))

	if err := seq.play(context.Background(), sched.Unscheduled(clock), Hit); err != nil {
		t.Fatal(err)
	}
	if got := buzzer.Tones(); !slices.Equal(got, []int{880}) {
		t.Errorf("Tones() = %v, expected only the 880Hz step", got)
	}
	if clock.Slept() != 30*time.Millisecond {
		t.Errorf("slept %v, expected 30ms", clock.Slept())
	}
}

func TestSequencerIdlePolls(t *testing.T) {
	clock := sched.NewFakeClock(epoch)
	buzzer := hw.NewRecordingBuzzer(clock.Now)

	runUntilDrained(t, NewQueue(), buzzer, clock)

	if len(buzzer.Events()) != 0 {
		t.Errorf("idle sequencer touched the buzzer: %v", buzzer.Events())
	}
	if clock.Slept() != 10*time.Millisecond {
		t.Errorf("slept %v, expected one 10ms idle poll", clock.Slept())
	}
}
