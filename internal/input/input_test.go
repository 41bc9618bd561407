package input

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/dragonslayer/internal/config"
	"github.com/vovakirdan/dragonslayer/internal/hw"
	"github.com/vovakirdan/dragonslayer/internal/sched"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// scriptedJoystick returns readings from a list, repeating the last one.
type scriptedJoystick struct {
	xs, ys []int
	reads  int
	failAt int // 1-based read index that fails, 0 = never
}

func (j *scriptedJoystick) ReadAxes() (int, int, error) {
	j.reads++
	if j.failAt == j.reads {
		return 0, 0, errors.New("adc glitch")
	}
	// Each axis repeats its last scripted value once exhausted.
	return j.xs[min(j.reads-1, len(j.xs)-1)], j.ys[min(j.reads-1, len(j.ys)-1)], nil
}

func newSampler(j hw.Joystick) *Sampler {
	return NewSampler(j, hw.NewVirtualButton(), config.Default().Input, log.New(io.Discard))
}

func TestSampleAveragesWindow(t *testing.T) {
	tests := []struct {
		name     string
		xs, ys   []int
		expected Intent
	}{
		{"centred", []int{2048}, []int{2048}, Intent{}},
		{"hard left", []int{0}, []int{2048}, Intent{Left: true}},
		{"hard right and jump", []int{4095}, []int{0}, Intent{Right: true, Jump: true}},
		// One noisy spike below the threshold is averaged away: (0+2048*4)/5 = 1638
		{"spike suppressed", []int{0, 2048, 2048, 2048, 2048}, []int{2048}, Intent{}},
		// Average exactly at threshold is not below it: 5000/5 = 1000
		{"threshold exclusive", []int{1000}, []int{1000}, Intent{}},
		{"just over high", []int{3001}, []int{2048}, Intent{Right: true}},
		// A spike on the vertical axis alone does not jump: (0+2048*4)/5 = 1638 > 1000
		{"jump spike suppressed", []int{2048}, []int{0, 2048, 2048, 2048, 2048}, Intent{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			j := &scriptedJoystick{xs: tc.xs, ys: tc.ys}
			got, err := newSampler(j).Sample(context.Background(), sched.Unscheduled(sched.NewFakeClock(epoch)))
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.expected {
				t.Errorf("Sample() = %+v, expected %+v", got, tc.expected)
			}
			if j.reads != 5 {
				t.Errorf("took %d readings, expected 5", j.reads)
			}
		})
	}
}

func TestSampleYieldsBetweenReadings(t *testing.T) {
	clock := sched.NewFakeClock(epoch)
	j := &scriptedJoystick{xs: []int{2048}, ys: []int{2048}}

	if _, err := newSampler(j).Sample(context.Background(), sched.Unscheduled(clock)); err != nil {
		t.Fatal(err)
	}
	if clock.Slept() != 5*time.Millisecond {
		t.Errorf("sampling window slept %v, expected 5ms", clock.Slept())
	}
}

func TestSampleReadErrorIsNeutral(t *testing.T) {
	clock := sched.NewFakeClock(epoch)
	j := &scriptedJoystick{xs: []int{0}, ys: []int{0}, failAt: 3}

	got, err := newSampler(j).Sample(context.Background(), sched.Unscheduled(clock))
	if err != nil {
		t.Fatalf("read hiccup should not be fatal, got %v", err)
	}
	if got != (Intent{}) {
		t.Errorf("Sample() = %+v, expected neutral intent", got)
	}
	if clock.Slept() != 5*time.Millisecond {
		t.Errorf("failed window should keep its pacing, slept %v", clock.Slept())
	}
}

func TestSampleStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	j := &scriptedJoystick{xs: []int{0}, ys: []int{0}}
	if _, err := newSampler(j).Sample(ctx, sched.Unscheduled(sched.NewFakeClock(epoch))); !errors.Is(err, context.Canceled) {
		t.Errorf("Sample() = %v, expected context.Canceled", err)
	}
}

type brokenButton struct{}

func (brokenButton) Level() (int, error) { return 0, errors.New("gpio") }

func TestButtonLevel(t *testing.T) {
	b := hw.NewVirtualButton()
	s := NewSampler(hw.NewVirtualJoystick(), b, config.Default().Input, log.New(io.Discard))

	b.Press()
	if s.ButtonLevel() != hw.LevelPressed {
		t.Error("pressed button should read low")
	}

	s = NewSampler(hw.NewVirtualJoystick(), brokenButton{}, config.Default().Input, log.New(io.Discard))
	if s.ButtonLevel() != hw.LevelReleased {
		t.Error("failed read should count as released")
	}
}

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(150 * time.Millisecond)

	if d.Press(hw.LevelReleased, epoch) {
		t.Error("released level is never a press")
	}
	if !d.Press(hw.LevelPressed, epoch) {
		t.Fatal("first press should be recognized")
	}

	// Held low: suppressed until strictly more than 150ms later
	for ms := 16; ms <= 150; ms += 16 {
		if d.Press(hw.LevelPressed, epoch.Add(time.Duration(ms)*time.Millisecond)) {
			t.Errorf("press at +%dms should be suppressed", ms)
		}
	}
	if d.Press(hw.LevelPressed, epoch.Add(150*time.Millisecond)) {
		t.Error("press at exactly the interval should be suppressed")
	}
	if !d.Press(hw.LevelPressed, epoch.Add(151*time.Millisecond)) {
		t.Error("press after the interval should be recognized")
	}

	last, ok := d.LastPress()
	if !ok || !last.Equal(epoch.Add(151*time.Millisecond)) {
		t.Errorf("LastPress() = %v, %v", last, ok)
	}
}
