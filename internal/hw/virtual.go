package hw

import (
	"sync"
	"sync/atomic"
	"time"
)

// VirtualJoystick is an in-memory joystick. Deflections set from another
// goroutine (a keyboard handler) are read by the game loop.
type VirtualJoystick struct {
	x, y atomic.Int32
	err  atomic.Pointer[error]
}

// NewVirtualJoystick creates a centred joystick.
func NewVirtualJoystick() *VirtualJoystick {
	j := &VirtualJoystick{}
	j.Center()
	return j
}

// Set places the stick at raw axis values, clamped to the 12-bit range.
func (j *VirtualJoystick) Set(x, y int) {
	j.x.Store(int32(clampAxis(x)))
	j.y.Store(int32(clampAxis(y)))
}

// Center returns the stick to rest.
func (j *VirtualJoystick) Center() {
	j.Set(AxisCenter, AxisCenter)
}

// Fail makes every subsequent read return err until cleared with nil.
func (j *VirtualJoystick) Fail(err error) {
	if err == nil {
		j.err.Store(nil)
		return
	}
	j.err.Store(&err)
}

// ReadAxes implements Joystick.
func (j *VirtualJoystick) ReadAxes() (int, int, error) {
	if p := j.err.Load(); p != nil {
		return 0, 0, *p
	}
	return int(j.x.Load()), int(j.y.Load()), nil
}

func clampAxis(v int) int {
	if v < AxisMin {
		return AxisMin
	}
	if v > AxisMax {
		return AxisMax
	}
	return v
}

// VirtualButton is an in-memory active-low button.
type VirtualButton struct {
	level atomic.Int32
}

// NewVirtualButton creates a released button.
func NewVirtualButton() *VirtualButton {
	b := &VirtualButton{}
	b.level.Store(LevelReleased)
	return b
}

// Press pulls the line low.
func (b *VirtualButton) Press() {
	b.level.Store(LevelPressed)
}

// Release lets the line float high.
func (b *VirtualButton) Release() {
	b.level.Store(LevelReleased)
}

// Level implements Button.
func (b *VirtualButton) Level() (int, error) {
	return int(b.level.Load()), nil
}

// ToneEvent records one buzzer call.
type ToneEvent struct {
	Freq int
	Duty uint16
	At   time.Time
}

// RecordingBuzzer keeps every call for inspection.
type RecordingBuzzer struct {
	mu       sync.Mutex
	now      func() time.Time
	events   []ToneEvent
	released bool
}

// NewRecordingBuzzer creates a buzzer that timestamps calls with now.
func NewRecordingBuzzer(now func() time.Time) *RecordingBuzzer {
	if now == nil {
		now = time.Now
	}
	return &RecordingBuzzer{now: now}
}

// Tone implements Buzzer.
func (b *RecordingBuzzer) Tone(freq int, duty uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return ErrReleased
	}
	b.events = append(b.events, ToneEvent{Freq: freq, Duty: duty, At: b.now()})
	return nil
}

// Silence implements Buzzer.
func (b *RecordingBuzzer) Silence() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return nil
	}
	b.events = append(b.events, ToneEvent{Duty: DutyOff, At: b.now()})
	return nil
}

// Release implements Buzzer.
func (b *RecordingBuzzer) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.released {
		b.events = append(b.events, ToneEvent{Duty: DutyOff, At: b.now()})
	}
	b.released = true
	return nil
}

// Events returns a copy of the recorded calls.
func (b *RecordingBuzzer) Events() []ToneEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]ToneEvent, len(b.events))
	copy(out, b.events)
	return out
}

// Tones returns the frequencies of the audible calls, in order.
func (b *RecordingBuzzer) Tones() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []int
	for _, e := range b.events {
		if e.Duty != DutyOff {
			out = append(out, e.Freq)
		}
	}
	return out
}

// Released reports whether Release was called.
func (b *RecordingBuzzer) Released() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}

// TextDisplay keeps the last shown text.
type TextDisplay struct {
	text  atomic.Pointer[string]
	shows atomic.Int64
}

// NewTextDisplay creates an empty display.
func NewTextDisplay() *TextDisplay {
	return &TextDisplay{}
}

// Show implements Display.
func (d *TextDisplay) Show(text string) error {
	d.text.Store(&text)
	d.shows.Add(1)
	return nil
}

// Text returns the last shown text.
func (d *TextDisplay) Text() string {
	if p := d.text.Load(); p != nil {
		return *p
	}
	return ""
}

// Shows returns how many times the display was refreshed.
func (d *TextDisplay) Shows() int {
	return int(d.shows.Load())
}
