package input

import (
	"time"

	"github.com/vovakirdan/dragonslayer/internal/hw"
)

// Debouncer recognizes button presses at most once per interval.
// A held button keeps being reported after each interval elapses; there is
// no release requirement.
type Debouncer struct {
	interval time.Duration
	last     time.Time
	seen     bool
}

// NewDebouncer creates a debouncer with the given minimum spacing.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Press reports whether level at now counts as a new press, and records it
// if so. The first press is always recognized.
func (d *Debouncer) Press(level int, now time.Time) bool {
	if level != hw.LevelPressed {
		return false
	}
	if d.seen && now.Sub(d.last) <= d.interval {
		return false
	}
	d.last = now
	d.seen = true
	return true
}

// LastPress returns when the last press was recognized.
func (d *Debouncer) LastPress() (time.Time, bool) {
	return d.last, d.seen
}
