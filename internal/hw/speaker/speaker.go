// Package speaker drives the buzzer through the host sound card, so the
// cabinet's tunes can be heard when the game runs on a desktop.
package speaker

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/vovakirdan/dragonslayer/internal/hw"
)

const sampleRate = beep.SampleRate(44100)

// Buzzer plays square-wave tones on the default audio output.
type Buzzer struct {
	mu       sync.Mutex
	ctrl     *beep.Ctrl
	released bool
}

// New initialises the speaker and starts a paused output stream.
func New() (*Buzzer, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(20*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("speaker: init: %w", err)
	}

	ctrl := &beep.Ctrl{Streamer: generators.Silence(-1), Paused: true}
	speaker.Play(ctrl)
	return &Buzzer{ctrl: ctrl}, nil
}

// Tone implements hw.Buzzer. Duty maps to loudness; 50% is full volume.
func (b *Buzzer) Tone(freq int, duty uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return hw.ErrReleased
	}
	if freq <= 0 || duty == hw.DutyOff {
		b.pause()
		return nil
	}

	tone, err := generators.SquareTone(sampleRate, float64(freq))
	if err != nil {
		return fmt.Errorf("speaker: tone %d Hz: %w", freq, err)
	}
	gain := float64(duty)/32768 - 1
	if gain > 0 {
		gain = 0
	}

	speaker.Lock()
	b.ctrl.Streamer = &effects.Gain{Streamer: tone, Gain: gain}
	b.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

// Silence implements hw.Buzzer.
func (b *Buzzer) Silence() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.released {
		b.pause()
	}
	return nil
}

// Release implements hw.Buzzer.
func (b *Buzzer) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return nil
	}
	b.pause()
	b.released = true
	speaker.Clear()
	speaker.Close()
	return nil
}

// pause must be called with b.mu held.
func (b *Buzzer) pause() {
	speaker.Lock()
	b.ctrl.Paused = true
	speaker.Unlock()
}
