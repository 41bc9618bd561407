// Package input turns raw cabinet readings into game intents.
package input

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/dragonslayer/internal/config"
	"github.com/vovakirdan/dragonslayer/internal/hw"
	"github.com/vovakirdan/dragonslayer/internal/sched"
)

// Intent is the classified joystick position for one tick.
// The three flags are independent.
type Intent struct {
	Left  bool
	Right bool
	Jump  bool
}

// Sampler averages joystick readings over a short window.
//
// The window is a bounded loop that yields after every reading, so it adds
// Samples × SampleInterval to each tick on top of the loop's fixed sleep.
type Sampler struct {
	joystick hw.Joystick
	button   hw.Button
	cfg      config.InputConfig
	logger   *log.Logger
}

// NewSampler creates a sampler for the given devices.
func NewSampler(joystick hw.Joystick, button hw.Button, cfg config.InputConfig, logger *log.Logger) *Sampler {
	return &Sampler{
		joystick: joystick,
		button:   button,
		cfg:      cfg,
		logger:   logger,
	}
}

// Sample reads both axes cfg.Samples times, yielding cfg.SampleInterval after
// each reading, and classifies the integer averages. A failed reading makes
// the whole window neutral; the next tick tries again. The only error
// returned is the context's.
func (s *Sampler) Sample(ctx context.Context, y sched.Yielder) (Intent, error) {
	n := max(s.cfg.Samples, 1)

	var sumX, sumY int
	var readErr error
	for i := 0; i < n; i++ {
		x, yv, err := s.joystick.ReadAxes()
		if err != nil {
			readErr = err
		} else {
			sumX += x
			sumY += yv
		}
		if err := y.Sleep(ctx, s.cfg.SampleInterval); err != nil {
			return Intent{}, err
		}
	}

	if readErr != nil {
		s.logger.Debug("joystick read failed, skipping tick", "error", readErr)
		return Intent{}, nil
	}
	return s.Classify(sumX/n, sumY/n), nil
}

// Classify maps averaged axis values onto intents.
func (s *Sampler) Classify(x, y int) Intent {
	return Intent{
		Left:  x < s.cfg.LowThreshold,
		Right: x > s.cfg.HighThreshold,
		Jump:  y < s.cfg.LowThreshold,
	}
}

// ButtonLevel reads the button once. A failed read counts as released.
func (s *Sampler) ButtonLevel() int {
	lvl, err := s.button.Level()
	if err != nil {
		s.logger.Debug("button read failed", "error", err)
		return hw.LevelReleased
	}
	return lvl
}
