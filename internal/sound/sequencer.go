package sound

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/dragonslayer/internal/config"
	"github.com/vovakirdan/dragonslayer/internal/hw"
	"github.com/vovakirdan/dragonslayer/internal/sched"
)

// Tunes maps each event to its ordered tone steps.
type Tunes map[Event][]config.Note

// NewTunes builds the step tables from config. Unknown tune names are an error;
// events without a tune play nothing.
func NewTunes(cfg config.SoundConfig) (Tunes, error) {
	t := make(Tunes, len(cfg.Tunes))
	for name, notes := range cfg.Tunes {
		e, err := ParseEvent(name)
		if err != nil {
			return nil, err
		}
		t[e] = append([]config.Note(nil), notes...)
	}
	return t, nil
}

// Duration returns how long a tune takes to play.
func (t Tunes) Duration(e Event) time.Duration {
	var d time.Duration
	for _, n := range t[e] {
		d += n.Duration
	}
	return d
}

// Sequencer drains a Queue onto a buzzer as a cooperative task.
type Sequencer struct {
	queue    *Queue
	buzzer   hw.Buzzer
	tunes    Tunes
	duty     uint16
	idlePoll time.Duration
	logger   *log.Logger
}

// NewSequencer creates a sequencer.
func NewSequencer(queue *Queue, buzzer hw.Buzzer, tunes Tunes, cfg config.SoundConfig, logger *log.Logger) *Sequencer {
	return &Sequencer{
		queue:    queue,
		buzzer:   buzzer,
		tunes:    tunes,
		duty:     cfg.Duty,
		idlePoll: cfg.IdlePoll,
		logger:   logger,
	}
}

// Run plays events until ctx is done. One event is popped at a time and its
// steps are played in full before the next pop; every step and every idle
// poll is a yield.
func (s *Sequencer) Run(ctx context.Context, y sched.Yielder) error {
	for {
		e, ok := s.queue.Pop()
		if !ok {
			if err := y.Sleep(ctx, s.idlePoll); err != nil {
				return err
			}
			continue
		}
		if err := s.play(ctx, y, e); err != nil {
			return err
		}
	}
}

func (s *Sequencer) play(ctx context.Context, y sched.Yielder, e Event) error {
	s.logger.Debug("playing sound", "event", e)
	for _, n := range s.tunes[e] {
		if n.Freq > 0 {
			if err := s.buzzer.Tone(n.Freq, s.duty); err != nil {
				s.logger.Warn("buzzer tone failed", "event", e, "freq", n.Freq, "error", err)
			}
		}
		if err := y.Sleep(ctx, n.Duration); err != nil {
			return err
		}
		if err := s.buzzer.Silence(); err != nil {
			s.logger.Warn("buzzer silence failed", "event", e, "error", err)
		}
	}
	return nil
}
