// Package engine wires the cabinet devices, the game machine, the sound
// sequencer and the viewer stream into one cooperative loop.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/dragonslayer/internal/broadcast"
	"github.com/vovakirdan/dragonslayer/internal/config"
	"github.com/vovakirdan/dragonslayer/internal/game"
	"github.com/vovakirdan/dragonslayer/internal/hw"
	"github.com/vovakirdan/dragonslayer/internal/input"
	"github.com/vovakirdan/dragonslayer/internal/sched"
	"github.com/vovakirdan/dragonslayer/internal/server"
	"github.com/vovakirdan/dragonslayer/internal/sound"
	"github.com/vovakirdan/dragonslayer/internal/storage"
)

// RoundRecorder persists finished rounds.
type RoundRecorder interface {
	SaveRound(r storage.Round) (int64, error)
}

// Options configures an Engine. Devices and Logger are required.
type Options struct {
	Config   config.Config
	Seed     int64
	HTTPAddr string // Empty disables the viewer server

	Joystick hw.Joystick
	Button   hw.Button
	Buzzer   hw.Buzzer
	Display  hw.Display

	Recorder RoundRecorder // Optional
	Clock    sched.Clock   // Defaults to the real clock
	Logger   *log.Logger
}

// Status is a read-only view of the loop for consoles. It is refreshed once
// per tick and safe to read from any goroutine.
type Status struct {
	State   game.State
	Overlay string
	Ticks   uint64
	Viewer  bool
}

// Engine runs the game loop.
type Engine struct {
	opts Options
	cfg  config.Config

	sched       *sched.Scheduler
	sampler     *input.Sampler
	machine     *game.Machine
	sounds      *sound.Queue
	sequencer   *sound.Sequencer
	broadcaster *broadcast.Broadcaster
	logger      *log.Logger

	status  atomic.Pointer[Status]
	overlay string
	ticks   uint64

	saves sync.WaitGroup
}

// New builds an engine from opts.
func New(opts Options) (*Engine, error) {
	if opts.Joystick == nil || opts.Button == nil || opts.Buzzer == nil || opts.Display == nil {
		return nil, errors.New("engine: all devices are required")
	}
	if opts.Logger == nil {
		return nil, errors.New("engine: logger is required")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if opts.Clock == nil {
		opts.Clock = sched.RealClock()
	}

	tunes, err := sound.NewTunes(opts.Config.Sound)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	cfg := opts.Config
	queue := sound.NewQueue()
	e := &Engine{
		opts:        opts,
		cfg:         cfg,
		sched:       sched.New(opts.Clock, opts.Logger),
		sampler:     input.NewSampler(opts.Joystick, opts.Button, cfg.Input, opts.Logger),
		machine:     game.NewMachine(cfg, game.NewSimulator(cfg, opts.Seed), queue, opts.Clock.Now()),
		sounds:      queue,
		sequencer:   sound.NewSequencer(queue, opts.Buzzer, tunes, cfg.Sound, opts.Logger),
		broadcaster: broadcast.New(opts.Logger),
		logger:      opts.Logger,
	}
	e.publishStatus()
	return e, nil
}

// Broadcaster returns the viewer broadcaster.
func (e *Engine) Broadcaster() *broadcast.Broadcaster {
	return e.broadcaster
}

// Exclusive runs fn between two ticks.
func (e *Engine) Exclusive(ctx context.Context, fn func()) error {
	return e.sched.Exclusive(ctx, fn)
}

// Snapshot copies the game state. Call it from inside Exclusive.
func (e *Engine) Snapshot() game.State {
	return e.machine.Snapshot()
}

// Status returns the state as of the last completed tick.
func (e *Engine) Status() Status {
	st := *e.status.Load()
	st.State = st.State.Clone()
	return st
}

// Run starts the viewer server (if configured) and the loop, and blocks
// until ctx is done or a task fails. The buzzer is silenced and released on
// every exit path.
func (e *Engine) Run(ctx context.Context) error {
	defer e.releaseBuzzer()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var srvErr chan error
	if e.opts.HTTPAddr != "" {
		ln, err := server.Listen(e.opts.HTTPAddr)
		if err != nil {
			return fmt.Errorf("engine: %w", err)
		}
		srv := server.New(e.broadcaster, e, e.Snapshot, e.logger)
		srvErr = make(chan error, 1)
		go func() {
			err := srv.Serve(ctx, ln)
			if err != nil {
				cancel()
			}
			srvErr <- err
		}()
	}

	e.logger.Info("game loop starting", "tick", e.cfg.Timing.TickSleep, "seed", e.opts.Seed)
	runErr := e.sched.Run(ctx,
		sched.Task{Name: "main", Run: e.mainTask},
		sched.Task{Name: "sound", Run: e.sequencer.Run},
	)
	cancel()

	if srvErr != nil {
		if err := <-srvErr; err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("engine: %w", err))
		}
	}
	e.saves.Wait()
	e.logger.Info("game loop stopped")
	return runErr
}

// mainTask is one tick per iteration: sample, simulate, handle the button,
// publish, refresh the overlay, sleep.
func (e *Engine) mainTask(ctx context.Context, y sched.Yielder) error {
	for {
		var in input.Intent
		if e.machine.Running() {
			var err error
			if in, err = e.sampler.Sample(ctx, y); err != nil {
				return err
			}
		}

		now := y.Now()
		res := e.machine.Tick(in, e.sampler.ButtonLevel(), now)
		if res.Started {
			e.logger.Info("round started")
		}
		if res.Finished != nil {
			e.logger.Info("round finished",
				"won", res.Finished.Won,
				"dragon_health", res.Finished.DragonHealth,
				"ticks", res.Finished.Ticks,
			)
			e.record(*res.Finished)
		}

		e.broadcaster.Publish(e.machine.Snapshot())

		if text, ok := e.machine.Overlay(now); ok {
			e.overlay = text
			if err := e.opts.Display.Show(text); err != nil {
				e.logger.Debug("display update failed", "error", err)
			}
		}

		e.ticks++
		e.publishStatus()

		if err := y.Sleep(ctx, e.cfg.Timing.TickSleep); err != nil {
			return err
		}
	}
}

func (e *Engine) publishStatus() {
	e.status.Store(&Status{
		State:   e.machine.Snapshot(),
		Overlay: e.overlay,
		Ticks:   e.ticks,
		Viewer:  e.broadcaster.Attached(),
	})
}

// record saves a round without holding up the tick.
func (e *Engine) record(r game.Round) {
	if e.opts.Recorder == nil {
		return
	}
	e.saves.Add(1)
	go func() {
		defer e.saves.Done()
		_, err := e.opts.Recorder.SaveRound(storage.Round{
			Won:          r.Won,
			DragonHealth: r.DragonHealth,
			PoolSize:     r.PoolSize,
			Ticks:        r.Ticks,
			StartedAt:    r.StartedAt,
			Duration:     r.Duration,
		})
		if err != nil {
			e.logger.Warn("could not record round", "error", err)
		}
	}()
}

func (e *Engine) releaseBuzzer() {
	if err := e.opts.Buzzer.Silence(); err != nil {
		e.logger.Warn("buzzer silence failed", "error", err)
	}
	if err := e.opts.Buzzer.Release(); err != nil {
		e.logger.Warn("buzzer release failed", "error", err)
	}
}
