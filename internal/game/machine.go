package game

import (
	"fmt"
	"time"

	"github.com/vovakirdan/dragonslayer/internal/config"
	"github.com/vovakirdan/dragonslayer/internal/input"
	"github.com/vovakirdan/dragonslayer/internal/sound"
)

// Round summarizes a finished round.
type Round struct {
	Won          bool
	DragonHealth int
	PoolSize     int
	Ticks        int
	StartedAt    time.Time
	Duration     time.Duration
}

// TickResult reports what happened during one Machine.Tick.
type TickResult struct {
	Pressed  bool   // A debounced press was recognized
	Started  bool   // The press started a new round
	Finished *Round // Set on the tick the round ended
}

// Machine owns the game state and drives Idle → Running → GameOver.
// It is not safe for concurrent use; only the main task calls it.
type Machine struct {
	cfg      config.Config
	sim      *Simulator
	sounds   *sound.Queue
	debounce *input.Debouncer

	state State

	// Round bookkeeping
	roundStart time.Time
	roundTicks int

	// Session timer overlay
	timerOn    bool
	timerStart time.Time
	lastShown  int
}

// NewMachine creates a machine in the Idle phase.
func NewMachine(cfg config.Config, sim *Simulator, sounds *sound.Queue, now time.Time) *Machine {
	return &Machine{
		cfg:       cfg,
		sim:       sim,
		sounds:    sounds,
		debounce:  input.NewDebouncer(cfg.Input.Debounce),
		state:     NewState(cfg, now),
		lastShown: -1,
	}
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	return m.state.Phase()
}

// Running reports whether the simulation advances this tick.
func (m *Machine) Running() bool {
	return m.state.Phase() == PhaseRunning
}

// Tick steps the simulation when running, then handles the button.
// A press recognized on the tick a round ends starts the next round at once.
func (m *Machine) Tick(in input.Intent, level int, now time.Time) TickResult {
	var res TickResult

	if m.Running() {
		m.roundTicks++
		for _, e := range m.sim.Step(&m.state, in, now) {
			m.sounds.Push(e)
		}
		if m.state.GameOver {
			res.Finished = m.finishRound(now)
		}
	}

	if m.debounce.Press(level, now) {
		res.Pressed = true
		res.Started = m.press(now)
	}
	return res
}

// press applies a recognized press and reports whether it started a round.
// Presses while running change nothing.
func (m *Machine) press(now time.Time) bool {
	switch m.state.Phase() {
	case PhaseIdle:
	case PhaseOver:
		m.state = NewState(m.cfg, now)
	default:
		return false
	}

	m.state.Started = true
	m.roundStart = now
	m.roundTicks = 0

	m.timerOn = true
	m.timerStart = now
	m.lastShown = -1
	return true
}

func (m *Machine) finishRound(now time.Time) *Round {
	return &Round{
		Won:          m.state.Win,
		DragonHealth: m.state.Dragon.Health,
		PoolSize:     m.state.PoolSize,
		Ticks:        m.roundTicks,
		StartedAt:    m.roundStart,
		Duration:     now.Sub(m.roundStart),
	}
}

// Overlay returns the session timer text when the displayed seconds changed
// since the last call that returned ok. The timer keeps running through
// game-over and restarts only when a round starts.
func (m *Machine) Overlay(now time.Time) (text string, ok bool) {
	if !m.timerOn {
		return "", false
	}
	elapsed := max(int(now.Sub(m.timerStart)/time.Second), 0)
	sec := elapsed % 60
	if sec == m.lastShown {
		return "", false
	}
	m.lastShown = sec
	return FormatElapsed(elapsed), true
}

// FormatElapsed renders whole seconds as minutes:seconds.
func FormatElapsed(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() State {
	return m.state.Clone()
}
