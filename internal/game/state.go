// Package game implements the dragon duel: one hero, one dragon and a pool of
// fireballs on a fixed playfield.
package game

import (
	"slices"
	"time"

	"github.com/vovakirdan/dragonslayer/internal/config"
	"github.com/vovakirdan/dragonslayer/internal/core"
)

// Player is the hero.
type Player struct {
	X, Y     int
	VY       int // Vertical velocity, negative is up
	OnGround bool
}

// Dragon sits at the right edge and loses health when touched.
type Dragon struct {
	X, Y   int
	Alive  bool
	Health int
}

// Fireball is one projectile slot. Inactive slots are kept so the pool has a
// stable size and order.
type Fireball struct {
	X, Y   int
	Active bool
}

// State is the authoritative game state. Exactly one instance exists, owned
// by the Machine and replaced wholesale on reset.
type State struct {
	Player    Player
	Dragon    Dragon
	Fireballs []Fireball
	PoolSize  int

	Started  bool
	GameOver bool
	Win      bool

	LastSpawn time.Time
}

// NewState returns the initial state. The round has not started yet.
func NewState(cfg config.Config, now time.Time) State {
	return State{
		Player: Player{
			X:        cfg.Player.StartX,
			Y:        cfg.GroundLevel(),
			OnGround: true,
		},
		Dragon: Dragon{
			X:      cfg.Dragon.X,
			Y:      cfg.DragonY(),
			Alive:  true,
			Health: cfg.Dragon.MaxHealth,
		},
		Fireballs: make([]Fireball, cfg.Fireball.PoolSize),
		PoolSize:  cfg.Fireball.PoolSize,
		LastSpawn: now,
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	s.Fireballs = slices.Clone(s.Fireballs)
	return s
}

// Phase returns the round phase derived from the flags.
func (s State) Phase() Phase {
	switch {
	case !s.Started:
		return PhaseIdle
	case s.GameOver:
		return PhaseOver
	default:
		return PhaseRunning
	}
}

// ActiveFireballs counts live projectiles.
func (s State) ActiveFireballs() int {
	n := 0
	for _, fb := range s.Fireballs {
		if fb.Active {
			n++
		}
	}
	return n
}

func (p Player) rect(cfg config.Config) core.Rect {
	return core.NewRect(p.X, p.Y, cfg.Player.Width, cfg.Player.Height)
}

func (d Dragon) rect(cfg config.Config) core.Rect {
	return core.NewRect(d.X, d.Y, cfg.Dragon.Width, cfg.Dragon.Height)
}

func (f Fireball) rect(cfg config.Config) core.Rect {
	return core.NewRect(f.X, f.Y, cfg.Fireball.Width, cfg.Fireball.Height)
}

// Phase is the state machine's position.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseOver
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseOver:
		return "game over"
	default:
		return "unknown"
	}
}
