package game

import (
	"math/rand"
	"time"

	"github.com/vovakirdan/dragonslayer/internal/config"
	"github.com/vovakirdan/dragonslayer/internal/input"
	"github.com/vovakirdan/dragonslayer/internal/sound"
)

// Simulator advances a State by one tick.
type Simulator struct {
	cfg        config.Config
	difficulty *config.DifficultyManager
	rng        *rand.Rand
}

// NewSimulator creates a simulator. The seed drives spawn timing and spread.
func NewSimulator(cfg config.Config, seed int64) *Simulator {
	return &Simulator{
		cfg:        cfg,
		difficulty: config.NewDifficultyManager(cfg),
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// Step runs one tick of physics, spawning, projectile movement and
// collisions, in that order, and returns the sound events it raised.
// Callers only step a running round.
func (sim *Simulator) Step(s *State, in input.Intent, now time.Time) []sound.Event {
	sim.move(&s.Player, in)
	sim.applyGravity(&s.Player)

	if s.Dragon.Alive && s.Dragon.Health > 0 {
		sim.spawn(s, now)
	}
	sim.advanceFireballs(s)

	return sim.collide(s)
}

func (sim *Simulator) move(p *Player, in input.Intent) {
	if in.Left {
		p.X = max(0, p.X-sim.cfg.Player.Step)
	}
	if in.Right {
		p.X = min(sim.cfg.MaxPlayerX(), p.X+sim.cfg.Player.Step)
	}
	if in.Jump && p.OnGround {
		p.VY = sim.cfg.Player.JumpVelocity
		p.OnGround = false
	}
}

// applyGravity moves first and accelerates second, so a jump peaks after
// |JumpVelocity|/Gravity ticks.
func (sim *Simulator) applyGravity(p *Player) {
	p.Y += p.VY
	p.VY += sim.cfg.Player.Gravity

	ground := sim.cfg.GroundLevel()
	if p.Y >= ground {
		p.Y = ground
		p.VY = 0
		p.OnGround = true
	}
}

// spawn rolls a fresh interval every tick and fires from the first free
// slot once it has elapsed. LastSpawn only moves when a slot was used.
func (sim *Simulator) spawn(s *State, now time.Time) {
	h := s.Dragon.Health
	lo, hi := sim.difficulty.SpawnBounds(h)
	interval := lo + time.Duration(sim.rng.Int63n(int64((hi-lo)/time.Millisecond)+1))*time.Millisecond
	if now.Sub(s.LastSpawn) < interval {
		return
	}

	for i := range s.Fireballs {
		fb := &s.Fireballs[i]
		if fb.Active {
			continue
		}
		fb.X = s.Dragon.X - sim.cfg.Fireball.Width
		fb.Y = s.Dragon.Y + sim.cfg.Dragon.Height/2
		if spreadLo, spreadHi, ok := sim.difficulty.Spread(h); ok {
			fb.Y += spreadLo + sim.rng.Intn(spreadHi-spreadLo+1)
		}
		fb.Active = true
		s.LastSpawn = now
		return
	}
}

func (sim *Simulator) advanceFireballs(s *State) {
	speed := sim.difficulty.FireballSpeed(s.Dragon.Health)
	for i := range s.Fireballs {
		fb := &s.Fireballs[i]
		if !fb.Active {
			continue
		}
		fb.X -= speed
		if fb.X < -sim.cfg.Fireball.Width {
			fb.Active = false
		}
	}
}

// collide checks the dragon first and then every fireball by slot. A
// fireball touching the hero in the same tick as the killing blow turns the
// win into a loss; both sounds are queued.
func (sim *Simulator) collide(s *State) []sound.Event {
	var events []sound.Event
	hero := s.Player.rect(sim.cfg)

	if s.Dragon.Alive && s.Dragon.Health > 0 && hero.Intersects(s.Dragon.rect(sim.cfg)) {
		s.Dragon.Health--
		if s.Dragon.Health <= 0 {
			s.Dragon.Health = 0
			s.Dragon.Alive = false
			s.Win = true
			s.GameOver = true
			events = append(events, sound.Win)
		} else {
			sim.respawnPlayer(&s.Player)
			s.PoolSize += sim.difficulty.PoolGrowth(s.Dragon.Health)
			s.Fireballs = make([]Fireball, s.PoolSize)
			events = append(events, sound.Hit)
		}
	}

	hero = s.Player.rect(sim.cfg)
	for _, fb := range s.Fireballs {
		if fb.Active && hero.Intersects(fb.rect(sim.cfg)) {
			s.GameOver = true
			s.Win = false
			events = append(events, sound.Lose)
		}
	}
	return events
}

func (sim *Simulator) respawnPlayer(p *Player) {
	*p = Player{
		X:        sim.cfg.Player.StartX,
		Y:        sim.cfg.GroundLevel(),
		OnGround: true,
	}
}
