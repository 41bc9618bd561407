package config

import "time"

// DifficultyManager derives the dragon's aggression from its remaining health.
// Lower health means shorter spawn intervals, faster fireballs, a wider
// vertical spread and a larger fireball pool.
type DifficultyManager struct {
	cfg       DifficultyConfig
	maxHealth int
	baseSpeed int
}

// NewDifficultyManager creates a difficulty manager for the given tuning.
func NewDifficultyManager(cfg Config) *DifficultyManager {
	return &DifficultyManager{
		cfg:       cfg.Difficulty,
		maxHealth: cfg.Dragon.MaxHealth,
		baseSpeed: cfg.Fireball.BaseSpeed,
	}
}

// SpawnBounds returns the inclusive range the spawn interval is drawn from.
func (d *DifficultyManager) SpawnBounds(health int) (lo, hi time.Duration) {
	loMs := d.cfg.SpawnMinBase + health*d.cfg.SpawnMinPerHealth
	hiMs := (health + 1) * d.cfg.SpawnMaxPerHealth
	if hiMs < loMs {
		hiMs = loMs
	}
	return time.Duration(loMs) * time.Millisecond, time.Duration(hiMs) * time.Millisecond
}

// FireballSpeed returns the leftward pixels per tick for the given health.
func (d *DifficultyManager) FireballSpeed(health int) int {
	return d.baseSpeed + (d.maxHealth - health)
}

// Spread returns the inclusive vertical offset range for a new fireball.
// ok is false while the dragon is healthy enough to fire straight.
func (d *DifficultyManager) Spread(health int) (lo, hi int, ok bool) {
	if health > d.cfg.SpreadHealth {
		return 0, 0, false
	}
	lo = -d.cfg.SpreadUpPerLevel * (d.cfg.SpreadHealth + 1 - health)
	return lo, max(d.cfg.SpreadDown, lo), true
}

// PoolGrowth returns how many fireball slots are added after the dragon
// drops to the given health.
func (d *DifficultyManager) PoolGrowth(health int) int {
	if d.cfg.PoolGrowthDivisor <= 0 || health <= 0 {
		return 0
	}
	return health / d.cfg.PoolGrowthDivisor
}
