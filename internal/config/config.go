// Package config provides YAML-based tuning for the dragon game and the
// process settings read from the environment.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config contains all tuning for the game loop.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Player     PlayerConfig     `yaml:"player"`
	Dragon     DragonConfig     `yaml:"dragon"`
	Fireball   FireballConfig   `yaml:"fireball"`
	Difficulty DifficultyConfig `yaml:"difficulty"`
	Input      InputConfig      `yaml:"input"`
	Timing     TimingConfig     `yaml:"timing"`
	Sound      SoundConfig      `yaml:"sound"`
}

// ScreenConfig defines the playfield in pixels.
type ScreenConfig struct {
	Width        int `yaml:"width"`
	Height       int `yaml:"height"`
	GroundMargin int `yaml:"ground_margin"` // Pixels between the ground line and the bottom edge
}

// PlayerConfig defines the hero's size and movement.
type PlayerConfig struct {
	Width        int `yaml:"width"`
	Height       int `yaml:"height"`
	StartX       int `yaml:"start_x"`
	Step         int `yaml:"step"`          // Horizontal pixels per tick
	JumpVelocity int `yaml:"jump_velocity"` // Negative is up
	Gravity      int `yaml:"gravity"`       // Added to vertical velocity every tick
}

// DragonConfig defines the dragon's size, placement and health.
type DragonConfig struct {
	Width        int `yaml:"width"`
	Height       int `yaml:"height"`
	X            int `yaml:"x"`
	GroundOffset int `yaml:"ground_offset"` // How far the dragon sinks below the ground line
	MaxHealth    int `yaml:"max_health"`
}

// FireballConfig defines projectile size, initial pool and speed.
type FireballConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	PoolSize  int `yaml:"pool_size"`
	BaseSpeed int `yaml:"base_speed"`
}

// DifficultyConfig shapes how the dragon gets more aggressive as it loses
// health. Health is the only input to the curve.
type DifficultyConfig struct {
	SpawnMinBase      int `yaml:"spawn_min_base"`       // ms
	SpawnMinPerHealth int `yaml:"spawn_min_per_health"` // ms added per remaining health point
	SpawnMaxPerHealth int `yaml:"spawn_max_per_health"` // ms, multiplied by (health+1)
	SpreadHealth      int `yaml:"spread_health"`        // Vertical spread unlocks at or below this health
	SpreadUpPerLevel  int `yaml:"spread_up_per_level"`
	SpreadDown        int `yaml:"spread_down"`
	PoolGrowthDivisor int `yaml:"pool_growth_divisor"`
}

// InputConfig defines joystick sampling and button debounce.
type InputConfig struct {
	Samples        int           `yaml:"samples"`
	SampleInterval time.Duration `yaml:"sample_interval"`
	LowThreshold   int           `yaml:"low_threshold"`
	HighThreshold  int           `yaml:"high_threshold"`
	Debounce       time.Duration `yaml:"debounce"`
}

// TimingConfig defines the main loop pacing.
type TimingConfig struct {
	TickSleep time.Duration `yaml:"tick_sleep"`
}

// SoundConfig defines buzzer output and the tune for each sound event.
type SoundConfig struct {
	Duty     uint16            `yaml:"duty"`
	IdlePoll time.Duration     `yaml:"idle_poll"`
	Tunes    map[string][]Note `yaml:"tunes"`
}

// Note is one buzzer step. A zero frequency is a rest.
type Note struct {
	Freq     int           `yaml:"freq"`
	Duration time.Duration `yaml:"duration"`
}

// GroundLevel returns the player's resting Y coordinate.
func (c Config) GroundLevel() int {
	return c.Screen.Height - c.Player.Height - c.Screen.GroundMargin
}

// DragonY returns the dragon's fixed Y coordinate.
func (c Config) DragonY() int {
	return c.GroundLevel() - c.Dragon.Height + c.Dragon.GroundOffset
}

// MaxPlayerX returns the right-most X the player may occupy.
func (c Config) MaxPlayerX() int {
	return c.Screen.Width - c.Player.Width
}

// Validate rejects tuning the game loop cannot run with.
func (c Config) Validate() error {
	var errs []error
	positive := func(name string, v int) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	positive("screen.width", c.Screen.Width)
	positive("screen.height", c.Screen.Height)
	positive("player.width", c.Player.Width)
	positive("player.height", c.Player.Height)
	positive("player.step", c.Player.Step)
	positive("player.gravity", c.Player.Gravity)
	positive("dragon.width", c.Dragon.Width)
	positive("dragon.height", c.Dragon.Height)
	positive("dragon.max_health", c.Dragon.MaxHealth)
	positive("fireball.width", c.Fireball.Width)
	positive("fireball.height", c.Fireball.Height)
	positive("fireball.pool_size", c.Fireball.PoolSize)
	positive("difficulty.pool_growth_divisor", c.Difficulty.PoolGrowthDivisor)
	positive("input.samples", c.Input.Samples)

	nonNegative := func(name string, v int) {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %d", name, v))
		}
	}
	nonNegative("difficulty.spread_health", c.Difficulty.SpreadHealth)
	nonNegative("difficulty.spread_up_per_level", c.Difficulty.SpreadUpPerLevel)
	nonNegative("difficulty.spread_down", c.Difficulty.SpreadDown)

	if c.Player.JumpVelocity >= 0 {
		errs = append(errs, fmt.Errorf("player.jump_velocity must be negative, got %d", c.Player.JumpVelocity))
	}
	if c.GroundLevel() < 0 {
		errs = append(errs, errors.New("screen.height too small for player and ground margin"))
	}
	if c.Input.LowThreshold >= c.Input.HighThreshold {
		errs = append(errs, fmt.Errorf("input.low_threshold (%d) must be below input.high_threshold (%d)",
			c.Input.LowThreshold, c.Input.HighThreshold))
	}
	if c.Timing.TickSleep <= 0 {
		errs = append(errs, errors.New("timing.tick_sleep must be positive"))
	}
	if c.Sound.IdlePoll <= 0 {
		errs = append(errs, errors.New("sound.idle_poll must be positive"))
	}
	for name, notes := range c.Sound.Tunes {
		for i, n := range notes {
			if n.Freq < 0 || n.Duration <= 0 {
				errs = append(errs, fmt.Errorf("sound.tunes.%s[%d]: invalid note %+v", name, i, n))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
