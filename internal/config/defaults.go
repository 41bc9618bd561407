package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/dragonslayer.yaml
var defaultYAML []byte

// Default returns the hard-coded tuning. It matches the embedded YAML and is
// the fallback when that fails to parse.
func Default() Config {
	return Config{
		Screen: ScreenConfig{
			Width:        1440,
			Height:       640,
			GroundMargin: 32,
		},
		Player: PlayerConfig{
			Width:        32,
			Height:       32,
			StartX:       40,
			Step:         8,
			JumpVelocity: -20,
			Gravity:      2,
		},
		Dragon: DragonConfig{
			Width:        64,
			Height:       64,
			X:            1360,
			GroundOffset: 32,
			MaxHealth:    5,
		},
		Fireball: FireballConfig{
			Width:     16,
			Height:    16,
			PoolSize:  3,
			BaseSpeed: 12,
		},
		Difficulty: DifficultyConfig{
			SpawnMinBase:      567,
			SpawnMinPerHealth: 123,
			SpawnMaxPerHealth: 555,
			SpreadHealth:      2,
			SpreadUpPerLevel:  30,
			SpreadDown:        25,
			PoolGrowthDivisor: 2,
		},
		Input: InputConfig{
			Samples:        5,
			SampleInterval: time.Millisecond,
			LowThreshold:   1000,
			HighThreshold:  3000,
			Debounce:       150 * time.Millisecond,
		},
		Timing: TimingConfig{
			TickSleep: 16 * time.Millisecond,
		},
		Sound: SoundConfig{
			Duty:     32768,
			IdlePoll: 10 * time.Millisecond,
			Tunes: map[string][]Note{
				"hit": {
					{Freq: 1000, Duration: 50 * time.Millisecond},
				},
				"win": {
					{Freq: 659, Duration: 100 * time.Millisecond},
					{Freq: 784, Duration: 100 * time.Millisecond},
					{Freq: 1047, Duration: 100 * time.Millisecond},
				},
				"lose": {
					{Freq: 523, Duration: 100 * time.Millisecond},
					{Freq: 392, Duration: 100 * time.Millisecond},
					{Freq: 294, Duration: 100 * time.Millisecond},
				},
			},
		},
	}
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultYAML
}
