package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads the game tuning.
// Search order: customPath -> ~/.dragonslayer/config.yaml -> ./configs/dragonslayer.yaml -> embedded default.
// Files are decoded over the defaults, so a partial file only overrides the keys it names.
func Load(customPath string) (Config, error) {
	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		cfg, err := Parse(data)
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath("config.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if cfg, err := Parse(data); err == nil {
				return cfg, nil
			}
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile(filepath.Join("configs", "dragonslayer.yaml")); err == nil {
		if cfg, err := Parse(data); err == nil {
			return cfg, nil
		}
	}

	// Use embedded default YAML
	cfg, err := Parse(defaultYAML)
	if err != nil {
		return Default(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// Parse decodes YAML over the hard-coded defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	// Tunes named in the file replace the default table entry by entry.
	tunes := cfg.Sound.Tunes
	cfg.Sound.Tunes = nil
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	for name, notes := range tunes {
		if _, ok := cfg.Sound.Tunes[name]; !ok {
			if cfg.Sound.Tunes == nil {
				cfg.Sound.Tunes = make(map[string][]Note, len(tunes))
			}
			cfg.Sound.Tunes[name] = notes
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Marshal encodes the configuration as YAML.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// userConfigPath returns the path to a user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".dragonslayer", filename)
}
