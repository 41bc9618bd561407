package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ServeConfig holds process settings read from the environment.
// CLI flags override these when set explicitly.
type ServeConfig struct {
	HTTPAddr    string `env:"DRAGONSLAYER_HTTP_ADDR" envDefault:":8080"`
	SSHAddr     string `env:"DRAGONSLAYER_SSH_ADDR"`
	HostKeyPath string `env:"DRAGONSLAYER_HOST_KEY"`
	DBPath      string `env:"DRAGONSLAYER_DB" envDefault:"~/.dragonslayer/rounds.db"`
	ConfigPath  string `env:"DRAGONSLAYER_CONFIG"`
	LogLevel    string `env:"DRAGONSLAYER_LOG_LEVEL" envDefault:"info"`
	Seed        int64  `env:"DRAGONSLAYER_SEED"`
	Sound       bool   `env:"DRAGONSLAYER_SOUND" envDefault:"false"`
}

// LoadServeConfig loads an optional dotenv file and parses the environment.
// A missing dotenv file is not an error.
func LoadServeConfig(dotenvPath string) (ServeConfig, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return ServeConfig{}, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}

	var cfg ServeConfig
	if err := env.Parse(&cfg); err != nil {
		return ServeConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
