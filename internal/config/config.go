// Package config loads the runtime settings for the battle runner.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/redstrait/internal/world"
)

// Config holds all runtime settings.
type Config struct {
	Seed     int64  `yaml:"seed"`     // 0 draws a random seed
	DBPath   string `yaml:"db_path"`  // empty disables saving
	Scenario string `yaml:"scenario"` // empty uses the embedded scenario

	// Human is the faction awaiting outside input. Empty plays AI against AI.
	Human    string `yaml:"human"`
	MaxTurns int    `yaml:"max_turns"` // overrides the scenario when > 0

	Autosave bool          `yaml:"autosave"` // save after every full turn
	Pace     time.Duration `yaml:"pace"`     // minimum wall time per half-turn
	LogLevel string        `yaml:"log_level"`

	// AutoAcknowledge closes non-silent scripted events immediately.
	AutoAcknowledge bool `yaml:"auto_acknowledge"`

	// HTTPAddr serves the read-only observer API, e.g. ":8080". Empty
	// disables it. Needs DBPath.
	HTTPAddr    string   `yaml:"http_addr"`
	CORSOrigins []string `yaml:"cors_origins"`
	RateLimit   int      `yaml:"rate_limit"` // requests per minute per client, 0 = unlimited
}

// Default returns the config with sensible defaults.
func Default() Config {
	return Config{
		Seed:            0,
		DBPath:          "data/redstrait.db",
		Autosave:        true,
		LogLevel:        "info",
		AutoAcknowledge: true,
		RateLimit:       120,
	}
}

// Load loads config from a YAML file.
// If the file doesn't exist, returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if _, err := cfg.HumanFaction(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if _, err := cfg.Level(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.HTTPAddr != "" && cfg.DBPath == "" {
		return cfg, fmt.Errorf("config %s: http_addr needs db_path", path)
	}
	return cfg, nil
}

// HumanFaction returns the human side, or Neutral when both sides are AI.
func (c Config) HumanFaction() (world.Faction, error) {
	if c.Human == "" {
		return world.FactionNeutral, nil
	}
	f, err := world.ParseFaction(c.Human)
	if err != nil {
		return world.FactionNeutral, fmt.Errorf("human: %w", err)
	}
	return f, nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}
