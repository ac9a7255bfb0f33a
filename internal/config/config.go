package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/KirkDiggler/combat-engine/internal/dice"
)

// Config holds all configuration for the application
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// DataDir is where encounter, ability and participant files are read from
	DataDir string `env:"DATA_DIR" envDefault:"data"`

	Redis  RedisConfig
	Engine EngineConfig
}

// RedisConfig holds Redis-specific configuration. An empty URL selects the
// in-memory repository.
type RedisConfig struct {
	URL string        `env:"REDIS_URL"`
	TTL time.Duration `env:"REDIS_ENCOUNTER_TTL" envDefault:"24h"`
}

// EngineConfig holds the tunable combat rules
type EngineConfig struct {
	BreakMargin         int     `env:"COMBAT_BREAK_MARGIN" envDefault:"5"`
	InterruptDie        string  `env:"COMBAT_INTERRUPT_DIE" envDefault:"1d4"`
	InterruptStat       string  `env:"COMBAT_INTERRUPT_STAT" envDefault:"agility"`
	ResolveRegen        int     `env:"COMBAT_RESOLVE_REGEN" envDefault:"1"`
	DefaultWindowChance float64 `env:"COMBAT_DEFAULT_WINDOW_CHANCE" envDefault:"1"`

	// Seed makes every roll reproducible; zero seeds from the clock
	Seed int64 `env:"COMBAT_SEED"`
}

// DefaultEngineConfig returns the rules used when nothing is configured.
// It matches the envDefault tags above.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		BreakMargin:         5,
		InterruptDie:        "1d4",
		InterruptStat:       "agility",
		ResolveRegen:        1,
		DefaultWindowChance: 1,
	}
}

// IsProduction reports whether the production logger should be used
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the engine settings
func (c *Config) Validate() error {
	if c.Engine.BreakMargin < 1 {
		return fmt.Errorf("COMBAT_BREAK_MARGIN must be at least 1, got %d", c.Engine.BreakMargin)
	}
	if _, _, ok := dice.Parse(c.Engine.InterruptDie); !ok {
		return fmt.Errorf("COMBAT_INTERRUPT_DIE is not a dice expression: %q", c.Engine.InterruptDie)
	}
	if c.Engine.ResolveRegen < 0 {
		return fmt.Errorf("COMBAT_RESOLVE_REGEN cannot be negative, got %d", c.Engine.ResolveRegen)
	}
	if c.Engine.DefaultWindowChance < 0 || c.Engine.DefaultWindowChance > 1 {
		return fmt.Errorf("COMBAT_DEFAULT_WINDOW_CHANCE must be between 0 and 1, got %v", c.Engine.DefaultWindowChance)
	}
	return nil
}

// NewSource returns the dice source the engine rolls with
func (c *Config) NewSource() dice.Source {
	if c.Engine.Seed != 0 {
		return dice.NewSource(c.Engine.Seed)
	}
	return dice.NewRandomSource()
}
