package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEngineConfigMatchesEnvDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, cfg.Engine, DefaultEngineConfig())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Engine.BreakMargin)
	assert.Equal(t, "1d4", cfg.Engine.InterruptDie)
	assert.Equal(t, "agility", cfg.Engine.InterruptStat)
	assert.Equal(t, 1, cfg.Engine.ResolveRegen)
	assert.Equal(t, 1.0, cfg.Engine.DefaultWindowChance)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.Equal(t, "data", cfg.DataDir)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("COMBAT_BREAK_MARGIN", "7")
	t.Setenv("COMBAT_INTERRUPT_DIE", "2d6")
	t.Setenv("COMBAT_RESOLVE_REGEN", "2")
	t.Setenv("COMBAT_DEFAULT_WINDOW_CHANCE", "0.25")
	t.Setenv("COMBAT_SEED", "42")
	t.Setenv("REDIS_URL", "redis://localhost:6379/2")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Engine.BreakMargin)
	assert.Equal(t, "2d6", cfg.Engine.InterruptDie)
	assert.Equal(t, 2, cfg.Engine.ResolveRegen)
	assert.Equal(t, 0.25, cfg.Engine.DefaultWindowChance)
	assert.Equal(t, int64(42), cfg.Engine.Seed)
	assert.Equal(t, "redis://localhost:6379/2", cfg.Redis.URL)
	assert.True(t, cfg.IsProduction())
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "zero margin", key: "COMBAT_BREAK_MARGIN", value: "0"},
		{name: "bad die", key: "COMBAT_INTERRUPT_DIE", value: "d"},
		{name: "negative regen", key: "COMBAT_RESOLVE_REGEN", value: "-1"},
		{name: "chance above one", key: "COMBAT_DEFAULT_WINDOW_CHANCE", value: "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("COMBAT_BREAK_MARGIN", "lots")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestNewSourceIsReproducibleWithSeed(t *testing.T) {
	cfg := &Config{Engine: EngineConfig{Seed: 99}}

	a, b := cfg.NewSource(), cfg.NewSource()
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Int(1, 20), b.Int(1, 20))
	}
}
