package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 75.0, cfg.Engine.UnlockThreshold)
	assert.Equal(t, 50.0, cfg.Engine.StartBalance)
	assert.Equal(t, 50*time.Millisecond, cfg.Shell.TickInterval())
	assert.False(t, cfg.Telemetry.Enabled())
	assert.Nil(t, cfg.Telemetry.Headers())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, `
log_level: debug
seed: 42
engine:
  unlock_threshold: 80
  realm_time_limit: 90s
shell:
  attack_cooldown: 250ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 80.0, cfg.Engine.UnlockThreshold)
	assert.Equal(t, 90*time.Second, cfg.Engine.RealmTimeLimit)
	assert.Equal(t, 250*time.Millisecond, cfg.Shell.AttackCooldown)
	assert.Equal(t, 50.0, cfg.Engine.StartBalance, "unset keys keep defaults")
	assert.Equal(t, 20, cfg.Shell.TickRate)
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	path := writeFile(t, "seed: 42\n")
	t.Setenv("ANCESTRALPLANE_SEED", "7")
	t.Setenv("ANCESTRALPLANE_REALM_TIME_LIMIT", "2m")
	t.Setenv("HONEYCOMB_ANCESTRALPLANE_API_KEY", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 2*time.Minute, cfg.Engine.RealmTimeLimit)
	assert.True(t, cfg.Telemetry.Enabled())
	assert.Equal(t, map[string]string{
		"x-honeycomb-team":    "secret",
		"x-honeycomb-dataset": "ancestralplane",
	}, cfg.Telemetry.Headers())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeFile(t, "engine: [not, a, map]\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "engine:\n  unlock_threshold: 120\n"))
	assert.ErrorIs(t, err, ErrInvalid)

	t.Setenv("ANCESTRALPLANE_TICK_RATE", "fast")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"start balance", func(c *Config) { c.Engine.StartBalance = -1 }},
		{"zero start balance", func(c *Config) { c.Engine.StartBalance = 0 }},
		{"time limit", func(c *Config) { c.Engine.RealmTimeLimit = -time.Second }},
		{"player damage", func(c *Config) { c.Engine.PlayerDamage = 0 }},
		{"tick rate", func(c *Config) { c.Shell.TickRate = 0 }},
		{"cooldown", func(c *Config) { c.Shell.AttackCooldown = -time.Millisecond }},
		{"map size", func(c *Config) { c.Shell.MapWidth = 5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	lvl, err = ParseLevel("warning")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)

	_, err = ParseLevel("verbose")
	assert.ErrorIs(t, err, ErrInvalid)
}
