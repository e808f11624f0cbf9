// Package config loads the engine and shell configuration from YAML with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all configuration.
type Config struct {
	// Logging
	LogLevel string `yaml:"log_level" env:"ANCESTRALPLANE_LOG_LEVEL"`
	LogFile  string `yaml:"log_file"  env:"ANCESTRALPLANE_LOG_FILE"`

	// Seed for realm generation and shade spawns; 0 picks a random seed.
	Seed int64 `yaml:"seed" env:"ANCESTRALPLANE_SEED"`

	// DataDir overrides the embedded game data when set.
	DataDir string `yaml:"data_dir" env:"ANCESTRALPLANE_DATA_DIR"`

	Engine    EngineConfig    `yaml:"engine"`
	Shell     ShellConfig     `yaml:"shell"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// EngineConfig tunes the simulation core.
type EngineConfig struct {
	StartBalance    float64       `yaml:"start_balance"    env:"ANCESTRALPLANE_START_BALANCE"`    // 0 = neutral (50)
	UnlockThreshold float64       `yaml:"unlock_threshold" env:"ANCESTRALPLANE_UNLOCK_THRESHOLD"` // 0 = 75
	RealmTimeLimit  time.Duration `yaml:"realm_time_limit" env:"ANCESTRALPLANE_REALM_TIME_LIMIT"` // 0 = unlimited
	PlayerDamage    float64       `yaml:"player_damage"    env:"ANCESTRALPLANE_PLAYER_DAMAGE"`    // 0 = 10
}

// ShellConfig tunes the terminal front end.
type ShellConfig struct {
	TickRate            int           `yaml:"tick_rate"             env:"ANCESTRALPLANE_TICK_RATE"` // ticks per second
	AttackCooldown      time.Duration `yaml:"attack_cooldown"       env:"ANCESTRALPLANE_ATTACK_COOLDOWN"`
	ShadeAttackCooldown time.Duration `yaml:"shade_attack_cooldown" env:"ANCESTRALPLANE_SHADE_ATTACK_COOLDOWN"`
	MapWidth            int           `yaml:"map_width"             env:"ANCESTRALPLANE_MAP_WIDTH"`
	MapHeight           int           `yaml:"map_height"            env:"ANCESTRALPLANE_MAP_HEIGHT"`
}

// TelemetryConfig configures the OTLP exporter. An empty APIKey disables export.
type TelemetryConfig struct {
	Endpoint string `yaml:"endpoint" env:"ANCESTRALPLANE_OTLP_ENDPOINT"`
	APIKey   string `yaml:"api_key"  env:"HONEYCOMB_ANCESTRALPLANE_API_KEY"`
	Dataset  string `yaml:"dataset"  env:"HONEYCOMB_ANCESTRALPLANE_DATASET"`
}

// Headers returns the OTLP export headers.
func (t TelemetryConfig) Headers() map[string]string {
	if t.APIKey == "" {
		return nil
	}
	return map[string]string{
		"x-honeycomb-team":    t.APIKey,
		"x-honeycomb-dataset": t.Dataset,
	}
}

// Enabled reports whether traces should be exported.
func (t TelemetryConfig) Enabled() bool { return t.APIKey != "" }

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		LogFile:  "ancestralplane.log",
		Engine: EngineConfig{
			StartBalance:    50,
			UnlockThreshold: 75,
			RealmTimeLimit:  0,
			PlayerDamage:    10,
		},
		Shell: ShellConfig{
			TickRate:            20,
			AttackCooldown:      500 * time.Millisecond,
			ShadeAttackCooldown: 1500 * time.Millisecond,
			MapWidth:            60,
			MapHeight:           20,
		},
		Telemetry: TelemetryConfig{
			Endpoint: "https://api.honeycomb.io/v1/traces",
			Dataset:  "ancestralplane",
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ParseEnv overlays environment variables on target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate rejects values the engine cannot run with.
func (c Config) Validate() error {
	var errs []error
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Engine.StartBalance <= 0 || c.Engine.StartBalance > 100 {
		errs = append(errs, fmt.Errorf("%w: start_balance %v outside (0, 100]", ErrInvalid, c.Engine.StartBalance))
	}
	if c.Engine.UnlockThreshold < 0 || c.Engine.UnlockThreshold > 100 {
		errs = append(errs, fmt.Errorf("%w: unlock_threshold %v outside [0, 100]", ErrInvalid, c.Engine.UnlockThreshold))
	}
	if c.Engine.RealmTimeLimit < 0 {
		errs = append(errs, fmt.Errorf("%w: realm_time_limit is negative", ErrInvalid))
	}
	if c.Engine.PlayerDamage <= 0 {
		errs = append(errs, fmt.Errorf("%w: player_damage must be positive", ErrInvalid))
	}
	if c.Shell.TickRate <= 0 || c.Shell.TickRate > 240 {
		errs = append(errs, fmt.Errorf("%w: tick_rate %d outside (0, 240]", ErrInvalid, c.Shell.TickRate))
	}
	if c.Shell.AttackCooldown < 0 || c.Shell.ShadeAttackCooldown < 0 {
		errs = append(errs, fmt.Errorf("%w: cooldowns must not be negative", ErrInvalid))
	}
	if c.Shell.MapWidth < 20 || c.Shell.MapHeight < 10 {
		errs = append(errs, fmt.Errorf("%w: map must be at least 20x10", ErrInvalid))
	}
	return errors.Join(errs...)
}

// TickInterval returns the wall-clock length of one shell tick.
func (s ShellConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(s.TickRate)
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: log_level %q", ErrInvalid, s)
	}
}
