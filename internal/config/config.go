// Package config loads process configuration for the scoutmetrics CLI.
//
// Sources are layered, low to high precedence: built-in defaults, an optional
// YAML file, then SCOUT_* environment variables. Command-line flags are
// applied on top by the cmd package.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/pable/go-scout-metrics/internal/rating"
	"github.com/pable/go-scout-metrics/internal/roles"
)

// ErrInvalidConfig is returned when a loaded value fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// EnvPrefix prefixes every environment override, e.g. SCOUT_MIN_MINUTES.
const EnvPrefix = "SCOUT_"

// EnvConfigFile names the environment variable holding the YAML file path.
const EnvConfigFile = EnvPrefix + "CONFIG"

// Config contains process configuration.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	DB string `koanf:"db"`

	// Role is the default role for score.
	Role       string             `koanf:"role"`
	MinMinutes float64            `koanf:"min_minutes"`
	Budget     float64            `koanf:"budget"`
	Sliders    map[string]float64 `koanf:"sliders"`
	Top        int                `koanf:"top"`

	// RolesFile optionally points at a YAML role catalog merged over the
	// built-in roles.
	RolesFile string `koanf:"roles_file"`

	// LeagueMultipliers override or extend the built-in strength table.
	LeagueMultipliers       map[string]float64 `koanf:"league_multipliers"`
	DefaultLeagueMultiplier float64            `koanf:"default_league_multiplier"`

	// PositionAliases extend the built-in position alias table.
	PositionAliases map[string]string `koanf:"position_aliases"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		DB:                      filepath.Join(userHome(), ".scoutmetrics", "scout.db"),
		Role:                    "CM",
		MinMinutes:              900,
		Budget:                  10,
		Top:                     25,
		DefaultLeagueMultiplier: rating.DefaultLeagueMultiplier,
	}
}

// Load layers defaults, the YAML file at path (or $SCOUT_CONFIG when path is
// empty) and SCOUT_* environment variables, then validates the result.
func Load(path string) (*Config, error) {
	cfg := New()
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// SCOUT_MIN_MINUTES -> min_minutes. Keys stay flat so underscores match
	// the koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load config env: %w", err)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.MinMinutes < 0 || math.IsNaN(c.MinMinutes):
		return fmt.Errorf("%w: min_minutes must be >= 0, got %g", ErrInvalidConfig, c.MinMinutes)
	case !(c.Budget > 0):
		return fmt.Errorf("%w: budget must be > 0, got %g", ErrInvalidConfig, c.Budget)
	case !(c.DefaultLeagueMultiplier > 0):
		return fmt.Errorf("%w: default_league_multiplier must be > 0", ErrInvalidConfig)
	case c.Top < 0:
		return fmt.Errorf("%w: top must be >= 0", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	for g, v := range c.Sliders {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: slider %s must be > 0, got %g", ErrInvalidConfig, g, v)
		}
	}
	for l, v := range c.LeagueMultipliers {
		if !(v > 0) {
			return fmt.Errorf("%w: league multiplier %s must be > 0, got %g", ErrInvalidConfig, l, v)
		}
	}
	return nil
}

// Multipliers returns the built-in league table with the configured entries
// applied on top.
func (c *Config) Multipliers() rating.LeagueMultipliers {
	table := make(map[string]float64)
	for k, v := range rating.DefaultLeagueTable() {
		table[strings.ToLower(k)] = v
	}
	for k, v := range c.LeagueMultipliers {
		table[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return rating.NewLeagueMultipliers(table, c.DefaultLeagueMultiplier)
}

// Aliases returns the built-in position aliases extended by configuration.
func (c *Config) Aliases() roles.Aliases {
	return roles.DefaultAliases().Merge(c.PositionAliases)
}

// Catalog returns the built-in role catalog, merged with RolesFile when set.
func (c *Config) Catalog() (roles.Catalog, error) {
	if c.RolesFile == "" {
		return roles.DefaultCatalog(), nil
	}
	return roles.LoadFile(c.RolesFile, roles.DefaultCatalog())
}

func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
