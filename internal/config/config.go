// Package config provides Viper-based configuration loading for the dynasty
// simulation daemon.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings for snapshot
// persistence. The database is optional; when Enabled is false the daemon
// runs fully in memory and the remaining fields are not validated.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// SimulationConfig holds the tuning knobs of the simulation core.
type SimulationConfig struct {
	// Seed drives the deterministic dice source. 0 seeds from the clock.
	Seed int64 `mapstructure:"seed"`
	// PlayerFactionID is the faction the victory conditions are evaluated for.
	PlayerFactionID string `mapstructure:"player_faction_id"`
	// TicksPerSeason is the season length in ticks.
	TicksPerSeason int `mapstructure:"ticks_per_season"`
	// GarrisonRecoveryInterval is the tick interval for +1 garrison recovery.
	GarrisonRecoveryInterval int `mapstructure:"garrison_recovery_interval"`
	// NPCIncomeMultiplier scales non-player faction gold income.
	NPCIncomeMultiplier float64 `mapstructure:"npc_income_multiplier"`
	// DiplomaticStreakTicks is the consecutive-tick requirement for a
	// diplomatic victory.
	DiplomaticStreakTicks int `mapstructure:"diplomatic_streak_ticks"`
	// EconomicStreakTicks is the consecutive-tick requirement for an
	// economic victory.
	EconomicStreakTicks int `mapstructure:"economic_streak_ticks"`
	// EconomicGoldShare is the gold-share fraction for an economic victory,
	// in (0, 1].
	EconomicGoldShare float64 `mapstructure:"economic_gold_share"`
	// HistoryDepth bounds the in-memory snapshot ring.
	HistoryDepth int `mapstructure:"history_depth"`
	// CardDir points at a directory of Lua event cards, "" for none.
	CardDir string `mapstructure:"card_dir"`
}

// NarrativeConfig controls the optional per-tick narrative summary.
type NarrativeConfig struct {
	// Enabled turns on Anthropic-backed narration. Requires ANTHROPIC_API_KEY.
	Enabled bool `mapstructure:"enabled"`
	// Model is the Anthropic model name used for summaries.
	Model string `mapstructure:"model"`
	// Timeout bounds a single summary request.
	Timeout time.Duration `mapstructure:"timeout"`
}

// Config is the top-level application configuration.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Narrative  NarrativeConfig  `mapstructure:"narrative"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if c.Database.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSimulation(c.Simulation); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Narrative.Enabled && c.Narrative.Model == "" {
		errs = append(errs, "narrative.model must not be empty when narrative.enabled is true")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.PlayerFactionID == "" {
		errs = append(errs, "simulation.player_faction_id must not be empty")
	}
	if s.TicksPerSeason < 1 {
		errs = append(errs, fmt.Sprintf("simulation.ticks_per_season must be >= 1, got %d", s.TicksPerSeason))
	}
	if s.GarrisonRecoveryInterval < 1 {
		errs = append(errs, fmt.Sprintf("simulation.garrison_recovery_interval must be >= 1, got %d", s.GarrisonRecoveryInterval))
	}
	if s.NPCIncomeMultiplier <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.npc_income_multiplier must be > 0, got %g", s.NPCIncomeMultiplier))
	}
	if s.DiplomaticStreakTicks < 1 {
		errs = append(errs, fmt.Sprintf("simulation.diplomatic_streak_ticks must be >= 1, got %d", s.DiplomaticStreakTicks))
	}
	if s.EconomicStreakTicks < 1 {
		errs = append(errs, fmt.Sprintf("simulation.economic_streak_ticks must be >= 1, got %d", s.EconomicStreakTicks))
	}
	if s.EconomicGoldShare <= 0 || s.EconomicGoldShare > 1 {
		errs = append(errs, fmt.Sprintf("simulation.economic_gold_share must be in (0, 1], got %g", s.EconomicGoldShare))
	}
	if s.HistoryDepth < 1 {
		errs = append(errs, fmt.Sprintf("simulation.history_depth must be >= 1, got %d", s.HistoryDepth))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with DYNASTY_ prefix
	v.SetEnvPrefix("DYNASTY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "dynasty")
	v.SetDefault("database.password", "dynasty")
	v.SetDefault("database.name", "dynasty")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.player_faction_id", "")
	v.SetDefault("simulation.ticks_per_season", 4)
	v.SetDefault("simulation.garrison_recovery_interval", 2)
	v.SetDefault("simulation.npc_income_multiplier", 1.0)
	v.SetDefault("simulation.diplomatic_streak_ticks", 15)
	v.SetDefault("simulation.economic_streak_ticks", 10)
	v.SetDefault("simulation.economic_gold_share", 0.6)
	v.SetDefault("simulation.history_depth", 32)
	v.SetDefault("simulation.card_dir", "")

	v.SetDefault("narrative.enabled", false)
	v.SetDefault("narrative.model", "claude-sonnet-4-5")
	v.SetDefault("narrative.timeout", "2s")
}
