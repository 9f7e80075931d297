package config

import (
	"fmt"
	"time"
	_ "time/tzdata" // zone database for hosts without one
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	// Driver selects the storage backend.
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	// URL is a postgres connection string, or a file path for sqlite.
	URL                    string `mapstructure:"url" validate:"required"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"gte=0"`
	// AutoMigrate applies pending migrations at startup.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// AuthConfig contains the settings needed to verify access tokens issued by
// the account system.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// SchedulerConfig tunes the spaced repetition engine. Zero values for the
// numeric fields keep the engine defaults.
type SchedulerConfig struct {
	// Timezone is the IANA zone used for calendar-day logic (due today,
	// reviews today, streaks).
	Timezone                string  `mapstructure:"timezone" validate:"required,timezone"`
	FastResponseThresholdMs int     `mapstructure:"fast_response_threshold_ms" validate:"gte=0"`
	InitialEasinessFactor   float64 `mapstructure:"initial_easiness_factor" validate:"omitempty,gte=1.3"`
	MasteredIntervalDays    int     `mapstructure:"mastered_interval_days" validate:"gte=0"`
	LearningRepetitions     int     `mapstructure:"learning_repetitions" validate:"gte=0"`
}

// Location resolves the configured time zone.
func (c SchedulerConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
