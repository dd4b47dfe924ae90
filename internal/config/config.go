package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Sync     SyncConfig     `mapstructure:"sync" validate:"required"`
	Resolver ResolverConfig `mapstructure:"resolver" validate:"required"`
	Runtime  RuntimeConfig  `mapstructure:"runtime" validate:"required"`
}

// DatabaseConfig contains the local store settings.
type DatabaseConfig struct {
	// Path is the SQLite database file path.
	Path string `mapstructure:"path" validate:"required"`
}

// SyncConfig contains the remote mirror and retry sweep settings.
type SyncConfig struct {
	// RemoteBaseURL is the base URL of the remote mirror API.
	RemoteBaseURL string `mapstructure:"remote_base_url" validate:"required,url"`

	// MaxAttempts caps how many sweep attempts a queue entry gets.
	MaxAttempts int `mapstructure:"max_attempts" validate:"required,gt=0"`

	// SweepInterval is how often the retry sweep runs.
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"required"`

	// Timeout bounds each remote mirror request.
	Timeout time.Duration `mapstructure:"timeout" validate:"required"`
}

// ResolverConfig contains the reference resolver settings.
type ResolverConfig struct {
	// BaseURL is the base URL of the resolver API.
	BaseURL string `mapstructure:"base_url" validate:"required,url"`

	// Timeout bounds each resolver request.
	Timeout time.Duration `mapstructure:"timeout" validate:"required"`
}

// RuntimeConfig contains process-level settings.
type RuntimeConfig struct {
	// LogLevel sets the minimum level for structured logs.
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// Timezone is the user's IANA timezone name; all due calculations run
	// against this calendar.
	Timezone string `mapstructure:"timezone" validate:"required"`
}
