package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// 1. Defaults
	v.SetDefault("database.path", "memoryd.db")
	v.SetDefault("sync.remote_base_url", "http://localhost:8485")
	v.SetDefault("sync.max_attempts", 8)
	v.SetDefault("sync.sweep_interval", time.Minute)
	v.SetDefault("sync.timeout", 10*time.Second)
	v.SetDefault("resolver.base_url", "http://localhost:8486")
	v.SetDefault("resolver.timeout", 10*time.Second)
	v.SetDefault("runtime.log_level", "info")
	v.SetDefault("runtime.timezone", "UTC")

	// 2. Optional config file in the working directory
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 3. Environment variables with MEMORYD_ prefix, e.g.
	// MEMORYD_SYNC_REMOTE_BASE_URL overrides sync.remote_base_url.
	v.SetEnvPrefix("MEMORYD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Unmarshal
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validate
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
