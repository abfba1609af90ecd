package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults keep the zero-config path working for local development;
	// the database URL has no safe default and must always be supplied.
	v.SetDefault("server.log_level", "info")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("notify.worker_count", 2)
	v.SetDefault("notify.queue_size", 100)
	v.SetDefault("notify.max_attempts", 3)
	v.SetDefault("notify.attempt_timeout_seconds", 60)
	v.SetDefault("notify.retry_backoff_seconds", 5)
	v.SetDefault("notify.window_hours", 24)
	v.SetDefault("notify.from_address", "reminders@taskward.local")
	v.SetDefault("notify.smtp_addr", "")

	// Optional config file next to the binary or in the working directory.
	v.SetConfigName("taskward")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing file is fine; env vars and defaults carry the config.
	}

	// Environment variables with TASKWARD_ prefix override everything,
	// e.g. TASKWARD_DATABASE_URL, TASKWARD_SERVER_LOG_LEVEL.
	v.SetEnvPrefix("TASKWARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about; database.url
	// has no default, so bind it explicitly.
	_ = v.BindEnv("database.url")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
