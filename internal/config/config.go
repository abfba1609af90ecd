package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Notify   NotifyConfig   `mapstructure:"notify"   validate:"required"`
}

// ServerConfig contains process-level configuration settings.
type ServerConfig struct {
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url"            validate:"required"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// NotifyConfig contains settings for the notification queue and the
// deadline scanner defaults.
type NotifyConfig struct {
	// WorkerCount determines how many concurrent workers deliver notifications.
	WorkerCount int `mapstructure:"worker_count" validate:"gte=1"`

	// QueueSize determines the buffer size for the in-memory notification queue.
	QueueSize int `mapstructure:"queue_size" validate:"gte=1"`

	// MaxAttempts is the delivery retry budget per notification.
	MaxAttempts int `mapstructure:"max_attempts" validate:"gte=1"`

	// AttemptTimeoutSeconds is the hard per-attempt execution timeout.
	AttemptTimeoutSeconds int `mapstructure:"attempt_timeout_seconds" validate:"gte=1"`

	// RetryBackoffSeconds is the fixed delay between delivery attempts.
	RetryBackoffSeconds int `mapstructure:"retry_backoff_seconds" validate:"gte=0"`

	// WindowHours is the default deadline-scan window.
	WindowHours int `mapstructure:"window_hours" validate:"gte=1"`

	// FromAddress is the sender address stamped on outgoing reminders.
	FromAddress string `mapstructure:"from_address" validate:"required,email"`

	// SMTPAddr is the host:port of the outgoing mail server. When empty,
	// reminders are logged instead of sent.
	SMTPAddr string `mapstructure:"smtp_addr"`
}
