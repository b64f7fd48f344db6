package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch" yaml:"dispatch"`
	Selectors SelectorsConfig `mapstructure:"selectors" yaml:"selectors"`
}

// LoggerConfig controls the zap logger set up by internal/observability.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig maps log levels to terminal colors for the console encoder.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig controls the Chrome instance that hosts the provider tabs.
type BrowserConfig struct {
	Headless bool `mapstructure:"headless" yaml:"headless"`
	// UserDataRoot is the directory under which each provider gets its own
	// Chrome profile, keeping sessions distinct and persistent across runs.
	UserDataRoot string        `mapstructure:"user_data_root" yaml:"user_data_root"`
	ExecTimeout  time.Duration `mapstructure:"exec_timeout" yaml:"exec_timeout"`
	// NavigationWait is how long a freshly opened provider tab is given to
	// settle before the first script runs against it.
	NavigationWait time.Duration `mapstructure:"navigation_wait" yaml:"navigation_wait"`
}

// DispatchConfig controls the fan-out behavior of the dispatcher.
type DispatchConfig struct {
	// Concurrency caps how many provider deliveries may execute in the
	// browser at the same time.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
	// SubmissionTimeout is the advisory per-attempt budget used by the
	// timeout sweep.
	SubmissionTimeout time.Duration `mapstructure:"submission_timeout" yaml:"submission_timeout"`
	// ProviderRate is the minimum spacing between consecutive deliveries to
	// the same provider, in deliveries per second.
	ProviderRate float64 `mapstructure:"provider_rate" yaml:"provider_rate"`
	// SweepInterval is how often the submit command polls for timed-out
	// submissions.
	SweepInterval time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
}

// SelectorsConfig points at the provider selector configuration file.
type SelectorsConfig struct {
	// File overrides the embedded default selector set when non-empty.
	File string `mapstructure:"file" yaml:"file"`
}

// SetDefaults initializes default values on the given viper instance.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "promptfan")
	v.SetDefault("logger.log_file", "promptfan.log")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.user_data_root", "")
	v.SetDefault("browser.exec_timeout", "25s")
	v.SetDefault("browser.navigation_wait", "5s")

	// -- Dispatch --
	v.SetDefault("dispatch.concurrency", 3)
	v.SetDefault("dispatch.submission_timeout", "30s")
	v.SetDefault("dispatch.provider_rate", 0.5)
	v.SetDefault("dispatch.sweep_interval", "2s")

	// -- Selectors --
	v.SetDefault("selectors.file", "")
}

// NewDefaultConfig returns a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with defaults only.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper builds and validates a configuration from a viper
// instance that has already read its file and environment.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Dispatch.Concurrency <= 0 {
		return fmt.Errorf("dispatch.concurrency must be a positive integer")
	}
	if c.Dispatch.SubmissionTimeout <= 0 {
		return fmt.Errorf("dispatch.submission_timeout must be a positive duration")
	}
	if c.Dispatch.ProviderRate <= 0 {
		return fmt.Errorf("dispatch.provider_rate must be positive")
	}
	if c.Browser.ExecTimeout <= 0 {
		return fmt.Errorf("browser.exec_timeout must be a positive duration")
	}
	return nil
}
