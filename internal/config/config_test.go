package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, "promptfan", cfg.Logger.ServiceName)

	assert.Equal(t, 3, cfg.Dispatch.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Dispatch.SubmissionTimeout)
	assert.Equal(t, 0.5, cfg.Dispatch.ProviderRate)
	assert.Equal(t, 2*time.Second, cfg.Dispatch.SweepInterval)

	assert.Equal(t, 25*time.Second, cfg.Browser.ExecTimeout)
	assert.Equal(t, 5*time.Second, cfg.Browser.NavigationWait)
	assert.False(t, cfg.Browser.Headless)

	assert.Empty(t, cfg.Selectors.File, "embedded defaults are used unless a file is configured")

	require.NoError(t, cfg.Validate(), "defaults must validate")
}

func TestNewConfigFromViperOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("dispatch.concurrency", 1)
	v.Set("dispatch.submission_timeout", "10s")
	v.Set("browser.headless", true)
	v.Set("selectors.file", "custom/providers.json")

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Dispatch.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.Dispatch.SubmissionTimeout)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "custom/providers.json", cfg.Selectors.File)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"zero concurrency", func(c *Config) { c.Dispatch.Concurrency = 0 }, false},
		{"negative concurrency", func(c *Config) { c.Dispatch.Concurrency = -1 }, false},
		{"zero submission timeout", func(c *Config) { c.Dispatch.SubmissionTimeout = 0 }, false},
		{"zero provider rate", func(c *Config) { c.Dispatch.ProviderRate = 0 }, false},
		{"zero exec timeout", func(c *Config) { c.Browser.ExecTimeout = 0 }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestNewConfigFromViperRejectsInvalid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("dispatch.concurrency", 0)

	_, err := NewConfigFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concurrency")
}
