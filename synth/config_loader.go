package synth

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// LoadConfigFromViper loads conversion configuration from Viper.
func LoadConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	if viper.IsSet("sample_rate") {
		cfg.SampleRate = viper.GetInt("sample_rate")
	}
	if viper.IsSet("channels") {
		cfg.Channels = viper.GetInt("channels")
	}
	if viper.IsSet("engine") {
		cfg.Engine = viper.GetString("engine")
	}
	if viper.IsSet("data_dir") {
		cfg.DataDir = viper.GetString("data_dir")
	}

	// Resource settings
	if viper.IsSet("resources.base_url") {
		cfg.BaseURL = viper.GetString("resources.base_url")
	}
	if viper.IsSet("resources.fetch_timeout") {
		if d, err := time.ParseDuration(viper.GetString("resources.fetch_timeout")); err == nil {
			cfg.FetchTimeout = d
		}
	}
	if viper.IsSet("resources.rate_limit") {
		cfg.FetchRateLimit = viper.GetFloat64("resources.rate_limit")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// SetDefaults sets default values in Viper for conversion configuration.
func SetDefaults() {
	defaults := DefaultConfig()

	viper.SetDefault("sample_rate", defaults.SampleRate)
	viper.SetDefault("channels", defaults.Channels)
	viper.SetDefault("engine", defaults.Engine)
	viper.SetDefault("data_dir", defaults.DataDir)

	viper.SetDefault("resources.base_url", defaults.BaseURL)
	viper.SetDefault("resources.fetch_timeout", defaults.FetchTimeout.String())
	viper.SetDefault("resources.rate_limit", defaults.FetchRateLimit)
}
