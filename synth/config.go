package synth

import (
	"fmt"
	"time"
)

// Config holds configuration for the conversion pipeline.
type Config struct {
	// Audio settings
	SampleRate int // Output sample rate in Hz
	Channels   int // Output channel count

	// Resource settings
	BaseURL        string        // Base location instrument resources are fetched from
	FetchTimeout   time.Duration // Per-request timeout for resource fetches
	FetchRateLimit float64       // Max fetches per second, 0 = unlimited

	// Engine selection (used by the CLI)
	Engine string // Engine name, e.g. "mock"

	// DataDir is the on-disk staging directory (used by the CLI).
	DataDir string
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate:   44100,
		Channels:     2,
		BaseURL:      "https://cdn.jsdelivr.net/gh/feross/freepats@1.0.0/",
		FetchTimeout: 30 * time.Second,
		Engine:       "mock",
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	switch c.SampleRate {
	case 8000, 11025, 16000, 22050, 44100, 48000, 88200, 96000:
	default:
		return fmt.Errorf("%w: %d", ErrInvalidSampleRate, c.SampleRate)
	}
	if c.Channels < 1 || c.Channels > 2 {
		return fmt.Errorf("%w: %d", ErrInvalidChannels, c.Channels)
	}
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("%w: negative fetch timeout", ErrInvalidConfig)
	}
	if c.FetchRateLimit < 0 {
		return fmt.Errorf("%w: negative fetch rate limit", ErrInvalidConfig)
	}
	return nil
}

// renderOptions derives the immutable per-conversion options.
func (c Config) renderOptions() RenderOptions {
	return RenderOptions{
		SampleRate: c.SampleRate,
		Channels:   c.Channels,
		ChunkSize:  chunkSamples,
	}
}
