// Package synth converts music-notation files into raw PCM samples by
// orchestrating an external synthesis engine.
//
// The engine is treated as a collaborator: it parses a score, reports which
// named instrument resources it is missing, reads resource bytes from an
// addressable staging area, and renders fixed-capacity chunks of audio. The
// package's job is the orchestration around that: deduplicated concurrent
// resource fetches, the parse/resolve/reparse load cycle, and exact-length
// assembly of the chunked render stream.
package synth

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
)

// Converter converts score bytes into interleaved PCM samples.
//
// A Converter is safe for concurrent use: conversion calls share only the
// fetch coordinator, and each call exclusively owns the handles it creates.
type Converter struct {
	session Session
	coord   *Coordinator
	opts    RenderOptions
	logger  *log.Logger
}

// NewConverter creates a converter around the given engine session. The
// staging filesystem must be the one the session resolves resources from.
func NewConverter(session Session, staging afero.Fs, cfg Config) (*Converter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fetcher := NewHTTPFetcher(cfg.BaseURL, cfg.FetchTimeout)
	if cfg.FetchRateLimit > 0 {
		fetcher.SetRateLimit(cfg.FetchRateLimit)
	}

	return &Converter{
		session: session,
		coord:   NewCoordinator(fetcher, NewStager(staging)),
		opts:    cfg.renderOptions(),
		logger:  log.Default(),
	}, nil
}

// SetFetcher replaces the resource fetcher. Useful for alternate transports.
func (c *Converter) SetFetcher(fetcher Fetcher) {
	c.coord = NewCoordinator(fetcher, c.coord.stager)
}

// SetLogger replaces the converter's logger.
func (c *Converter) SetLogger(logger *log.Logger) {
	c.logger = logger
}

// Options returns the render options conversions run with.
func (c *Converter) Options() RenderOptions {
	return c.opts
}

// Convert converts score bytes into audio. Any failure aborts the whole
// call; handles created along the way are released before the error
// propagates. Resources staged by a partially failed call remain staged, so
// invoking Convert again does not refetch them.
func (c *Converter) Convert(ctx context.Context, data []byte) (*Audio, error) {
	if len(data) == 0 {
		return nil, ErrInvalidInput
	}
	if !c.session.Ready() {
		return nil, ErrEngineNotReady
	}

	start := time.Now()

	s, err := c.load(ctx, data)
	if err != nil {
		return nil, err
	}

	samples, err := c.render(s)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("conversion complete",
		"samples", len(samples),
		"size", humanize.Bytes(uint64(len(samples)*2)),
		"elapsed", time.Since(start))

	return &Audio{
		SampleRate: c.opts.SampleRate,
		Channels:   c.opts.Channels,
		Samples:    samples,
	}, nil
}
