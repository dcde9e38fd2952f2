package synth

import (
	"context"
	"time"
)

// Handle is an opaque engine-side value representing a parsed score bound to
// render options. Handles are exclusively owned by the conversion call that
// created them and become invalid once released.
type Handle interface{}

// Session defines the interface to the synthesis engine.
//
// The engine parses score bytes, enumerates the instrument resources it could
// not resolve from its staging area, renders fixed-capacity chunks of
// interleaved PCM, and releases per-handle state. It has no way to inject
// newly staged resources into an existing handle; a full reparse is required
// after resources are staged.
type Session interface {
	// Ready reports whether the engine has finished initializing.
	Ready() bool

	// Parse parses score bytes against the given render options.
	Parse(data []byte, opts RenderOptions) (Handle, error)

	// MissingResources returns the resource names the engine could not
	// resolve at parse time, empty if the score is fully resolved.
	MissingResources(h Handle) []string

	// StartRender prepares the handle for chunked rendering.
	StartRender(h Handle)

	// RenderChunk renders up to capacity samples into the returned slice.
	// Only the first n samples are valid; n == 0 signals end of stream.
	// The returned slice may be reused by the engine on the next call.
	RenderChunk(h Handle, capacity int) (n int, samples []int16, err error)

	// Release frees the handle's engine-side state. Call exactly once per
	// handle; idempotency is not assumed.
	Release(h Handle)
}

// Fetcher retrieves resource bytes by name.
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// RenderOptions holds the immutable audio parameters for a conversion.
type RenderOptions struct {
	SampleRate int // Output sample rate in Hz
	Channels   int // Number of interleaved channels
	ChunkSize  int // Samples requested per render step
}

// Audio is the result of a conversion: interleaved PCM16 samples.
type Audio struct {
	SampleRate int
	Channels   int
	Samples    []int16
}

// Frames returns the number of sample frames (samples per channel).
func (a *Audio) Frames() int {
	if a.Channels == 0 {
		return 0
	}
	return len(a.Samples) / a.Channels
}

// Duration returns the playback duration of the audio.
func (a *Audio) Duration() time.Duration {
	if a.SampleRate == 0 {
		return 0
	}
	return time.Duration(a.Frames()) * time.Second / time.Duration(a.SampleRate)
}
