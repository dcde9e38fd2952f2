// Package mock provides a scripted synthesis engine for testing and demos.
package mock

import (
	"errors"
	"math"
	"sync"

	"github.com/spf13/afero"

	"github.com/miditone/miditone/synth"
)

// Engine implements synth.Session with scripted, deterministic behavior.
//
// Resource discovery is real: a configured requirement stops being reported
// as missing once the resource exists in the staging filesystem, so the
// parse/resolve/reparse cycle exercises the same paths a native engine
// would.
type Engine struct {
	fs       afero.Fs
	requires []string

	mu sync.Mutex

	// Control for testing
	ready      bool
	parseErr   error
	chunkErr   error
	chunkErrAt int // chunk index the error fires at, -1 = never
	script     []int

	// Call counters
	parseCalls   int
	releaseCalls int
	chunkCalls   int
}

// handle is the engine-side state for one parsed score.
type handle struct {
	opts      synth.RenderOptions
	script    []int
	pos       int
	remaining int
	phase     float64
	released  bool
}

// New creates a mock engine reading resources from the given staging
// filesystem.
func New(fs afero.Fs) *Engine {
	return &Engine{
		fs:         fs,
		ready:      true,
		chunkErrAt: -1,
	}
}

// Ready reports whether the engine accepts conversions.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

// Parse parses score bytes into a handle.
func (e *Engine) Parse(data []byte, opts synth.RenderOptions) (synth.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.parseCalls++
	if e.parseErr != nil {
		return nil, e.parseErr
	}
	if len(data) == 0 {
		return nil, errors.New("empty score")
	}

	h := &handle{opts: opts}
	if e.script != nil {
		h.script = append([]int{}, e.script...)
	} else {
		// Half a second of tone, enough to span multiple chunks at
		// common sample rates.
		h.remaining = opts.SampleRate / 2 * opts.Channels
	}
	return h, nil
}

// MissingResources returns the configured requirements not yet present in
// the staging filesystem, in configuration order.
func (e *Engine) MissingResources(synth.Handle) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var missing []string
	for _, name := range e.requires {
		if ok, err := afero.Exists(e.fs, name); err != nil || !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// StartRender prepares the handle for chunked rendering.
func (e *Engine) StartRender(h synth.Handle) {
	h.(*handle).pos = 0
}

// RenderChunk produces the next chunk of samples, at most capacity.
func (e *Engine) RenderChunk(sh synth.Handle, capacity int) (int, []int16, error) {
	e.mu.Lock()
	call := e.chunkCalls
	e.chunkCalls++
	failAt, failErr := e.chunkErrAt, e.chunkErr
	e.mu.Unlock()

	h := sh.(*handle)
	if h.released {
		return 0, nil, errors.New("render on released handle")
	}
	if failAt >= 0 && call >= failAt {
		return 0, nil, failErr
	}

	var n int
	if h.script != nil {
		if h.pos >= len(h.script) {
			return 0, nil, nil
		}
		n = h.script[h.pos]
		h.pos++
	} else {
		n = min(h.remaining, capacity)
		h.remaining -= n
	}
	if n > capacity {
		n = capacity
	}
	if n == 0 {
		return 0, nil, nil
	}

	samples := make([]int16, capacity)
	step := 2 * math.Pi * 440 / float64(h.opts.SampleRate)
	for i := 0; i < n; i += h.opts.Channels {
		v := int16(0.25 * math.MaxInt16 * math.Sin(h.phase))
		for c := 0; c < h.opts.Channels && i+c < n; c++ {
			samples[i+c] = v
		}
		h.phase += step
	}
	return n, samples, nil
}

// Release frees the handle.
func (e *Engine) Release(sh synth.Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sh.(*handle).released = true
	e.releaseCalls++
}

// Test control methods

// SetReady controls the engine's readiness.
func (e *Engine) SetReady(ready bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ready = ready
}

// Require declares resources every score needs. A resource stops being
// missing once it exists in the staging filesystem.
func (e *Engine) Require(names ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requires = append([]string(nil), names...)
}

// SetScript fixes the valid-sample count of each successive chunk. Counts
// beyond the script end the stream.
func (e *Engine) SetScript(counts ...int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.script = append([]int{}, counts...)
}

// FailParse makes Parse fail with the given error.
func (e *Engine) FailParse(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.parseErr = err
}

// FailChunk makes RenderChunk fail once the given zero-based call index is
// reached.
func (e *Engine) FailChunk(at int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.chunkErrAt, e.chunkErr = at, err
}

// ParseCalls returns the number of Parse calls.
func (e *Engine) ParseCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.parseCalls
}

// ReleaseCalls returns the number of Release calls.
func (e *Engine) ReleaseCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.releaseCalls
}

// ChunkCalls returns the number of RenderChunk calls.
func (e *Engine) ChunkCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chunkCalls
}
