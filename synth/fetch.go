package synth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Coordinator deduplicates concurrent fetches of the same resource name.
//
// For all concurrent Resolve calls with an identical name, the underlying
// fetch happens at most once. Every waiter receives the same bytes or the
// same failure. On success the bytes are staged before the pending entry is
// cleared, so a waiter's Resolve never settles before the resource is
// visible to the engine.
type Coordinator struct {
	fetcher Fetcher
	stager  *Stager

	mu      sync.Mutex
	pending map[string]*pendingFetch
}

// pendingFetch is a settle-once entry shared by all waiters of one name.
type pendingFetch struct {
	done chan struct{} // closed when the fetch settles
	data []byte
	err  error
}

// NewCoordinator creates a coordinator that fetches through fetcher and
// stages results through stager.
func NewCoordinator(fetcher Fetcher, stager *Stager) *Coordinator {
	return &Coordinator{
		fetcher: fetcher,
		stager:  stager,
		pending: make(map[string]*pendingFetch),
	}
}

// Resolve fetches and stages the named resource, joining an in-flight fetch
// for the same name if one exists.
//
// The underlying fetch runs on the initiating caller's context: cancelling
// the initiator settles the entry with the cancellation error for every
// waiter. A waiter's own context only abandons its wait.
func (c *Coordinator) Resolve(ctx context.Context, name string) ([]byte, error) {
	c.mu.Lock()
	if p, ok := c.pending[name]; ok {
		c.mu.Unlock()
		select {
		case <-p.done:
			return p.data, p.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	p := &pendingFetch{done: make(chan struct{})}
	c.pending[name] = p
	c.mu.Unlock()

	data, err := c.fetcher.Fetch(ctx, name)
	if err != nil {
		err = &ResourceError{Name: name, Err: err}
	} else if serr := c.stager.Stage(name, data); serr != nil {
		data, err = nil, serr
	}
	p.data, p.err = data, err

	c.mu.Lock()
	delete(c.pending, name)
	c.mu.Unlock()
	close(p.done)

	return p.data, p.err
}

// InFlight returns the number of outstanding fetches.
func (c *Coordinator) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// HTTPFetcher retrieves resources by name relative to a base URL.
type HTTPFetcher struct {
	base    string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPFetcher creates a fetcher for the given base URL. A timeout of zero
// disables the client timeout.
func NewHTTPFetcher(baseURL string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		base:   baseURL,
		client: &http.Client{Timeout: timeout},
	}
}

// SetRateLimit caps fetches at rps requests per second. Zero or negative
// removes the cap.
func (f *HTTPFetcher) SetRateLimit(rps float64) {
	if rps <= 0 {
		f.limiter = nil
		return
	}
	f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
}

// Fetch retrieves the named resource, failing on any non-success status.
func (f *HTTPFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	target, err := url.JoinPath(f.base, name)
	if err != nil {
		return nil, fmt.Errorf("resolve resource URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch resource: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP status %d for %s", resp.StatusCode, target)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read resource body: %w", err)
	}
	return data, nil
}
