package synth

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
)

// gateFetcher blocks each fetch until released and counts underlying calls.
type gateFetcher struct {
	calls   atomic.Int32
	started chan struct{} // receives once per underlying fetch
	release chan struct{} // closed to let fetches proceed
	data    []byte
	err     error
}

func newGateFetcher(data []byte, err error) *gateFetcher {
	return &gateFetcher{
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
		data:    data,
		err:     err,
	}
}

func (f *gateFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	f.calls.Add(1)
	f.started <- struct{}{}
	select {
	case <-f.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func newTestCoordinator(f Fetcher) (*Coordinator, afero.Fs) {
	fs := afero.NewMemMapFs()
	return NewCoordinator(f, NewStager(fs)), fs
}

// TestCoordinatorDedup tests that N concurrent resolves of the same name
// trigger exactly one underlying fetch and all receive the same bytes.
func TestCoordinatorDedup(t *testing.T) {
	fetcher := newGateFetcher([]byte("patch-bytes"), nil)
	coord, _ := newTestCoordinator(fetcher)

	const waiters = 8
	results := make([][]byte, waiters)
	errs := make([]error, waiters)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = coord.Resolve(context.Background(), "piano/0.pat")
	}()

	// Wait for the fetch to be in flight before piling on waiters.
	<-fetcher.started

	for i := 1; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = coord.Resolve(context.Background(), "piano/0.pat")
		}()
	}

	close(fetcher.release)
	wg.Wait()

	if got := fetcher.calls.Load(); got != 1 {
		t.Errorf("underlying fetches = %d, want 1", got)
	}
	for i := 0; i < waiters; i++ {
		if errs[i] != nil {
			t.Fatalf("waiter %d error = %v", i, errs[i])
		}
		if !bytes.Equal(results[i], []byte("patch-bytes")) {
			t.Errorf("waiter %d bytes = %q", i, results[i])
		}
	}
	if got := coord.InFlight(); got != 0 {
		t.Errorf("InFlight() = %d after settle, want 0", got)
	}
}

// TestCoordinatorStagesBeforeSettle tests that a resource is staged by the
// time Resolve returns.
func TestCoordinatorStagesBeforeSettle(t *testing.T) {
	fetcher := newGateFetcher([]byte("bytes"), nil)
	close(fetcher.release)
	coord, fs := newTestCoordinator(fetcher)

	if _, err := coord.Resolve(context.Background(), "drum/35.pat"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if ok, _ := afero.Exists(fs, "drum/35.pat"); !ok {
		t.Error("resource not staged when Resolve settled")
	}
}

// TestCoordinatorFailurePropagation tests that every waiter receives the
// same failure and the pending entry is cleared for a later retry.
func TestCoordinatorFailurePropagation(t *testing.T) {
	cause := errors.New("boom")
	fetcher := newGateFetcher(nil, cause)
	coord, _ := newTestCoordinator(fetcher)

	const waiters = 4
	errs := make([]error, waiters)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errs[0] = coord.Resolve(context.Background(), "drum/35.pat")
	}()
	<-fetcher.started
	for i := 1; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = coord.Resolve(context.Background(), "drum/35.pat")
		}()
	}
	close(fetcher.release)
	wg.Wait()

	for i := 0; i < waiters; i++ {
		var rerr *ResourceError
		if !errors.As(errs[i], &rerr) {
			t.Fatalf("waiter %d error type = %T, want *ResourceError", i, errs[i])
		}
		if rerr.Name != "drum/35.pat" {
			t.Errorf("waiter %d resource = %q, want %q", i, rerr.Name, "drum/35.pat")
		}
		if !errors.Is(errs[i], cause) {
			t.Errorf("waiter %d does not wrap the underlying cause", i)
		}
	}

	// A retry after failure issues a fresh fetch.
	fetcher.err = nil
	fetcher.data = []byte("ok")
	if _, err := coord.Resolve(context.Background(), "drum/35.pat"); err != nil {
		t.Fatalf("retry Resolve() error = %v", err)
	}
	<-fetcher.started
	if got := fetcher.calls.Load(); got != 2 {
		t.Errorf("underlying fetches = %d, want 2", got)
	}
}

// TestCoordinatorWaiterCancellation tests that a waiter's context abandons
// only its own wait.
func TestCoordinatorWaiterCancellation(t *testing.T) {
	fetcher := newGateFetcher([]byte("bytes"), nil)
	coord, _ := newTestCoordinator(fetcher)

	done := make(chan error, 1)
	go func() {
		_, err := coord.Resolve(context.Background(), "piano/0.pat")
		done <- err
	}()
	<-fetcher.started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := coord.Resolve(ctx, "piano/0.pat"); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled waiter error = %v, want context.Canceled", err)
	}

	// The initiating fetch is unaffected.
	close(fetcher.release)
	if err := <-done; err != nil {
		t.Errorf("initiator error = %v", err)
	}
}

// TestCoordinatorDistinctNames tests that different names fetch
// independently.
func TestCoordinatorDistinctNames(t *testing.T) {
	fetcher := newGateFetcher([]byte("bytes"), nil)
	close(fetcher.release)
	coord, _ := newTestCoordinator(fetcher)

	for _, name := range []string{"piano/0.pat", "drum/35.pat"} {
		if _, err := coord.Resolve(context.Background(), name); err != nil {
			t.Fatalf("Resolve(%q) error = %v", name, err)
		}
	}
	if got := fetcher.calls.Load(); got != 2 {
		t.Errorf("underlying fetches = %d, want 2", got)
	}
}

// TestHTTPFetcher tests fetching against a local server.
func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/patches/piano/0.pat":
			_, _ = w.Write([]byte("piano-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL+"/patches/", 5*time.Second)

	got, err := f.Fetch(context.Background(), "piano/0.pat")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(got) != "piano-bytes" {
		t.Errorf("Fetch() = %q, want %q", got, "piano-bytes")
	}

	if _, err := f.Fetch(context.Background(), "missing/1.pat"); err == nil {
		t.Error("Fetch() of missing resource should fail")
	}
}

// TestHTTPFetcherContextCancellation tests that an in-flight fetch aborts
// when the context is canceled.
func TestHTTPFetcherContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	f := NewHTTPFetcher(srv.URL, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := f.Fetch(ctx, "slow.pat"); err == nil {
		t.Error("Fetch() should fail when the context expires")
	}
}
