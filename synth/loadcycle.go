package synth

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// score wraps an engine handle with single-release ownership. The engine
// does not promise idempotent release, so release() guards against a second
// call on the failure paths.
type score struct {
	session Session
	handle  Handle
	machine *StateMachine
}

func newScore(session Session, handle Handle) *score {
	return &score{
		session: session,
		handle:  handle,
		machine: NewStateMachine(),
	}
}

// release frees the handle's engine state exactly once.
func (s *score) release() {
	if s.machine.Current() == StateReleased {
		return
	}
	s.session.Release(s.handle)
	s.machine.current = StateReleased
}

// parse creates a score from file bytes, mapping engine rejection to
// ErrParseFailed. No handle exists when an error is returned.
func (c *Converter) parse(data []byte) (*score, error) {
	h, err := c.session.Parse(data, c.opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	return newScore(c.session, h), nil
}

// load drives the two-phase load cycle: parse, discover missing resources,
// resolve them all, and reparse. The engine cannot resume a parse once
// resources appear, so the first handle is always discarded when anything
// was missing.
//
// Exactly one resolution pass is performed. A score that still reports
// missing resources after the reparse fails with ErrUnresolvedAfterRetry
// rather than looping.
func (c *Converter) load(ctx context.Context, data []byte) (*score, error) {
	s, err := c.parse(data)
	if err != nil {
		return nil, err
	}

	missing := c.session.MissingResources(s.handle)
	if len(missing) == 0 {
		return s, nil
	}

	c.logger.Debug("resolving missing resources", "count", len(missing), "names", missing)

	// Fire all fetches, await all. A plain group (no context propagation
	// between siblings) keeps completed siblings staged even when another
	// resource fails, so a later retry does not refetch them.
	var g errgroup.Group
	for _, name := range missing {
		g.Go(func() error {
			_, err := c.coord.Resolve(ctx, name)
			return err
		})
	}
	err = g.Wait()
	s.release()
	if err != nil {
		return nil, err
	}

	s2, err := c.parse(data)
	if err != nil {
		return nil, err
	}
	if still := c.session.MissingResources(s2.handle); len(still) > 0 {
		s2.release()
		return nil, fmt.Errorf("%w: %s", ErrUnresolvedAfterRetry, strings.Join(still, ", "))
	}
	return s2, nil
}
