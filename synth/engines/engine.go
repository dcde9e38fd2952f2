// Package engines provides constructors for the available synthesis engines.
package engines

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/miditone/miditone/synth"
	"github.com/miditone/miditone/synth/engines/mock"
)

// New creates the named engine session reading resources from staging.
func New(name string, staging afero.Fs) (synth.Session, error) {
	switch name {
	case "", "mock":
		return mock.New(staging), nil
	default:
		return nil, fmt.Errorf("unknown synthesis engine: %q", name)
	}
}

// Available returns the names of the registered engines.
func Available() []string {
	return []string{"mock"}
}
