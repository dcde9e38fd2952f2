package synth

import (
	"errors"
	"fmt"
)

// Common errors for the conversion pipeline.
var (
	// ErrInvalidInput indicates a malformed argument before any engine call.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEngineNotReady indicates the engine has not finished initializing.
	ErrEngineNotReady = errors.New("synthesis engine is not ready")
	// ErrParseFailed indicates the engine rejected the score bytes.
	ErrParseFailed = errors.New("score parse failed")
	// ErrUnresolvedAfterRetry indicates the engine still reported missing
	// resources after the single resolve-and-reparse cycle.
	ErrUnresolvedAfterRetry = errors.New("resources still missing after reparse")

	// Configuration errors
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrInvalidSampleRate = errors.New("invalid sample rate")
	ErrInvalidChannels   = errors.New("invalid number of channels")
	ErrMissingBaseURL    = errors.New("resource base URL missing")
)

// ResourceError indicates a named resource could not be fetched.
type ResourceError struct {
	Name string // Resource name as reported by the engine
	Err  error  // Transport error or non-success response
}

// Error implements the error interface.
func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource %q: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// StagingError indicates fetched bytes could not be written to the staging
// area.
type StagingError struct {
	Name string // Resource name being staged
	Err  error  // Filesystem error
}

// Error implements the error interface.
func (e *StagingError) Error() string {
	return fmt.Sprintf("staging %q: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *StagingError) Unwrap() error {
	return e.Err
}
