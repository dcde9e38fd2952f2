package synth

import (
	"path"

	"github.com/spf13/afero"
)

// Stager writes fetched resource bytes into the engine's staging area,
// creating missing intermediate directories along the resource path.
type Stager struct {
	fs afero.Fs
}

// NewStager creates a stager over the given staging filesystem. The
// filesystem must be the one the engine reads resources from.
func NewStager(fs afero.Fs) *Stager {
	return &Stager{fs: fs}
}

// Stage writes data to the staging area at the path denoted by name.
// Creating an already-existing directory segment is not an error.
func (s *Stager) Stage(name string, data []byte) error {
	if dir := path.Dir(name); dir != "." && dir != "/" {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return &StagingError{Name: name, Err: err}
		}
	}
	if err := afero.WriteFile(s.fs, name, data, 0o644); err != nil {
		return &StagingError{Name: name, Err: err}
	}
	return nil
}

// Staged reports whether a resource is already present in the staging area.
func (s *Stager) Staged(name string) bool {
	ok, err := afero.Exists(s.fs, name)
	return err == nil && ok
}
