package engines

import (
	"testing"

	"github.com/spf13/afero"
)

// TestNew tests engine construction by name.
func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		engine  string
		wantErr bool
	}{
		{"mock engine", "mock", false},
		{"empty name defaults to mock", "", false},
		{"unknown engine", "fluidsynth", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := New(tt.engine, afero.NewMemMapFs())
			if tt.wantErr {
				if err == nil {
					t.Errorf("New(%q) should fail", tt.engine)
				}
				return
			}
			if err != nil {
				t.Fatalf("New(%q) error = %v", tt.engine, err)
			}
			if session == nil {
				t.Fatal("Expected non-nil session")
			}
			if !session.Ready() {
				t.Error("Fresh session should be ready")
			}
		})
	}
}

// TestAvailable tests that every listed engine constructs.
func TestAvailable(t *testing.T) {
	names := Available()
	if len(names) == 0 {
		t.Fatal("Expected at least one available engine")
	}
	for _, name := range names {
		if _, err := New(name, afero.NewMemMapFs()); err != nil {
			t.Errorf("Available engine %q failed to construct: %v", name, err)
		}
	}
}
