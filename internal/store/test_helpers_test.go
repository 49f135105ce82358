package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/eir/internal/testutil"
)

// createTestStore opens a store in a temporary directory with sequential
// build IDs.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(testutil.NewSequentialIDGenerator()))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
