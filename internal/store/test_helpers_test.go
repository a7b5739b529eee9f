package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/hql/internal/catalog"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seededStore returns a store loaded with the shared catalog fixture.
func seededStore(t *testing.T, opts ...Option) (*Store, *catalog.Catalog) {
	t.Helper()
	c, err := catalog.Load(filepath.Join("..", "catalog", "testdata", "catalog.yaml"))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	s := createTestStore(t, opts...)
	if err := s.Seed(context.Background(), c); err != nil {
		t.Fatalf("Seed() failed: %v", err)
	}
	return s, c
}
