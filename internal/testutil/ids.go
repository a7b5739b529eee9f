package testutil

import (
	"fmt"
	"sync"
)

// CountingIDs generates "<prefix>-1", "<prefix>-2", ... for deterministic
// request ids in golden output.
//
// Thread-safety: all methods are safe for concurrent use.
type CountingIDs struct {
	mu     sync.Mutex
	prefix string
	n      int64
}

// NewCountingIDs creates a generator whose first id is "<prefix>-1". An
// empty prefix defaults to "req".
func NewCountingIDs(prefix string) *CountingIDs {
	if prefix == "" {
		prefix = "req"
	}
	return &CountingIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *CountingIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Reset restarts the sequence, so the next id is "<prefix>-1" again.
func (g *CountingIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}

// FixedID returns the same id every time.
type FixedID string

// Generate returns the id.
func (id FixedID) Generate() string { return string(id) }
