package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountingIDs(t *testing.T) {
	g := NewCountingIDs("")
	assert.Equal(t, "req-1", g.Generate())
	assert.Equal(t, "req-2", g.Generate())

	g.Reset()
	assert.Equal(t, "req-1", g.Generate())
}

func TestCountingIDs_Concurrent(t *testing.T) {
	g := NewCountingIDs("c")
	seen := make(map[string]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := g.Generate()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 50)
	assert.True(t, seen["c-50"])
}

func TestFixedID(t *testing.T) {
	id := FixedID("req-fixed")
	assert.Equal(t, "req-fixed", id.Generate())
	assert.Equal(t, "req-fixed", id.Generate())
}
