package catalog

import (
	"regexp"
	"strings"
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/roach88/hql/internal/ir"
)

// Matcher tests names against query strings. Compiled patterns are kept in
// an LRU cache shared by every lookup; it is safe for concurrent use.
type Matcher struct {
	mu       sync.Mutex
	patterns *lru.Cache
}

// NewMatcher returns a matcher caching up to size compiled patterns.
func NewMatcher(size int) *Matcher {
	return &Matcher{patterns: lru.New(size)}
}

// Match reports whether name satisfies ms. Precise strings compare exactly;
// others match as a case-insensitive substring with * and ? wildcards, the
// same semantics as the LIKE patterns the translator emits.
func (m *Matcher) Match(ms ir.MetaString, name string) bool {
	if ms.Precise {
		return name == ms.Value
	}
	return m.compile(ms.Value).MatchString(name)
}

// MatchAny reports whether any of names satisfies ms.
func (m *Matcher) MatchAny(ms ir.MetaString, names ...string) bool {
	for _, n := range names {
		if m.Match(ms, n) {
			return true
		}
	}
	return false
}

func (m *Matcher) compile(pattern string) *regexp.Regexp {
	m.mu.Lock()
	defer m.mu.Unlock()
	if re, ok := m.patterns.Get(pattern); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(wildcardExpr(pattern))
	m.patterns.Add(pattern, re)
	return re
}

// Len returns the number of cached patterns.
func (m *Matcher) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.patterns.Len()
}

func wildcardExpr(pattern string) string {
	var b strings.Builder
	b.WriteString(`(?is)`)
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}
