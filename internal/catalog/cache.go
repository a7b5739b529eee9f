package catalog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/golang/groupcache/lru"
	"github.com/golang/groupcache/singleflight"

	"github.com/roach88/hql/internal/ir"
	"github.com/roach88/hql/internal/translator"
)

// CachedQueryer memoizes another Queryer's lookups.
//
// Each kind has a generation counter that is part of every cache key.
// FlushCacheOf bumps it, so the next lookup of that kind misses without
// touching entries of other kinds. Concurrent identical lookups share one
// call to the inner queryer.
type CachedQueryer struct {
	inner translator.Queryer

	mu      sync.Mutex
	entries *lru.Cache
	flight  singleflight.Group

	generations map[Kind]*atomic.Uint64

	hits, misses atomic.Uint64
}

var _ translator.Queryer = (*CachedQueryer)(nil)

type cacheEntry struct {
	refs        []translator.ElementRef
	diagnostics []ir.Diagnostic
}

// NewCachedQueryer wraps inner with an LRU of size entries.
func NewCachedQueryer(inner translator.Queryer, size int) *CachedQueryer {
	q := &CachedQueryer{
		inner:       inner,
		entries:     lru.New(size),
		generations: make(map[Kind]*atomic.Uint64, len(Kinds)),
	}
	for _, k := range Kinds {
		q.generations[k] = new(atomic.Uint64)
	}
	return q
}

// FlushCacheOf invalidates every cached lookup of kind. It is cheap and
// safe to call from any goroutine, typically right after a write.
func (q *CachedQueryer) FlushCacheOf(kind Kind) {
	if g, ok := q.generations[kind]; ok {
		g.Add(1)
	}
}

// Stats returns cache hits and misses so far.
func (q *CachedQueryer) Stats() (hits, misses uint64) {
	return q.hits.Load(), q.misses.Load()
}

func (q *CachedQueryer) key(kind Kind, parts ...any) string {
	return fmt.Sprintf("%s/%d/%v", kind, q.generations[kind].Load(), parts)
}

// lookup serves key from the cache or runs fetch once. Diagnostics fetch
// records are stored with the entry and replayed to c on every hit.
func (q *CachedQueryer) lookup(key string, c *ir.Collector, fetch func(*ir.Collector) ([]translator.ElementRef, error)) ([]translator.ElementRef, error) {
	q.mu.Lock()
	cached, ok := q.entries.Get(key)
	q.mu.Unlock()
	if ok {
		q.hits.Add(1)
		entry := cached.(cacheEntry)
		replay(c, entry.diagnostics)
		return entry.refs, nil
	}

	v, err := q.flight.Do(key, func() (any, error) {
		q.misses.Add(1)
		sub := ir.NewCollector(ir.StageTranslator)
		refs, err := fetch(sub)
		if err != nil {
			return nil, err
		}
		entry := cacheEntry{refs: refs, diagnostics: append(sub.Errors(), sub.Warnings()...)}
		q.mu.Lock()
		q.entries.Add(key, entry)
		q.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	entry := v.(cacheEntry)
	replay(c, entry.diagnostics)
	return entry.refs, nil
}

func replay(c *ir.Collector, ds []ir.Diagnostic) {
	for _, d := range ds {
		if d.IsError() {
			c.Errorf(d.Code, d.Span, "%s", d.Message)
		} else {
			c.Warnf(d.Code, d.Span, "%s", d.Message)
		}
	}
}

func (q *CachedQueryer) FindTag(ctx context.Context, v ir.MetaValue, limit int, c *ir.Collector) ([]translator.ElementTag, error) {
	return q.lookup(q.key(KindTag, limit, fmt.Sprintf("%T", v), v.String()), c, func(sub *ir.Collector) ([]translator.ElementRef, error) {
		return q.inner.FindTag(ctx, v, limit, sub)
	})
}

func (q *CachedQueryer) FindTopic(ctx context.Context, v ir.SimpleMetaValue, limit int, c *ir.Collector) ([]translator.ElementTopic, error) {
	return q.lookup(q.key(KindTopic, limit, v.String()), c, func(sub *ir.Collector) ([]translator.ElementRef, error) {
		return q.inner.FindTopic(ctx, v, limit, sub)
	})
}

func (q *CachedQueryer) FindAuthor(ctx context.Context, v ir.SingleMetaValue, limit int, c *ir.Collector) ([]translator.ElementAuthor, error) {
	return q.lookup(q.key(KindAuthor, limit, v.String()), c, func(sub *ir.Collector) ([]translator.ElementRef, error) {
		return q.inner.FindAuthor(ctx, v, limit, sub)
	})
}

func (q *CachedQueryer) FindAnnotation(ctx context.Context, name ir.MetaString, types ir.MetaTypes, limit int, c *ir.Collector) ([]translator.ElementAnnotation, error) {
	return q.lookup(q.key(KindAnnotation, limit, name.String(), types.String()), c, func(sub *ir.Collector) ([]translator.ElementRef, error) {
		return q.inner.FindAnnotation(ctx, name, types, limit, sub)
	})
}
