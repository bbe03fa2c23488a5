// Package intern provides compute-or-fetch stores for immutable strings that
// recur across tokenizations, such as the surfaces of common particles and
// the feature strings of frequent words.
//
// Caches are not safe for concurrent use; only Stats may be read from another
// goroutine.
package intern

import (
	"sync/atomic"

	"github.com/golang/groupcache/lru"
)

// Stats counts cache activity since construction.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Cache interns strings by key.
type Cache[K comparable] interface {
	// GetOrInsert returns the value stored for key, calling compute and
	// storing its result when there is none.
	GetOrInsert(key K, compute func() string) string
	// Len is the number of stored entries.
	Len() int
	Stats() Stats
}

// New returns an LRU cache holding at most capacity entries, or an unbounded
// cache when capacity is zero or negative.
func New[K comparable](capacity int) Cache[K] {
	if capacity <= 0 {
		return NewUnbounded[K]()
	}
	return NewLRU[K](capacity)
}

type counters struct {
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// Unbounded never evicts; it grows for the lifetime of its owner.
type Unbounded[K comparable] struct {
	m map[K]string
	counters
}

// NewUnbounded returns an empty unbounded cache.
func NewUnbounded[K comparable]() *Unbounded[K] {
	return &Unbounded[K]{m: make(map[K]string)}
}

func (u *Unbounded[K]) GetOrInsert(key K, compute func() string) string {
	if v, ok := u.m[key]; ok {
		u.hits.Add(1)
		return v
	}
	v := compute()
	u.m[key] = v
	u.misses.Add(1)
	return v
}

func (u *Unbounded[K]) Len() int { return len(u.m) }

func (u *Unbounded[K]) Stats() Stats { return u.snapshot() }

// LRU evicts the least recently used entry once capacity is reached.
type LRU[K comparable] struct {
	c *lru.Cache
	counters
}

// NewLRU returns an empty cache bounded to capacity entries.
func NewLRU[K comparable](capacity int) *LRU[K] {
	l := &LRU[K]{c: lru.New(capacity)}
	l.c.OnEvicted = func(lru.Key, interface{}) { l.evictions.Add(1) }
	return l
}

func (l *LRU[K]) GetOrInsert(key K, compute func() string) string {
	if v, ok := l.c.Get(key); ok {
		l.hits.Add(1)
		return v.(string)
	}
	v := compute()
	l.c.Add(key, v)
	l.misses.Add(1)
	return v
}

func (l *LRU[K]) Len() int { return l.c.Len() }

func (l *LRU[K]) Stats() Stats { return l.snapshot() }
