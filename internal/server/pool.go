package server

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/example/go-vibrato/internal/dict"
	"github.com/example/go-vibrato/internal/intern"
	"github.com/example/go-vibrato/internal/session"
)

// Pool hands out sessions for exclusive use. A Session is not safe for
// concurrent use, so each request borrows one for the length of a single
// tokenization.
type Pool struct {
	sem      *semaphore.Weighted
	free     chan *session.Session
	sessions []*session.Session
}

// NewPool wraps sessions, which must be distinct.
func NewPool(sessions []*session.Session) (*Pool, error) {
	if len(sessions) == 0 {
		return nil, errors.New("session pool needs at least one session")
	}

	p := &Pool{
		sem:      semaphore.NewWeighted(int64(len(sessions))),
		free:     make(chan *session.Session, len(sessions)),
		sessions: sessions,
	}
	for _, s := range sessions {
		p.free <- s
	}

	return p, nil
}

// NewDictionaryPool builds n sessions sharing one read-only dictionary.
func NewDictionaryPool(d *dict.Dictionary, n int, opts ...session.Option) (*Pool, error) {
	if n < 1 {
		return nil, fmt.Errorf("session pool size must be >= 1, got %d", n)
	}

	sessions := make([]*session.Session, n)
	for i := range sessions {
		s, err := session.NewFromDictionary(d, opts...)
		if err != nil {
			return nil, err
		}
		sessions[i] = s
	}

	return NewPool(sessions)
}

// Acquire blocks until a session is free or ctx is done.
func (p *Pool) Acquire(ctx context.Context) (*session.Session, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return <-p.free, nil
}

// Release returns s to the pool. s must have come from Acquire.
func (p *Pool) Release(s *session.Session) {
	p.free <- s
	p.sem.Release(1)
}

// Size is the number of sessions in the pool.
func (p *Pool) Size() int { return len(p.sessions) }

// CacheStats sums the cache counters of every session. Stats are atomic
// counters, so this is safe while sessions are in use.
func (p *Pool) CacheStats() (surface, feature intern.Stats) {
	for _, s := range p.sessions {
		sur, feat := s.CacheStats()
		surface = addStats(surface, sur)
		feature = addStats(feature, feat)
	}
	return surface, feature
}

func addStats(a, b intern.Stats) intern.Stats {
	return intern.Stats{
		Hits:      a.Hits + b.Hits,
		Misses:    a.Misses + b.Misses,
		Evictions: a.Evictions + b.Evictions,
	}
}
