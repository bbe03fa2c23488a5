// Package session wraps a tokenizer and its worker into a reusable
// tokenization session whose results outlive the worker's scratch buffers.
//
// A Session is not safe for concurrent use. Serialise calls, or give each
// goroutine its own Session; sessions built with NewFromDictionary can share
// one read-only Dictionary.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/go-vibrato/internal/dict"
	"github.com/example/go-vibrato/internal/intern"
	"github.com/example/go-vibrato/internal/tokenizer"
)

var (
	// ErrConfiguration wraps every construction failure.
	ErrConfiguration = errors.New("session: configuration error")
	// ErrOutOfRange is returned by TokenList.Get for an index outside [0, Len()).
	ErrOutOfRange = errors.New("session: list index out of range")
)

type options struct {
	ignoreSpace      bool
	maxGroupingLen   uint
	surfaceCacheSize int
	featureCacheSize int
	logger           *slog.Logger
}

func defaultOptions() options {
	return options{logger: slog.Default()}
}

// Option configures a Session.
type Option func(*options)

// WithIgnoreSpace drops SPACE characters from the output. The dictionary
// must define the SPACE category.
func WithIgnoreSpace(yes bool) Option {
	return func(o *options) { o.ignoreSpace = yes }
}

// WithMaxGroupingLen caps the length of grouped unknown words. Zero, the
// default, means unlimited; 24 reproduces MeCab.
func WithMaxGroupingLen(n uint) Option {
	return func(o *options) { o.maxGroupingLen = n }
}

// WithSurfaceCacheSize bounds the surface cache to n entries. Zero, the
// default, keeps every surface for the session's lifetime.
func WithSurfaceCacheSize(n int) Option {
	return func(o *options) { o.surfaceCacheSize = n }
}

// WithFeatureCacheSize bounds the feature cache to n entries. Zero, the
// default, keeps every feature for the session's lifetime.
func WithFeatureCacheSize(n int) Option {
	return func(o *options) { o.featureCacheSize = n }
}

// WithLogger sets the logger used for construction diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// surfaceKey identifies a known word by its lexicon index and an unknown word
// by its text, since unknown identities are not stable across occurrences.
type surfaceKey struct {
	known bool
	index uint32
	text  string
}

// Session owns a Tokenizer, the Worker bound to it, and the intern caches.
type Session struct {
	tokenizer *tokenizer.Tokenizer
	// worker points into tokenizer; heap objects never move, so the pair
	// stays consistent for the session's lifetime.
	worker   *tokenizer.Worker
	surfaces intern.Cache[surfaceKey]
	features intern.Cache[uint32]
}

// New reads a binary dictionary, plain or zstd-compressed, and builds a session over it.
func New(dictData []byte, opts ...Option) (*Session, error) {
	d, err := dict.Read(dictData)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return NewFromDictionary(d, opts...)
}

// NewFromText builds the dictionary from the contents of lex.csv, matrix.def,
// char.def and unk.def.
func NewFromText(lex, matrix, charDef, unkDef string, opts ...Option) (*Session, error) {
	d, err := dict.BuildFromText(
		strings.NewReader(lex),
		strings.NewReader(matrix),
		strings.NewReader(charDef),
		strings.NewReader(unkDef),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return NewFromDictionary(d, opts...)
}

// NewFromDictionary builds a session over an already loaded dictionary.
func NewFromDictionary(d *dict.Dictionary, opts ...Option) (*Session, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	tok, err := tokenizer.New(d).IgnoreSpace(o.ignoreSpace)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	tok = tok.MaxGroupingLen(o.maxGroupingLen)

	o.logger.Debug("session ready",
		slog.Int("words", d.WordCount()),
		slog.Bool("ignore_space", o.ignoreSpace),
		slog.Uint64("max_grouping_len", uint64(o.maxGroupingLen)),
		slog.Int("surface_cache_size", o.surfaceCacheSize),
		slog.Int("feature_cache_size", o.featureCacheSize),
	)

	return &Session{
		tokenizer: tok,
		worker:    tok.NewWorker(),
		surfaces:  intern.New[surfaceKey](o.surfaceCacheSize),
		features:  intern.New[uint32](o.featureCacheSize),
	}, nil
}

// Dictionary returns the session's dictionary.
func (s *Session) Dictionary() *dict.Dictionary { return s.tokenizer.Dictionary() }

// CacheStats reports the activity of the surface and feature caches.
func (s *Session) CacheStats() (surface, feature intern.Stats) {
	return s.surfaces.Stats(), s.features.Stats()
}

func (s *Session) run(text string) {
	s.worker.ResetSentence(text)
	s.worker.Tokenize()
}

// Tokenize segments text. The returned list copies everything it needs out
// of the worker and stays valid across later calls.
func (s *Session) Tokenize(text string) *TokenList {
	s.run(text)
	n := s.worker.NumTokens()
	list := &TokenList{session: s, records: make([]record, n)}
	for i := 0; i < n; i++ {
		tok := s.worker.Token(i)
		start, end := tok.RangeChar()
		list.records[i] = record{
			surface: s.surface(tok),
			start:   start,
			end:     end,
			id:      tok.WordIdentity(),
		}
	}
	return list
}

// TokenizeToSurfaces segments text and returns only the surfaces.
func (s *Session) TokenizeToSurfaces(text string) []string {
	s.run(text)
	n := s.worker.NumTokens()
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = s.surface(s.worker.Token(i))
	}
	return out
}

// surface must copy the token's bytes before they leave the worker.
func (s *Session) surface(tok tokenizer.Token) string {
	id := tok.WordIdentity()
	var key surfaceKey
	switch id.Kind() {
	case dict.KindKnown:
		key = surfaceKey{known: true, index: id.Index()}
	case dict.KindUnknown:
		key = surfaceKey{text: string(tok.SurfaceBytes())}
	default:
		panic("session: invalid word kind " + id.Kind().String())
	}
	return s.surfaces.GetOrInsert(key, func() string {
		if key.known {
			return tok.Surface()
		}
		return key.text
	})
}

// feature resolves a word's feature. Only known words go through the cache.
func (s *Session) feature(id dict.WordIdentity) string {
	switch id.Kind() {
	case dict.KindKnown:
		return s.features.GetOrInsert(id.Index(), func() string {
			return s.Dictionary().WordFeature(id)
		})
	case dict.KindUnknown:
		return s.Dictionary().WordFeature(id)
	default:
		panic("session: invalid word kind " + id.Kind().String())
	}
}
