// Package tokenizer segments text into words by searching a lattice of
// lexicon matches and unknown-word candidates for the lowest-cost path.
//
// A Tokenizer is immutable and may be shared. Each Worker is bound to one
// Tokenizer, owns the scratch buffers of a single tokenization, and must not
// be used from more than one goroutine at a time.
package tokenizer

import (
	"errors"
	"fmt"

	"github.com/example/go-vibrato/internal/dict"
)

// ErrSpaceUndefined is returned by IgnoreSpace when char.def has no SPACE category.
var ErrSpaceUndefined = errors.New("tokenizer: " + dict.SpaceCategory + " category is not defined in char.def")

// Tokenizer holds a dictionary and the segmentation options.
type Tokenizer struct {
	dict           *dict.Dictionary
	ignoreSpace    bool
	spaceID        uint8
	maxGroupingLen int
}

// New returns a tokenizer over d with default options: spaces are kept and
// unknown-word grouping is unlimited.
func New(d *dict.Dictionary) *Tokenizer {
	return &Tokenizer{dict: d}
}

// IgnoreSpace returns a copy of t that drops SPACE characters from the output
// instead of emitting them as tokens. It fails when the dictionary does not
// define the SPACE category.
func (t *Tokenizer) IgnoreSpace(yes bool) (*Tokenizer, error) {
	c := *t
	c.ignoreSpace = yes
	if yes {
		id, ok := t.dict.CategoryID(dict.SpaceCategory)
		if !ok {
			return nil, fmt.Errorf("ignore space: %w", ErrSpaceUndefined)
		}
		c.spaceID = id
	}
	return &c, nil
}

// MaxGroupingLen returns a copy of t that stops grouping runs of unknown
// characters longer than n. Zero means no limit.
func (t *Tokenizer) MaxGroupingLen(n uint) *Tokenizer {
	c := *t
	c.maxGroupingLen = int(n)
	return &c
}

// Dictionary returns the dictionary the tokenizer was built from.
func (t *Tokenizer) Dictionary() *dict.Dictionary { return t.dict }

// NewWorker allocates a worker bound to t.
func (t *Tokenizer) NewWorker() *Worker {
	return &Worker{tok: t}
}
