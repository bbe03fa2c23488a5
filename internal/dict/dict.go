// Package dict holds the immutable lexical resources used by the tokenizer:
// the lexicon, the connection-cost matrix, character categories and the
// unknown-word definitions. A Dictionary is built either from the four
// MeCab-style text definitions or from the binary form written by WriteTo.
package dict

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrInvalidFormat is wrapped by every parse and decode failure.
var ErrInvalidFormat = errors.New("dict: invalid format")

// Kind tells known (lexicon) words apart from words synthesised for text the
// lexicon does not cover.
type Kind uint8

const (
	// KindKnown identifies a lexicon entry.
	KindKnown Kind = iota
	// KindUnknown identifies the unk.def entry that produced an unknown word.
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindKnown:
		return "known"
	case KindUnknown:
		return "unknown"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// WordIdentity is a tagged reference into a Dictionary.
//
// A known identity is stable: it always resolves to the same surface and
// feature. An unknown identity only records which unk.def entry produced the
// word, so two unknown words with the same identity may have different
// surfaces.
type WordIdentity struct {
	kind  Kind
	index uint32
}

// Known returns the identity of lexicon entry i.
func Known(i uint32) WordIdentity { return WordIdentity{kind: KindKnown, index: i} }

// Unknown returns the identity of unk.def entry i.
func Unknown(i uint32) WordIdentity { return WordIdentity{kind: KindUnknown, index: i} }

// Kind reports whether the identity is known or unknown.
func (w WordIdentity) Kind() Kind { return w.kind }

// Index is the lexicon index for known words and the unk.def entry index
// for unknown ones.
func (w WordIdentity) Index() uint32 { return w.index }

func (w WordIdentity) String() string {
	return fmt.Sprintf("%s(%d)", w.kind, w.index)
}

// WordParam carries the connection ids and the word cost of an entry.
type WordParam struct {
	LeftID  uint16
	RightID uint16
	Cost    int16
}

// Dictionary is read-only after construction and safe for concurrent reads.
type Dictionary struct {
	lex   *lexicon
	conn  *connector
	chars *charProperty
	unk   *unkHandler
}

// BuildFromText builds a dictionary from the contents of lex.csv, matrix.def,
// char.def and unk.def.
func BuildFromText(lex, matrix, charDef, unkDef io.Reader) (*Dictionary, error) {
	l, err := parseLexicon(lex)
	if err != nil {
		return nil, err
	}
	conn, err := parseMatrix(matrix)
	if err != nil {
		return nil, err
	}
	chars, err := parseCharDef(charDef)
	if err != nil {
		return nil, err
	}
	unk, err := parseUnkDef(unkDef, chars)
	if err != nil {
		return nil, err
	}

	d := &Dictionary{lex: l, conn: conn, chars: chars, unk: unk}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dictionary) validate() error {
	for i, w := range d.lex.words {
		if err := d.conn.check(w.param); err != nil {
			return fmt.Errorf("%w: lexicon entry %d (%q): %v", ErrInvalidFormat, i, w.surface, err)
		}
	}
	for i, e := range d.unk.entries {
		if err := d.conn.check(e.param); err != nil {
			return fmt.Errorf("%w: unk entry %d: %v", ErrInvalidFormat, i, err)
		}
	}
	return nil
}

// WordCount is the number of lexicon entries.
func (d *Dictionary) WordCount() int { return len(d.lex.words) }

// WordFeature returns the feature string of a known or unknown word.
func (d *Dictionary) WordFeature(id WordIdentity) string {
	switch id.kind {
	case KindKnown:
		return d.lex.words[id.index].feature
	case KindUnknown:
		return d.unk.entries[id.index].feature
	default:
		panic("dict: invalid word kind " + id.kind.String())
	}
}

// WordParam returns connection ids and cost of a known or unknown word.
func (d *Dictionary) WordParam(id WordIdentity) WordParam {
	switch id.kind {
	case KindKnown:
		return d.lex.words[id.index].param
	case KindUnknown:
		return d.unk.entries[id.index].param
	default:
		panic("dict: invalid word kind " + id.kind.String())
	}
}

// ConnectionCost is the cost of placing a word with left id left right
// after a word with right id right.
func (d *Dictionary) ConnectionCost(right, left uint16) int16 {
	return d.conn.cost(right, left)
}

// CommonPrefix calls fn for every lexicon entry whose surface is a prefix of
// runes, with the entry's length in characters.
func (d *Dictionary) CommonPrefix(runes []rune, fn func(id WordIdentity, length int)) {
	d.lex.commonPrefix(runes, func(idx uint32, length int) {
		fn(Known(idx), length)
	})
}

// CharInfo returns the categories assigned to r.
func (d *Dictionary) CharInfo(r rune) CharInfo { return d.chars.lookup(r) }

// Category returns the category definition with the given id.
func (d *Dictionary) Category(id uint8) CharCategory { return d.chars.categories[id] }

// CategoryID looks a category up by name.
func (d *Dictionary) CategoryID(name string) (uint8, bool) {
	id, ok := d.chars.index[name]
	return id, ok
}

// UnknownEntries calls fn for each unk.def entry usable for category cat.
// Categories without their own entries fall back to DEFAULT.
func (d *Dictionary) UnknownEntries(cat uint8, fn func(id WordIdentity, param WordParam)) {
	for _, idx := range d.unk.forCategory(cat) {
		fn(Unknown(idx), d.unk.entries[idx].param)
	}
}
