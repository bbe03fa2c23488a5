package session

import (
	"fmt"

	"github.com/example/go-vibrato/internal/dict"
)

type record struct {
	surface string
	start   int
	end     int
	id      dict.WordIdentity
}

// TokenList is the immutable output of one Tokenize call. Features are
// resolved on first access through the owning session's cache, so a list
// shares the session's goroutine confinement.
type TokenList struct {
	session *Session
	records []record
}

// Len is the number of tokens.
func (l *TokenList) Len() int { return len(l.records) }

// Get returns the i-th token.
func (l *TokenList) Get(i int) (Token, error) {
	if i < 0 || i >= len(l.records) {
		return Token{}, fmt.Errorf("%w: index %d, length %d", ErrOutOfRange, i, len(l.records))
	}
	return Token{list: l, index: i}, nil
}

// Iter returns a fresh cursor positioned before the first token.
func (l *TokenList) Iter() *TokenIterator {
	return &TokenIterator{list: l, len: len(l.records)}
}

// Surfaces returns the surface of every token in order.
func (l *TokenList) Surfaces() []string {
	out := make([]string, len(l.records))
	for i, r := range l.records {
		out[i] = r.surface
	}
	return out
}

// Token is a view of one entry of a TokenList.
type Token struct {
	list  *TokenList
	index int
}

func (t Token) rec() *record { return &t.list.records[t.index] }

// Surface is the text the token covers.
func (t Token) Surface() string { return t.rec().surface }

// Start is the inclusive start position in characters.
func (t Token) Start() int { return t.rec().start }

// End is the exclusive end position in characters.
func (t Token) End() int { return t.rec().end }

// WordIdentity identifies the dictionary entry behind the token.
func (t Token) WordIdentity() dict.WordIdentity { return t.rec().id }

// Feature returns the token's feature string.
func (t Token) Feature() string {
	return t.list.session.feature(t.rec().id)
}

func (t Token) String() string {
	return fmt.Sprintf("Token { surface: %q, feature: %q }", t.Surface(), t.Feature())
}

// TokenIterator walks a TokenList once, front to back.
type TokenIterator struct {
	list  *TokenList
	index int
	len   int
}

// Next returns the next token, or false once the list is exhausted.
func (it *TokenIterator) Next() (Token, bool) {
	if it.index >= it.len {
		return Token{}, false
	}
	tok := Token{list: it.list, index: it.index}
	it.index++
	return tok, true
}
