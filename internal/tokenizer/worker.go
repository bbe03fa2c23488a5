package tokenizer

import (
	"github.com/example/go-vibrato/internal/dict"
)

type node struct {
	id      dict.WordIdentity
	start   int
	end     int
	rightID uint16
	prev    int32
	cost    int64
}

// lattice stores candidate words indexed by the character position they end at.
type lattice struct {
	nodes []node
	ends  [][]int32
}

func (l *lattice) reset(n int) {
	l.nodes = l.nodes[:0]
	if cap(l.ends) < n+1 {
		l.ends = make([][]int32, n+1)
	}
	l.ends = l.ends[:n+1]
	for i := range l.ends {
		l.ends[i] = l.ends[i][:0]
	}
}

type span struct {
	start int
	end   int
	id    dict.WordIdentity
}

// Worker performs one tokenization at a time. Tokens returned by Token alias
// the worker's buffers and are invalidated by the next ResetSentence.
type Worker struct {
	tok     *Tokenizer
	sent    sentence
	lattice lattice
	tokens  []span
}

// ResetSentence loads text, discarding the previous sentence and its tokens.
func (w *Worker) ResetSentence(text string) {
	w.sent.reset(text, w.tok.dict)
	w.tokens = w.tokens[:0]
}

// Tokenize segments the current sentence.
func (w *Worker) Tokenize() {
	n := w.sent.len()
	lat := &w.lattice
	lat.reset(n)
	lat.nodes = append(lat.nodes, node{prev: -1})
	lat.ends[0] = append(lat.ends[0], 0)

	for pos := 0; pos < n; pos++ {
		if len(lat.ends[pos]) == 0 {
			continue
		}
		start := pos
		if w.tok.ignoreSpace {
			start = w.sent.skip(pos, w.tok.spaceID)
		}
		if start < n {
			w.addCandidates(pos, start)
		}
	}

	// Trailing spaces are dropped, so EOS also connects to words that end
	// right before them.
	first := n
	if w.tok.ignoreSpace {
		for first > 0 && w.sent.info[first-1].Has(w.tok.spaceID) {
			first--
		}
	}
	best := int32(-1)
	var bestCost int64
	for pos := first; pos <= n; pos++ {
		for _, idx := range lat.ends[pos] {
			nd := &lat.nodes[idx]
			c := nd.cost + int64(w.tok.dict.ConnectionCost(nd.rightID, 0))
			if best < 0 || c < bestCost {
				best, bestCost = idx, c
			}
		}
	}
	if best < 0 {
		panic("tokenizer: lattice has no path to the end of the sentence")
	}

	for idx := best; idx > 0; idx = lat.nodes[idx].prev {
		nd := &lat.nodes[idx]
		w.tokens = append(w.tokens, span{start: nd.start, end: nd.end, id: nd.id})
	}
	for i, j := 0, len(w.tokens)-1; i < j; i, j = i+1, j-1 {
		w.tokens[i], w.tokens[j] = w.tokens[j], w.tokens[i]
	}
}

// addCandidates pushes every word starting at start, connecting it to the
// words ending at pos. pos and start differ only when spaces are skipped.
func (w *Worker) addCandidates(pos, start int) {
	d := w.tok.dict
	matched := false
	d.CommonPrefix(w.sent.runes[start:], func(id dict.WordIdentity, length int) {
		w.connect(pos, start, length, id, d.WordParam(id))
		matched = true
	})

	info := w.sent.info[start]
	cat := d.Category(info.Base)
	if matched && !cat.Invoke {
		return
	}

	unknown := func(length int) {
		d.UnknownEntries(info.Base, func(id dict.WordIdentity, p dict.WordParam) {
			w.connect(pos, start, length, id, p)
		})
	}

	generated := matched
	groupable := w.sent.groupable[start]
	grouped := false
	if cat.Group && (w.tok.maxGroupingLen == 0 || groupable <= w.tok.maxGroupingLen) {
		unknown(groupable)
		generated, grouped = true, true
	}
	for length := 1; length <= int(cat.Length) && length <= groupable; length++ {
		if grouped && length == groupable {
			continue
		}
		unknown(length)
		generated = true
	}
	if !generated {
		unknown(1)
	}
}

func (w *Worker) connect(pos, start, length int, id dict.WordIdentity, p dict.WordParam) {
	lat := &w.lattice
	d := w.tok.dict
	best := int32(-1)
	var bestCost int64
	for _, idx := range lat.ends[pos] {
		prev := &lat.nodes[idx]
		c := prev.cost + int64(d.ConnectionCost(prev.rightID, p.LeftID))
		if best < 0 || c < bestCost {
			best, bestCost = idx, c
		}
	}
	end := start + length
	lat.nodes = append(lat.nodes, node{
		id:      id,
		start:   start,
		end:     end,
		rightID: p.RightID,
		prev:    best,
		cost:    bestCost + int64(p.Cost),
	})
	lat.ends[end] = append(lat.ends[end], int32(len(lat.nodes)-1))
}

// NumTokens is the number of tokens produced by the last Tokenize.
func (w *Worker) NumTokens() int { return len(w.tokens) }

// Token returns the i-th token of the last Tokenize.
func (w *Worker) Token(i int) Token {
	return Token{w: w, i: i}
}

// Token is a view into a Worker's output.
type Token struct {
	w *Worker
	i int
}

// SurfaceBytes aliases the worker's copy of the input. It must not be
// retained past the next ResetSentence.
func (t Token) SurfaceBytes() []byte {
	s := t.w.tokens[t.i]
	return t.w.sent.buf[t.w.sent.offsets[s.start]:t.w.sent.offsets[s.end]]
}

// Surface returns a copy of the token's text.
func (t Token) Surface() string { return string(t.SurfaceBytes()) }

// RangeChar is the token's half-open span in characters.
func (t Token) RangeChar() (start, end int) {
	s := t.w.tokens[t.i]
	return s.start, s.end
}

// RangeByte is the token's half-open span in bytes of the input.
func (t Token) RangeByte() (start, end int) {
	s := t.w.tokens[t.i]
	return t.w.sent.offsets[s.start], t.w.sent.offsets[s.end]
}

// WordIdentity identifies the dictionary entry behind the token.
func (t Token) WordIdentity() dict.WordIdentity { return t.w.tokens[t.i].id }

// Feature returns the dictionary feature string of the token.
func (t Token) Feature() string {
	return t.w.tok.dict.WordFeature(t.w.tokens[t.i].id)
}
