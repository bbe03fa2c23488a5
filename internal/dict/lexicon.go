package dict

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type lexWord struct {
	surface string
	param   WordParam
	feature string
}

type trieNode struct {
	children map[rune]uint32
	words    []uint32
}

// lexicon stores the entries of lex.csv behind a character trie used for
// common-prefix lookups.
type lexicon struct {
	words []lexWord
	nodes []trieNode
}

func newLexicon(words []lexWord) *lexicon {
	l := &lexicon{words: words, nodes: []trieNode{{}}}
	for i, w := range words {
		n := uint32(0)
		for _, r := range w.surface {
			next, ok := l.nodes[n].children[r]
			if !ok {
				next = uint32(len(l.nodes))
				l.nodes = append(l.nodes, trieNode{})
				if l.nodes[n].children == nil {
					l.nodes[n].children = make(map[rune]uint32)
				}
				l.nodes[n].children[r] = next
			}
			n = next
		}
		l.nodes[n].words = append(l.nodes[n].words, uint32(i))
	}
	return l
}

func (l *lexicon) commonPrefix(runes []rune, fn func(idx uint32, length int)) {
	n := uint32(0)
	for i, r := range runes {
		next, ok := l.nodes[n].children[r]
		if !ok {
			return
		}
		n = next
		for _, w := range l.nodes[n].words {
			fn(w, i+1)
		}
	}
}

func parseLexicon(r io.Reader) (*lexicon, error) {
	var words []lexWord
	err := readLines(r, func(lineNo int, line string) error {
		if line == "" {
			return nil
		}
		fields, feature, err := splitFields(line, 4)
		if err != nil {
			return fmt.Errorf("%w: lex.csv line %d: %v", ErrInvalidFormat, lineNo, err)
		}
		if fields[0] == "" {
			return fmt.Errorf("%w: lex.csv line %d: empty surface", ErrInvalidFormat, lineNo)
		}
		param, err := parseWordParam(fields[1], fields[2], fields[3])
		if err != nil {
			return fmt.Errorf("%w: lex.csv line %d: %v", ErrInvalidFormat, lineNo, err)
		}
		words = append(words, lexWord{surface: fields[0], param: param, feature: feature})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: lex.csv has no entries", ErrInvalidFormat)
	}
	return newLexicon(words), nil
}

func parseWordParam(left, right, cost string) (WordParam, error) {
	l, err := strconv.ParseUint(strings.TrimSpace(left), 10, 16)
	if err != nil {
		return WordParam{}, fmt.Errorf("left id %q: %w", left, err)
	}
	rt, err := strconv.ParseUint(strings.TrimSpace(right), 10, 16)
	if err != nil {
		return WordParam{}, fmt.Errorf("right id %q: %w", right, err)
	}
	c, err := strconv.ParseInt(strings.TrimSpace(cost), 10, 16)
	if err != nil {
		return WordParam{}, fmt.Errorf("cost %q: %w", cost, err)
	}
	return WordParam{LeftID: uint16(l), RightID: uint16(rt), Cost: int16(c)}, nil
}

var (
	errTooFewFields      = errors.New("too few fields")
	errUnterminatedQuote = errors.New("unterminated quoted field")
)

// splitFields splits the first n comma separated fields off line, honouring
// double-quoted fields, and returns the rest of the line verbatim.
func splitFields(line string, n int) ([]string, string, error) {
	fields := make([]string, 0, n)
	i := 0
	for len(fields) < n {
		if i > len(line) {
			return nil, "", errTooFewFields
		}
		var field string
		if i < len(line) && line[i] == '"' {
			var b strings.Builder
			j := i + 1
			for {
				if j >= len(line) {
					return nil, "", errUnterminatedQuote
				}
				if line[j] == '"' {
					if j+1 < len(line) && line[j+1] == '"' {
						b.WriteByte('"')
						j += 2
						continue
					}
					j++
					break
				}
				b.WriteByte(line[j])
				j++
			}
			if j < len(line) && line[j] != ',' {
				return nil, "", fmt.Errorf("unexpected %q after quoted field", line[j])
			}
			field, i = b.String(), j
		} else if k := strings.IndexByte(line[i:], ','); k >= 0 {
			field, i = line[i:i+k], i+k
		} else {
			field, i = line[i:], len(line)
		}
		fields = append(fields, field)
		// Step over the separator; running past the end marks the line as exhausted.
		i++
	}
	if i > len(line) {
		return fields, "", nil
	}
	return fields, line[i:], nil
}
