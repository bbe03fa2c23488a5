package tokenizer

import "github.com/example/go-vibrato/internal/dict"

// sentence is the worker's private copy of the input text together with
// per-character data. Its slices are reused across resets.
type sentence struct {
	buf       []byte
	runes     []rune
	offsets   []int // byte offset of each character, plus len(buf)
	info      []dict.CharInfo
	groupable []int // length of the same-category run starting at each character
}

func (s *sentence) reset(text string, d *dict.Dictionary) {
	s.buf = append(s.buf[:0], text...)
	s.runes = s.runes[:0]
	s.offsets = s.offsets[:0]
	s.info = s.info[:0]
	for i, r := range text {
		s.runes = append(s.runes, r)
		s.offsets = append(s.offsets, i)
		s.info = append(s.info, d.CharInfo(r))
	}
	s.offsets = append(s.offsets, len(text))

	n := len(s.runes)
	if cap(s.groupable) < n {
		s.groupable = make([]int, n)
	}
	s.groupable = s.groupable[:n]
	for i := n - 1; i >= 0; i-- {
		base := s.info[i].Base
		switch {
		case i+1 == n || !s.info[i+1].Has(base):
			s.groupable[i] = 1
		case s.info[i+1].Base == base:
			s.groupable[i] = s.groupable[i+1] + 1
		default:
			g := 2
			for j := i + 2; j < n && s.info[j].Has(base); j++ {
				g++
			}
			s.groupable[i] = g
		}
	}
}

func (s *sentence) len() int { return len(s.runes) }

// skip returns the first position at or after pos whose character is not in
// category cat.
func (s *sentence) skip(pos int, cat uint8) int {
	for pos < len(s.runes) && s.info[pos].Has(cat) {
		pos++
	}
	return pos
}
