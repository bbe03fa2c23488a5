package dict

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DefaultCategory is assigned to characters no char.def range covers.
const DefaultCategory = "DEFAULT"

// SpaceCategory marks characters skipped when spaces are ignored.
const SpaceCategory = "SPACE"

const maxCategories = 32

// CharCategory is one category line of char.def.
type CharCategory struct {
	Name string `json:"name"`
	// Invoke generates unknown words even when a lexicon entry matched.
	Invoke bool `json:"invoke"`
	// Group merges a run of characters of this category into one unknown word.
	Group bool `json:"group"`
	// Length generates unknown words of 1..Length characters.
	Length uint16 `json:"length"`
}

// CharInfo holds the categories of one character. Base is the first category
// listed for the character's range; Categories is a bit set of all of them.
type CharInfo struct {
	Base       uint8
	Categories uint32
}

// Has reports whether category id is among the character's categories.
func (c CharInfo) Has(id uint8) bool { return c.Categories&(1<<id) != 0 }

type charRange struct {
	Lo   rune   `json:"lo"`
	Hi   rune   `json:"hi"`
	Base uint8  `json:"base"`
	Cats uint32 `json:"cats"`
}

type charProperty struct {
	categories []CharCategory
	index      map[string]uint8
	ranges     []charRange
	defaultID  uint8
}

func newCharProperty(categories []CharCategory, ranges []charRange) (*charProperty, error) {
	p := &charProperty{
		categories: categories,
		index:      make(map[string]uint8, len(categories)),
		ranges:     ranges,
	}
	for i, c := range categories {
		p.index[c.Name] = uint8(i)
	}
	def, ok := p.index[DefaultCategory]
	if !ok {
		return nil, fmt.Errorf("%w: char.def does not define %s", ErrInvalidFormat, DefaultCategory)
	}
	p.defaultID = def
	for _, r := range ranges {
		if int(r.Base) >= len(categories) || r.Cats>>len(categories) != 0 || r.Lo > r.Hi {
			return nil, fmt.Errorf("%w: char range %#x..%#x is inconsistent", ErrInvalidFormat, r.Lo, r.Hi)
		}
	}
	return p, nil
}

// lookup scans ranges from the end so later char.def lines override earlier ones.
func (p *charProperty) lookup(r rune) CharInfo {
	for i := len(p.ranges) - 1; i >= 0; i-- {
		cr := p.ranges[i]
		if cr.Lo <= r && r <= cr.Hi {
			return CharInfo{Base: cr.Base, Categories: cr.Cats}
		}
	}
	return CharInfo{Base: p.defaultID, Categories: 1 << p.defaultID}
}

func parseCharDef(r io.Reader) (*charProperty, error) {
	var (
		categories []CharCategory
		index      = map[string]uint8{}
		pending    [][]string
		lines      []int
	)
	err := readLines(r, func(lineNo int, line string) error {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return nil
		}
		if strings.HasPrefix(fields[0], "0x") {
			// Mappings may reference categories declared further down.
			pending = append(pending, fields)
			lines = append(lines, lineNo)
			return nil
		}
		if len(fields) != 4 {
			return fmt.Errorf("%w: char.def line %d: category needs 4 fields, got %d", ErrInvalidFormat, lineNo, len(fields))
		}
		if _, dup := index[fields[0]]; dup {
			return fmt.Errorf("%w: char.def line %d: duplicate category %s", ErrInvalidFormat, lineNo, fields[0])
		}
		if len(categories) == maxCategories {
			return fmt.Errorf("%w: char.def line %d: more than %d categories", ErrInvalidFormat, lineNo, maxCategories)
		}
		invoke, err1 := parseFlag(fields[1])
		group, err2 := parseFlag(fields[2])
		length, err3 := strconv.ParseUint(fields[3], 10, 16)
		if err1 != nil || err2 != nil || err3 != nil {
			return fmt.Errorf("%w: char.def line %d: malformed category %q", ErrInvalidFormat, lineNo, line)
		}
		index[fields[0]] = uint8(len(categories))
		categories = append(categories, CharCategory{
			Name:   fields[0],
			Invoke: invoke,
			Group:  group,
			Length: uint16(length),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	ranges := make([]charRange, 0, len(pending))
	for i, fields := range pending {
		cr, err := parseCharRange(fields, index)
		if err != nil {
			return nil, fmt.Errorf("%w: char.def line %d: %v", ErrInvalidFormat, lines[i], err)
		}
		ranges = append(ranges, cr)
	}
	return newCharProperty(categories, ranges)
}

func parseCharRange(fields []string, index map[string]uint8) (charRange, error) {
	if len(fields) < 2 {
		return charRange{}, fmt.Errorf("mapping %q has no category", fields[0])
	}
	lo, hi, found := strings.Cut(fields[0], "..")
	if !found {
		hi = lo
	}
	start, err := strconv.ParseUint(lo, 0, 32)
	if err != nil {
		return charRange{}, fmt.Errorf("code point %q: %v", lo, err)
	}
	end, err := strconv.ParseUint(hi, 0, 32)
	if err != nil {
		return charRange{}, fmt.Errorf("code point %q: %v", hi, err)
	}
	if end < start {
		return charRange{}, fmt.Errorf("range %s is reversed", fields[0])
	}
	cr := charRange{Lo: rune(start), Hi: rune(end)}
	for i, name := range fields[1:] {
		id, ok := index[name]
		if !ok {
			return charRange{}, fmt.Errorf("undefined category %s", name)
		}
		if i == 0 {
			cr.Base = id
		}
		cr.Cats |= 1 << id
	}
	return cr, nil
}

func parseFlag(s string) (bool, error) {
	switch s {
	case "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, fmt.Errorf("flag %q is not 0 or 1", s)
	}
}
