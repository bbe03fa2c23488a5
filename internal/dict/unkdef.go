package dict

import (
	"fmt"
	"io"
)

type unkEntry struct {
	cat     uint8
	param   WordParam
	feature string
}

// unkHandler holds the unk.def entries grouped by character category.
type unkHandler struct {
	entries   []unkEntry
	byCat     [][]uint32
	defaultID uint8
}

func newUnkHandler(entries []unkEntry, numCategories int, defaultID uint8) (*unkHandler, error) {
	h := &unkHandler{
		entries:   entries,
		byCat:     make([][]uint32, numCategories),
		defaultID: defaultID,
	}
	for i, e := range entries {
		if int(e.cat) >= numCategories {
			return nil, fmt.Errorf("%w: unk entry %d has category id %d out of range", ErrInvalidFormat, i, e.cat)
		}
		h.byCat[e.cat] = append(h.byCat[e.cat], uint32(i))
	}
	if len(h.byCat[defaultID]) == 0 {
		return nil, fmt.Errorf("%w: unk.def has no %s entry", ErrInvalidFormat, DefaultCategory)
	}
	return h, nil
}

func (h *unkHandler) forCategory(cat uint8) []uint32 {
	if ids := h.byCat[cat]; len(ids) > 0 {
		return ids
	}
	return h.byCat[h.defaultID]
}

func parseUnkDef(r io.Reader, chars *charProperty) (*unkHandler, error) {
	var entries []unkEntry
	err := readLines(r, func(lineNo int, line string) error {
		if line == "" {
			return nil
		}
		fields, feature, err := splitFields(line, 4)
		if err != nil {
			return fmt.Errorf("%w: unk.def line %d: %v", ErrInvalidFormat, lineNo, err)
		}
		cat, ok := chars.index[fields[0]]
		if !ok {
			return fmt.Errorf("%w: unk.def line %d: category %s is not defined in char.def", ErrInvalidFormat, lineNo, fields[0])
		}
		param, err := parseWordParam(fields[1], fields[2], fields[3])
		if err != nil {
			return fmt.Errorf("%w: unk.def line %d: %v", ErrInvalidFormat, lineNo, err)
		}
		entries = append(entries, unkEntry{cat: cat, param: param, feature: feature})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newUnkHandler(entries, len(chars.categories), chars.defaultID)
}
