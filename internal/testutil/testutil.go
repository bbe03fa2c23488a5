// Package testutil provides a small MeCab-style dictionary fixture and shared
// helpers for tests across packages.
//
// Helpers that depend on external files call t.Skip with a clear reason when
// the prerequisite is absent, so tests stay runnable in partial environments.
//
// Typical usage:
//
//	func TestMyIntegration(t *testing.T) {
//	    path := testutil.RequireDictFile(t)
//	    ...
//	}
package testutil

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/example/go-vibrato/internal/dict"
)

// LexCSV is the fixture lexicon.
const LexCSV = `まぁ,0,0,100,名詞,固有名詞,一般,*
社長,0,0,100,名詞,普通名詞,一般,*
は,0,0,100,助詞,係助詞,*,*
火星,0,0,100,名詞,固有名詞,一般,*
火,0,0,300,名詞,普通名詞,一般,*
猫,0,0,100,名詞,普通名詞,*,*
だ,0,0,100,助動詞,*,*,*
`

// MatrixDef is a single-cell connection matrix with zero cost.
const MatrixDef = `1 1
0 0 0
`

// CharDef defines the fixture character categories.
const CharDef = `# name invoke group length
DEFAULT 0 1 0
SPACE 0 1 0
KANJI 0 0 2
HIRAGANA 0 1 0
KATAKANA 1 1 0
ALPHA 1 1 0
NUMERIC 1 1 0

0x0009 SPACE
0x0020 SPACE
0x3000 SPACE
0x0030..0x0039 NUMERIC
0x0041..0x005A ALPHA
0x0061..0x007A ALPHA
0x3041..0x309F HIRAGANA
0x30A1..0x30FF KATAKANA
0x30FC HIRAGANA KATAKANA
0x4E00..0x9FFF KANJI
`

// UnkDef defines one unknown-word entry per category.
const UnkDef = `DEFAULT,0,0,1500,補助記号,一般,*,*
SPACE,0,0,500,空白,*,*,*
KANJI,0,0,3000,名詞,普通名詞,*,*
HIRAGANA,0,0,4000,名詞,普通名詞,*,*
KATAKANA,0,0,2500,名詞,普通名詞,*,*
ALPHA,0,0,2000,名詞,固有名詞,*,*
NUMERIC,0,0,1000,名詞,数詞,*,*
`

// Dictionary builds the fixture dictionary or fails the test.
func Dictionary(tb testing.TB) *dict.Dictionary {
	tb.Helper()

	d, err := dict.BuildFromText(
		strings.NewReader(LexCSV),
		strings.NewReader(MatrixDef),
		strings.NewReader(CharDef),
		strings.NewReader(UnkDef),
	)
	if err != nil {
		tb.Fatalf("build fixture dictionary: %v", err)
	}

	return d
}

// DictionaryBytes returns the fixture dictionary in binary form.
func DictionaryBytes(tb testing.TB) []byte {
	tb.Helper()

	var buf bytes.Buffer
	if _, err := Dictionary(tb).WriteTo(&buf); err != nil {
		tb.Fatalf("encode fixture dictionary: %v", err)
	}

	return buf.Bytes()
}

// RequireDictFile skips the test unless VIBRATO_DICT_PATH names a readable
// binary dictionary, and returns that path.
func RequireDictFile(tb testing.TB) string {
	tb.Helper()

	p := os.Getenv("VIBRATO_DICT_PATH")
	if p == "" {
		tb.Skipf("VIBRATO_DICT_PATH not set; skipping test against a full dictionary")
		return ""
	}

	if _, err := os.Stat(p); err != nil {
		tb.Skipf("dictionary not found at VIBRATO_DICT_PATH=%q", p)
		return ""
	}

	return p
}

// Fataler is the subset of testing.TB that AssertTiles needs; *rapid.T
// satisfies it as well.
type Fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

// AssertTiles checks that the half-open spans tile [0, n) in order.
func AssertTiles(tb Fataler, n int, starts, ends []int) {
	tb.Helper()

	if len(starts) != len(ends) {
		tb.Fatalf("got %d starts and %d ends", len(starts), len(ends))
		return
	}

	if n == 0 {
		if len(starts) != 0 {
			tb.Fatalf("empty input produced %d tokens", len(starts))
		}
		return
	}

	if len(starts) == 0 {
		tb.Fatalf("input of %d characters produced no tokens", n)
		return
	}

	if starts[0] != 0 {
		tb.Fatalf("first token starts at %d, want 0", starts[0])
		return
	}

	for i := range starts {
		if starts[i] > ends[i] {
			tb.Fatalf("token %d has start %d > end %d", i, starts[i], ends[i])
			return
		}
		if i > 0 && starts[i] != ends[i-1] {
			tb.Fatalf("token %d starts at %d, previous ended at %d", i, starts[i], ends[i-1])
			return
		}
	}

	if last := ends[len(ends)-1]; last != n {
		tb.Fatalf("last token ends at %d, want %d", last, n)
	}
}
