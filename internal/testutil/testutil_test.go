package testutil_test

import (
	"fmt"
	"testing"

	"github.com/example/go-vibrato/internal/testutil"
)

func TestDictionary_BuildsFixture(t *testing.T) {
	d := testutil.Dictionary(t)
	if d.WordCount() != 7 {
		t.Fatalf("WordCount = %d, want 7", d.WordCount())
	}
}

func TestDictionaryBytes_NonEmpty(t *testing.T) {
	if b := testutil.DictionaryBytes(t); len(b) == 0 {
		t.Fatal("expected encoded fixture dictionary")
	}
}

func TestRequireDictFile_SkipsWhenUnset(t *testing.T) {
	t.Setenv("VIBRATO_DICT_PATH", "")

	skipped := false
	fakeT := &skipTracker{TB: t, onSkip: func() { skipped = true }}
	testutil.RequireDictFile(fakeT)
	if !skipped {
		t.Error("expected RequireDictFile to skip when VIBRATO_DICT_PATH is unset")
	}
}

func TestRequireDictFile_SkipsWhenMissing(t *testing.T) {
	t.Setenv("VIBRATO_DICT_PATH", "/nonexistent/system.dic")

	skipped := false
	fakeT := &skipTracker{TB: t, onSkip: func() { skipped = true }}
	testutil.RequireDictFile(fakeT)
	if !skipped {
		t.Error("expected RequireDictFile to skip when the file is absent")
	}
}

func TestAssertTiles(t *testing.T) {
	tests := []struct {
		name       string
		n          int
		starts     []int
		ends       []int
		wantFailed bool
	}{
		{"empty", 0, nil, nil, false},
		{"single", 3, []int{0}, []int{3}, false},
		{"tiled", 5, []int{0, 2, 3}, []int{2, 3, 5}, false},
		{"gap", 5, []int{0, 3}, []int{2, 5}, true},
		{"short", 5, []int{0, 2}, []int{2, 4}, true},
		{"late start", 5, []int{1}, []int{5}, true},
		{"no tokens", 2, nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fatalTracker{}
			testutil.AssertTiles(f, tt.n, tt.starts, tt.ends)
			if f.failed != tt.wantFailed {
				t.Errorf("failed = %v, want %v (%s)", f.failed, tt.wantFailed, f.msg)
			}
		})
	}
}

// skipTracker is a minimal testing.TB implementation that intercepts Skip calls.
type skipTracker struct {
	testing.TB
	onSkip func()
}

func (s *skipTracker) Helper() {}

func (s *skipTracker) Skipf(_ string, _ ...any) {
	s.onSkip()
	// Do NOT call s.TB.Skip; that would actually skip the outer test.
}

// fatalTracker records the first failure without stopping the test.
type fatalTracker struct {
	failed bool
	msg    string
}

func (f *fatalTracker) Helper() {}

func (f *fatalTracker) Fatalf(format string, args ...any) {
	if !f.failed {
		f.failed = true
		f.msg = fmt.Sprintf(format, args...)
	}
}
