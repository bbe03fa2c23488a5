package intern_test

import (
	"strconv"
	"testing"

	"github.com/example/go-vibrato/internal/intern"
)

func TestNew_SelectsPolicy(t *testing.T) {
	if _, ok := intern.New[int](0).(*intern.Unbounded[int]); !ok {
		t.Error("New(0) should return an unbounded cache")
	}
	if _, ok := intern.New[int](-1).(*intern.Unbounded[int]); !ok {
		t.Error("New(-1) should return an unbounded cache")
	}
	if _, ok := intern.New[int](4).(*intern.LRU[int]); !ok {
		t.Error("New(4) should return an LRU cache")
	}
}

func TestCache_GetOrInsert(t *testing.T) {
	caches := map[string]intern.Cache[string]{
		"unbounded": intern.NewUnbounded[string](),
		"lru":       intern.NewLRU[string](8),
	}

	for name, c := range caches {
		t.Run(name, func(t *testing.T) {
			calls := 0
			compute := func() string {
				calls++
				return "v" + strconv.Itoa(calls)
			}

			if got := c.GetOrInsert("a", compute); got != "v1" {
				t.Errorf("first GetOrInsert = %q, want v1", got)
			}
			if got := c.GetOrInsert("a", compute); got != "v1" {
				t.Errorf("second GetOrInsert = %q, want cached v1", got)
			}
			if got := c.GetOrInsert("b", compute); got != "v2" {
				t.Errorf("GetOrInsert(b) = %q, want v2", got)
			}
			if calls != 2 {
				t.Errorf("compute called %d times, want 2", calls)
			}
			if c.Len() != 2 {
				t.Errorf("Len = %d, want 2", c.Len())
			}

			want := intern.Stats{Hits: 1, Misses: 2}
			if got := c.Stats(); got != want {
				t.Errorf("Stats = %+v, want %+v", got, want)
			}
		})
	}
}

func TestUnbounded_NeverEvicts(t *testing.T) {
	c := intern.NewUnbounded[int]()
	for i := 0; i < 1000; i++ {
		c.GetOrInsert(i, func() string { return strconv.Itoa(i) })
	}

	if c.Len() != 1000 {
		t.Errorf("Len = %d, want 1000", c.Len())
	}
	if c.Stats().Evictions != 0 {
		t.Errorf("Evictions = %d, want 0", c.Stats().Evictions)
	}
	if got := c.GetOrInsert(0, func() string { return "recomputed" }); got != "0" {
		t.Errorf("oldest entry = %q, want 0", got)
	}
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := intern.NewLRU[string](2)
	fixed := func(v string) func() string { return func() string { return v } }

	c.GetOrInsert("a", fixed("A"))
	c.GetOrInsert("b", fixed("B"))
	c.GetOrInsert("a", fixed("stale")) // touch a so b becomes oldest
	c.GetOrInsert("c", fixed("C"))

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if got := c.GetOrInsert("a", fixed("new")); got != "A" {
		t.Errorf("a = %q, want A to survive", got)
	}
	if got := c.GetOrInsert("b", fixed("B2")); got != "B2" {
		t.Errorf("b = %q, want it recomputed after eviction", got)
	}

	st := c.Stats()
	if st.Evictions != 2 {
		t.Errorf("Evictions = %d, want 2", st.Evictions)
	}
	if st.Hits != 2 || st.Misses != 4 {
		t.Errorf("Stats = %+v, want 2 hits and 4 misses", st)
	}
}
