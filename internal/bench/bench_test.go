package bench_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/example/go-vibrato/internal/bench"
	"github.com/example/go-vibrato/internal/session"
	"github.com/example/go-vibrato/internal/testutil"
)

// ---------------------------------------------------------------------------
// Aggregation
// ---------------------------------------------------------------------------

func TestStats_MinMaxMean(t *testing.T) {
	durations := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		300 * time.Millisecond,
	}
	s := bench.ComputeStats(durations)

	if s.Min != 100*time.Millisecond {
		t.Errorf("want min=100ms, got %v", s.Min)
	}

	if s.Max != 300*time.Millisecond {
		t.Errorf("want max=300ms, got %v", s.Max)
	}

	if s.Mean != 200*time.Millisecond {
		t.Errorf("want mean=200ms, got %v", s.Mean)
	}
}

func TestStats_Empty(t *testing.T) {
	if s := bench.ComputeStats(nil); s != (bench.Stats{}) {
		t.Errorf("want zero stats for no runs, got %+v", s)
	}
}

// ---------------------------------------------------------------------------
// Throughput
// ---------------------------------------------------------------------------

func TestThroughput(t *testing.T) {
	if got := bench.Throughput(500, 250*time.Millisecond); got < 1999 || got > 2001 {
		t.Errorf("want 2000 chars/s, got %.1f", got)
	}

	if got := bench.Throughput(500, 0); got != 0 {
		t.Errorf("want 0 for zero duration, got %.1f", got)
	}
}

func TestMeanThroughput_SkipsColdRun(t *testing.T) {
	runs := []bench.RunResult{
		{Cold: true, CharsPerSec: 10},
		{CharsPerSec: 100},
		{CharsPerSec: 200},
	}
	if got := bench.MeanThroughput(runs); got != 150 {
		t.Errorf("want 150, got %.1f", got)
	}

	if got := bench.MeanThroughput(runs[:1]); got != 10 {
		t.Errorf("single cold run: want 10, got %.1f", got)
	}
}

func TestCheckThroughputFloor(t *testing.T) {
	tests := []struct {
		name    string
		mean    float64
		floor   float64
		wantErr bool
	}{
		{"below floor", 900, 1000, true},
		{"above floor", 1100, 1000, false},
		{"exactly at floor", 1000, 1000, false},
		{"disabled when zero", 1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := bench.CheckThroughputFloor(tt.mean, tt.floor)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckThroughputFloor(%v, %v) = %v; wantErr %v", tt.mean, tt.floor, err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

func TestRun_CountsCharsAndTokens(t *testing.T) {
	s, err := session.New(testutil.DictionaryBytes(t))
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}

	runs := bench.Run(s, []string{"社長は火星猫だ", "猫だ"}, 3)
	if len(runs) != 3 {
		t.Fatalf("want 3 runs, got %d", len(runs))
	}

	for i, r := range runs {
		if r.Index != i || r.Cold != (i == 0) {
			t.Errorf("run %d: index=%d cold=%v", i, r.Index, r.Cold)
		}
		if r.Chars != 9 {
			t.Errorf("run %d: chars=%d, want 9", i, r.Chars)
		}
		if r.Tokens != 7 {
			t.Errorf("run %d: tokens=%d, want 7", i, r.Tokens)
		}
	}

	if got := len(bench.Durations(runs)); got != 3 {
		t.Errorf("Durations returned %d values", got)
	}
}

// ---------------------------------------------------------------------------
// Output formatting
// ---------------------------------------------------------------------------

func TestFormatTable_ContainsHeaders(t *testing.T) {
	runs := []bench.RunResult{
		{Index: 0, Cold: true, Duration: 8 * time.Millisecond, Chars: 9, Tokens: 7, CharsPerSec: 1125},
		{Index: 1, Cold: false, Duration: 5 * time.Millisecond, Chars: 9, Tokens: 7, CharsPerSec: 1800},
	}
	stats := bench.ComputeStats(bench.Durations(runs))

	var buf strings.Builder
	bench.FormatTable(runs, stats, &buf)
	out := buf.String()

	for _, want := range []string{"run", "cold", "ms", "tokens", "chars/s", "(mean)", "1800"} {
		if !strings.Contains(strings.ToLower(out), want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatJSON_IsValidJSON(t *testing.T) {
	runs := []bench.RunResult{
		{Index: 0, Cold: true, Duration: 1500 * time.Microsecond, Chars: 9, Tokens: 7, CharsPerSec: 6000},
	}
	stats := bench.ComputeStats(bench.Durations(runs))

	var buf bytes.Buffer
	bench.FormatJSON(runs, stats, &buf)

	var out struct {
		Runs []struct {
			DurationMS float64 `json:"duration_ms"`
			Tokens     int     `json:"tokens"`
		} `json:"runs"`
		Stats struct {
			MeanMS float64 `json:"mean_ms"`
		} `json:"stats"`
	}

	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("FormatJSON produced invalid JSON: %v\n%s", err, buf.String())
	}

	if len(out.Runs) != 1 || out.Runs[0].DurationMS != 1.5 || out.Runs[0].Tokens != 7 {
		t.Errorf("runs = %+v", out.Runs)
	}

	if out.Stats.MeanMS != 1.5 {
		t.Errorf("mean_ms = %v; want 1.5", out.Stats.MeanMS)
	}
}
