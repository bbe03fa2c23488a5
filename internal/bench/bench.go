// Package bench provides benchmarking primitives for the vibrato bench command.
package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"
)

// Tokenizer is the part of a session the benchmark drives.
type Tokenizer interface {
	TokenizeToSurfaces(text string) []string
}

// ---------------------------------------------------------------------------
// Run result and stats
// ---------------------------------------------------------------------------

// RunResult holds the timing and output size of a single pass over the corpus.
type RunResult struct {
	Index       int
	Cold        bool // true for the first run, before the intern caches are warm
	Duration    time.Duration
	Chars       int
	Tokens      int
	CharsPerSec float64
}

// Stats holds aggregate timing statistics across all runs.
type Stats struct {
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// ComputeStats calculates min, max and mean over a slice of durations.
// The slice must be non-empty.
func ComputeStats(durations []time.Duration) Stats {
	if len(durations) == 0 {
		return Stats{}
	}
	mn, mx := durations[0], durations[0]
	var sum time.Duration
	for _, d := range durations {
		if d < mn {
			mn = d
		}
		if d > mx {
			mx = d
		}
		sum += d
	}
	return Stats{
		Min:  mn,
		Max:  mx,
		Mean: sum / time.Duration(len(durations)),
	}
}

// Durations extracts the run durations in order.
func Durations(runs []RunResult) []time.Duration {
	out := make([]time.Duration, len(runs))
	for i, r := range runs {
		out[i] = r.Duration
	}
	return out
}

// ---------------------------------------------------------------------------
// Running
// ---------------------------------------------------------------------------

// Run tokenizes every sentence of corpus once per run.
func Run(tok Tokenizer, corpus []string, runs int) []RunResult {
	chars := 0
	for _, s := range corpus {
		chars += utf8.RuneCountInString(s)
	}

	results := make([]RunResult, 0, runs)
	for i := 0; i < runs; i++ {
		tokens := 0
		start := time.Now()
		for _, s := range corpus {
			tokens += len(tok.TokenizeToSurfaces(s))
		}
		elapsed := time.Since(start)

		results = append(results, RunResult{
			Index:       i,
			Cold:        i == 0,
			Duration:    elapsed,
			Chars:       chars,
			Tokens:      tokens,
			CharsPerSec: Throughput(chars, elapsed),
		})
	}
	return results
}

// Throughput returns characters per second.
// Returns 0 if d is zero to avoid division by zero.
func Throughput(chars int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(chars) / d.Seconds()
}

// ---------------------------------------------------------------------------
// Throughput gate
// ---------------------------------------------------------------------------

// CheckThroughputFloor returns an error if mean throughput is below floor.
// A floor of 0 disables the gate.
func CheckThroughputFloor(mean, floor float64) error {
	if floor <= 0 {
		return nil
	}
	if mean < floor {
		return fmt.Errorf("mean throughput %.0f chars/s is below floor %.0f", mean, floor)
	}
	return nil
}

// MeanThroughput averages CharsPerSec over the warm runs, falling back to
// all runs when only the cold one exists.
func MeanThroughput(runs []RunResult) float64 {
	var sum float64
	n := 0
	for _, r := range runs {
		if r.Cold && len(runs) > 1 {
			continue
		}
		sum += r.CharsPerSec
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// ---------------------------------------------------------------------------
// Output formatters
// ---------------------------------------------------------------------------

// FormatTable writes a human-readable ASCII table of bench results to w.
func FormatTable(runs []RunResult, stats Stats, w io.Writer) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "%-5s  %-5s  %10s  %8s  %8s  %12s\n", "Run", "Cold", "MS", "Chars", "Tokens", "Chars/s")
	fmt.Fprintln(sb, strings.Repeat("-", 58))

	for _, r := range runs {
		cold := ""
		if r.Cold {
			cold = "yes"
		}
		fmt.Fprintf(sb, "%-5d  %-5s  %10.3f  %8d  %8d  %12.0f\n",
			r.Index+1,
			cold,
			msec(r.Duration),
			r.Chars,
			r.Tokens,
			r.CharsPerSec,
		)
	}

	fmt.Fprintln(sb, strings.Repeat("-", 58))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.3f  (min)\n", "", "", msec(stats.Min))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.3f  (mean)\n", "", "", msec(stats.Mean))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.3f  (max)\n", "", "", msec(stats.Max))

	fmt.Fprint(w, sb.String())
}

func msec(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// jsonReport is the top-level JSON structure emitted by FormatJSON.
type jsonReport struct {
	Runs  []jsonRun `json:"runs"`
	Stats jsonStats `json:"stats"`
}

type jsonRun struct {
	Index       int     `json:"index"`
	Cold        bool    `json:"cold"`
	DurationMS  float64 `json:"duration_ms"`
	Chars       int     `json:"chars"`
	Tokens      int     `json:"tokens"`
	CharsPerSec float64 `json:"chars_per_sec"`
}

type jsonStats struct {
	MinMS  float64 `json:"min_ms"`
	MeanMS float64 `json:"mean_ms"`
	MaxMS  float64 `json:"max_ms"`
}

// FormatJSON writes a JSON report of bench results to w.
func FormatJSON(runs []RunResult, stats Stats, w io.Writer) {
	jr := jsonReport{
		Runs: make([]jsonRun, len(runs)),
		Stats: jsonStats{
			MinMS:  msec(stats.Min),
			MeanMS: msec(stats.Mean),
			MaxMS:  msec(stats.Max),
		},
	}
	for i, r := range runs {
		jr.Runs[i] = jsonRun{
			Index:       r.Index,
			Cold:        r.Cold,
			DurationMS:  msec(r.Duration),
			Chars:       r.Chars,
			Tokens:      r.Tokens,
			CharsPerSec: r.CharsPerSec,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(jr)
}
