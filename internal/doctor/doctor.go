// Package doctor provides preflight checks for a vibrato installation.
package doctor

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/example/go-vibrato/internal/dict"
	"github.com/example/go-vibrato/internal/session"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// DefaultProbe is tokenized by the smoke check when Config.Probe is empty.
const DefaultProbe = "本日は晴天なり。"

// LoadFunc loads the configured dictionary.
type LoadFunc func() (*dict.Dictionary, error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// Files are the dictionary inputs that must exist on disk.
	Files []string
	// Load builds the dictionary; nil skips the load and tokenize checks.
	Load LoadFunc
	// SessionOptions are applied when building the smoke-test session.
	SessionOptions []session.Option
	// Probe is the text tokenized by the smoke check.
	Probe string
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- dictionary files -------------------------------------------------
	if len(cfg.Files) == 0 {
		res.fail("dictionary files: none configured")
		fmt.Fprintf(w, "%s dictionary files: none configured\n", FailMark)
	}
	missing := false
	for _, path := range cfg.Files {
		info, err := os.Stat(path)
		switch {
		case err != nil:
			res.fail(fmt.Sprintf("dictionary file %q: %v", path, err))
			fmt.Fprintf(w, "%s dictionary file %s: not found\n", FailMark, path)
			missing = true
		case info.IsDir():
			res.fail(fmt.Sprintf("dictionary file %q: is a directory", path))
			fmt.Fprintf(w, "%s dictionary file %s: is a directory\n", FailMark, path)
			missing = true
		default:
			fmt.Fprintf(w, "%s dictionary file: %s (%d bytes)\n", PassMark, path, info.Size())
		}
	}

	if cfg.Load == nil {
		return res
	}
	if missing {
		fmt.Fprintf(w, "%s dictionary load: skipped\n", FailMark)
		return res
	}

	// ---- dictionary load --------------------------------------------------
	d, err := cfg.Load()
	if err != nil {
		res.fail(fmt.Sprintf("dictionary load: %v", err))
		fmt.Fprintf(w, "%s dictionary load: %v\n", FailMark, err)
		return res
	}
	fmt.Fprintf(w, "%s dictionary load: %d words\n", PassMark, d.WordCount())

	// ---- tokenize smoke test ----------------------------------------------
	probe := cfg.Probe
	if probe == "" {
		probe = DefaultProbe
	}
	if err := smokeTest(d, cfg.SessionOptions, probe); err != nil {
		res.fail(fmt.Sprintf("tokenize: %v", err))
		fmt.Fprintf(w, "%s tokenize: %v\n", FailMark, err)
	} else {
		fmt.Fprintf(w, "%s tokenize: %q\n", PassMark, probe)
	}

	return res
}

// smokeTest builds a session with the configured options and checks that
// the tokens of probe tile it exactly.
func smokeTest(d *dict.Dictionary, opts []session.Option, probe string) error {
	s, err := session.NewFromDictionary(d, opts...)
	if err != nil {
		return err
	}

	list := s.Tokenize(probe)
	if list.Len() == 0 && probe != "" {
		return fmt.Errorf("no tokens for %q", probe)
	}

	covered := 0
	for i := 0; i < list.Len(); i++ {
		tok, err := list.Get(i)
		if err != nil {
			return err
		}
		if tok.Start() < covered {
			return fmt.Errorf("token %d overlaps its predecessor", i)
		}
		covered = tok.End()
	}
	if n := utf8.RuneCountInString(probe); covered > n {
		return fmt.Errorf("tokens end at %d, past the %d-character probe", covered, n)
	}

	return nil
}
