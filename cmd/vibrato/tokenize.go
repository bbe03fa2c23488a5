package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/example/go-vibrato/internal/config"
	"github.com/example/go-vibrato/internal/dict"
	"github.com/example/go-vibrato/internal/session"
	"github.com/example/go-vibrato/internal/text"
	"github.com/spf13/cobra"
)

// maxLineBytes bounds a single stdin line.
const maxLineBytes = 1 << 20

func newTokenizeCmd() *cobra.Command {
	var (
		input          string
		format         string
		fold           bool
		splitSentences bool
	)

	cmd := &cobra.Command{
		Use:   "tokenize",
		Short: "Tokenize text from --text or stdin, one line at a time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			outFormat, err := config.NormalizeFormat(format)
			if err != nil {
				return err
			}

			var r io.Reader = os.Stdin
			if input != "" {
				normalized, err := text.Normalize(input)
				if err != nil {
					return err
				}
				r = strings.NewReader(normalized)
			}

			s, err := newSession(cfg)
			if err != nil {
				return err
			}

			return tokenizeLines(r, cmd.OutOrStdout(), s, tokenizeOptions{
				Format:         outFormat,
				Fold:           fold,
				SplitSentences: splitSentences,
			})
		},
	}

	cmd.Flags().StringVar(&input, "text", "", "Text to tokenize (reads stdin when empty)")
	cmd.Flags().StringVar(&format, "format", config.FormatText, "Output format: text|json|wakati")
	cmd.Flags().BoolVar(&fold, "fold", false, "Apply NFKC normalization before tokenizing")
	cmd.Flags().BoolVar(&splitSentences, "split-sentences", false, "Tokenize each sentence of a line separately")

	return cmd
}

type tokenizeOptions struct {
	Format         string
	Fold           bool
	SplitSentences bool
}

type tokenLine struct {
	Text   string      `json:"text"`
	Tokens []tokenItem `json:"tokens"`
}

type tokenItem struct {
	Surface string `json:"surface"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Feature string `json:"feature"`
	Known   bool   `json:"known"`
}

// tokenizeLines tokenizes r line by line and writes one record per unit.
// A unit is a line, or a sentence when SplitSentences is set.
func tokenizeLines(r io.Reader, w io.Writer, s *session.Session, opts tokenizeOptions) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	for scanner.Scan() {
		line := scanner.Text()
		if opts.Fold {
			line = text.Fold(line)
		}

		units := []string{line}
		if opts.SplitSentences {
			units = text.SplitSentences(line)
		}

		for _, unit := range units {
			if err := writeUnit(bw, enc, s, unit, opts.Format); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	return bw.Flush()
}

func writeUnit(w *bufio.Writer, enc *json.Encoder, s *session.Session, unit, format string) error {
	switch format {
	case config.FormatWakati:
		_, err := fmt.Fprintln(w, strings.Join(s.TokenizeToSurfaces(unit), " "))
		return err

	case config.FormatJSON:
		list := s.Tokenize(unit)
		out := tokenLine{Text: unit, Tokens: make([]tokenItem, 0, list.Len())}
		it := list.Iter()
		for tok, ok := it.Next(); ok; tok, ok = it.Next() {
			out.Tokens = append(out.Tokens, tokenItem{
				Surface: tok.Surface(),
				Start:   tok.Start(),
				End:     tok.End(),
				Feature: tok.Feature(),
				Known:   tok.WordIdentity().Kind() == dict.KindKnown,
			})
		}
		return enc.Encode(out)

	default:
		list := s.Tokenize(unit)
		it := list.Iter()
		for tok, ok := it.Next(); ok; tok, ok = it.Next() {
			if _, err := fmt.Fprintf(w, "%s\t%s\n", tok.Surface(), tok.Feature()); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintln(w, "EOS")
		return err
	}
}
