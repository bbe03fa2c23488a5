package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/example/go-vibrato/internal/bench"
	"github.com/example/go-vibrato/internal/text"
	"github.com/spf13/cobra"
)

func newBenchCmd() *cobra.Command {
	var (
		input         string
		file          string
		runs          int
		format        string
		minThroughput float64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark tokenization throughput",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("--format must be 'table' or 'json'")
			}

			corpus, err := benchCorpus(input, file)
			if err != nil {
				return err
			}

			s, err := newSession(cfg)
			if err != nil {
				return err
			}

			results := bench.Run(s, corpus, runs)
			stats := bench.ComputeStats(bench.Durations(results))

			switch format {
			case "json":
				bench.FormatJSON(results, stats, cmd.OutOrStdout())
			default:
				bench.FormatTable(results, stats, cmd.OutOrStdout())
			}

			return bench.CheckThroughputFloor(bench.MeanThroughput(results), minThroughput)
		},
	}

	cmd.Flags().StringVar(&input, "text", "", "Text to tokenize on each run")
	cmd.Flags().StringVar(&file, "file", "", "Read the benchmark corpus from a file")
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of runs over the corpus")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().Float64Var(&minThroughput, "min-throughput", 0, "Exit non-zero if mean chars/s falls below this value (0 = disabled)")

	return cmd
}

// benchCorpus splits the --text or --file input into sentences.
func benchCorpus(input, file string) ([]string, error) {
	switch {
	case input != "" && file != "":
		return nil, errors.New("--text and --file are mutually exclusive")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read corpus: %w", err)
		}
		input = string(data)
	case input == "":
		return nil, fmt.Errorf("--text or --file is required for bench")
	}

	normalized, err := text.Normalize(input)
	if err != nil {
		return nil, err
	}

	return text.SplitSentences(normalized), nil
}
