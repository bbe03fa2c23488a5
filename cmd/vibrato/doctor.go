package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/example/go-vibrato/internal/dict"
	"github.com/example/go-vibrato/internal/doctor"
	"github.com/example/go-vibrato/internal/server"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	var probe string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the configured dictionary exists, loads and tokenizes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			source := "binary"
			if cfg.Paths.HasTextSources() {
				source = "text"
			}
			_, _ = fmt.Fprintf(out, "dictionary source: %s\n", source)

			result := doctor.Run(doctor.Config{
				Files: dictionaryFiles(cfg),
				Load: func() (*dict.Dictionary, error) {
					return loadDictionary(cfg)
				},
				SessionOptions: server.SessionOptions(cfg, slog.Default()),
				Probe:          probe,
			}, out)

			if result.Failed() {
				for _, f := range result.Failures() {
					fmt.Fprintf(os.Stderr, "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(out, "doctor checks passed")

			return nil
		},
	}

	cmd.Flags().StringVar(&probe, "probe", "", "Text tokenized by the smoke check")

	return cmd
}
