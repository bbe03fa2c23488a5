package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func newCompileCmd() *cobra.Command {
	var (
		lexPath    string
		matrixPath string
		charPath   string
		unkPath    string
		outPath    string
		compress   bool
	)

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile lex.csv, matrix.def, char.def and unk.def into a binary dictionary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			// Fall back to the configured text sources for unset flags.
			lexPath = firstNonEmpty(lexPath, cfg.Paths.LexPath)
			matrixPath = firstNonEmpty(matrixPath, cfg.Paths.MatrixPath)
			charPath = firstNonEmpty(charPath, cfg.Paths.CharPath)
			unkPath = firstNonEmpty(unkPath, cfg.Paths.UnkPath)
			if lexPath == "" || matrixPath == "" || charPath == "" || unkPath == "" {
				return errors.New("--lex, --matrix, --char and --unk are required")
			}
			if outPath == "" {
				return errors.New("--out is required")
			}

			n, err := compileDictionary(compileOptions{
				LexPath:    lexPath,
				MatrixPath: matrixPath,
				CharPath:   charPath,
				UnkPath:    unkPath,
				OutPath:    outPath,
				Compress:   compress,
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", outPath, n)
			return err
		},
	}

	cmd.Flags().StringVar(&lexPath, "lex", "", "Path to lex.csv")
	cmd.Flags().StringVar(&matrixPath, "matrix", "", "Path to matrix.def")
	cmd.Flags().StringVar(&charPath, "char", "", "Path to char.def")
	cmd.Flags().StringVar(&unkPath, "unk", "", "Path to unk.def")
	cmd.Flags().StringVar(&outPath, "out", "", "Output dictionary path (required)")
	cmd.Flags().BoolVar(&compress, "zstd", false, "Wrap the dictionary in a zstd frame")

	return cmd
}

type compileOptions struct {
	LexPath    string
	MatrixPath string
	CharPath   string
	UnkPath    string
	OutPath    string
	Compress   bool
}

// compileDictionary builds the dictionary and writes it to OutPath,
// returning the number of bytes written.
func compileDictionary(opts compileOptions) (int64, error) {
	d, err := buildFromFiles(opts.LexPath, opts.MatrixPath, opts.CharPath, opts.UnkPath)
	if err != nil {
		return 0, fmt.Errorf("compile dictionary: %w", err)
	}

	f, err := os.Create(opts.OutPath)
	if err != nil {
		return 0, fmt.Errorf("create output: %w", err)
	}

	var n int64
	if opts.Compress {
		n, err = d.WriteCompressedTo(f)
	} else {
		n, err = d.WriteTo(f)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(opts.OutPath)
		return 0, fmt.Errorf("write dictionary: %w", err)
	}

	slog.Info("dictionary compiled",
		slog.String("out", opts.OutPath),
		slog.Int("words", d.WordCount()),
		slog.Bool("zstd", opts.Compress),
		slog.Int64("bytes", n),
	)

	return n, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
