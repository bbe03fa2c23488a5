package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/example/go-vibrato/internal/config"
	"github.com/example/go-vibrato/internal/dict"
	"github.com/example/go-vibrato/internal/server"
	"github.com/example/go-vibrato/internal/session"
)

// dictionaryFiles lists the inputs loadDictionary will read for cfg.
func dictionaryFiles(cfg config.Config) []string {
	if cfg.Paths.HasTextSources() {
		return []string{cfg.Paths.LexPath, cfg.Paths.MatrixPath, cfg.Paths.CharPath, cfg.Paths.UnkPath}
	}
	if cfg.Paths.DictPath == "" {
		return nil
	}
	return []string{cfg.Paths.DictPath}
}

// loadDictionary compiles the text sources when all four are configured and
// otherwise reads the binary dictionary at DictPath.
func loadDictionary(cfg config.Config) (*dict.Dictionary, error) {
	start := time.Now()

	var (
		d      *dict.Dictionary
		source string
		err    error
	)
	switch {
	case cfg.Paths.HasTextSources():
		source = "text"
		d, err = buildFromFiles(cfg.Paths.LexPath, cfg.Paths.MatrixPath, cfg.Paths.CharPath, cfg.Paths.UnkPath)
	case cfg.Paths.DictPath != "":
		source = cfg.Paths.DictPath
		var data []byte
		data, err = os.ReadFile(cfg.Paths.DictPath)
		if err != nil {
			return nil, fmt.Errorf("read dictionary: %w", err)
		}
		d, err = dict.Read(data)
	default:
		return nil, fmt.Errorf("no dictionary configured: set --dict-path or all of --lex-path, --matrix-path, --char-path, --unk-path")
	}
	if err != nil {
		return nil, fmt.Errorf("load dictionary: %w", err)
	}

	slog.Info("dictionary loaded",
		slog.String("source", source),
		slog.Int("words", d.WordCount()),
		slog.Duration("elapsed", time.Since(start)),
	)

	return d, nil
}

// buildFromFiles opens the four MeCab-style definitions and compiles them.
func buildFromFiles(lexPath, matrixPath, charPath, unkPath string) (*dict.Dictionary, error) {
	paths := []string{lexPath, matrixPath, charPath, unkPath}
	files := make([]*os.File, 0, len(paths))
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()

	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	return dict.BuildFromText(files[0], files[1], files[2], files[3])
}

// newSession loads the configured dictionary and builds one session over it.
func newSession(cfg config.Config) (*session.Session, error) {
	d, err := loadDictionary(cfg)
	if err != nil {
		return nil, err
	}
	return session.NewFromDictionary(d, server.SessionOptions(cfg, slog.Default())...)
}
