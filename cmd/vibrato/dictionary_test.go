package main

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/example/go-vibrato/internal/config"
	"github.com/example/go-vibrato/internal/testutil"
)

func TestDictionaryFiles(t *testing.T) {
	text := config.PathsConfig{
		DictPath:   "system.dic",
		LexPath:    "lex.csv",
		MatrixPath: "matrix.def",
		CharPath:   "char.def",
		UnkPath:    "unk.def",
	}
	partial := text
	partial.UnkPath = ""

	tests := []struct {
		name  string
		paths config.PathsConfig
		want  []string
	}{
		{"binary only", config.PathsConfig{DictPath: "system.dic"}, []string{"system.dic"}},
		{"text sources win", text, []string{"lex.csv", "matrix.def", "char.def", "unk.def"}},
		{"partial text falls back", partial, []string{"system.dic"}},
		{"nothing", config.PathsConfig{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dictionaryFiles(config.Config{Paths: tt.paths})
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("dictionaryFiles = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadDictionary_Binary(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Paths.DictPath = dictFile(t)

	d, err := loadDictionary(cfg)
	if err != nil {
		t.Fatalf("loadDictionary: %v", err)
	}

	if got := d.WordCount(); got != 7 {
		t.Errorf("WordCount = %d, want 7", got)
	}
}

func TestLoadDictionary_Compressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.dic.zst")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := testutil.Dictionary(t).WriteCompressedTo(f); err != nil {
		t.Fatalf("WriteCompressedTo: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Paths.DictPath = path

	if _, err := loadDictionary(cfg); err != nil {
		t.Fatalf("loadDictionary: %v", err)
	}
}

func TestLoadDictionary_TextSources(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Paths = textSources(t)
	cfg.Paths.DictPath = "/nonexistent/system.dic"

	d, err := loadDictionary(cfg)
	if err != nil {
		t.Fatalf("loadDictionary: %v", err)
	}

	if got := d.WordCount(); got != 7 {
		t.Errorf("WordCount = %d, want 7", got)
	}
}

func TestLoadDictionary_Errors(t *testing.T) {
	badText := textSources(t)
	badText.MatrixPath = "/nonexistent/matrix.def"

	corrupt := filepath.Join(t.TempDir(), "corrupt.dic")
	if err := os.WriteFile(corrupt, []byte("not a dictionary"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		paths   config.PathsConfig
		wantErr string
	}{
		{"nothing configured", config.PathsConfig{}, "no dictionary configured"},
		{"missing binary", config.PathsConfig{DictPath: "/nonexistent/system.dic"}, "read dictionary"},
		{"corrupt binary", config.PathsConfig{DictPath: corrupt}, "load dictionary"},
		{"missing text source", badText, "matrix.def"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadDictionary(config.Config{Paths: tt.paths})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewSession_AppliesTokenizerConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Paths.DictPath = dictFile(t)
	cfg.Tokenizer.IgnoreSpace = true

	s, err := newSession(cfg)
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}

	got := s.TokenizeToSurfaces("猫 だ")
	if want := []string{"猫", "だ"}; !reflect.DeepEqual(got, want) {
		t.Errorf("surfaces = %v, want %v", got, want)
	}
}
