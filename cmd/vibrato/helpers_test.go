package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/go-vibrato/internal/config"
	"github.com/example/go-vibrato/internal/testutil"
)

// textSources writes the fixture definitions into a temp dir.
func textSources(t *testing.T) config.PathsConfig {
	t.Helper()

	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	return config.PathsConfig{
		LexPath:    write("lex.csv", testutil.LexCSV),
		MatrixPath: write("matrix.def", testutil.MatrixDef),
		CharPath:   write("char.def", testutil.CharDef),
		UnkPath:    write("unk.def", testutil.UnkDef),
	}
}

// dictFile writes the fixture dictionary in binary form.
func dictFile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "system.dic")
	if err := os.WriteFile(path, testutil.DictionaryBytes(t), 0o644); err != nil {
		t.Fatalf("write dictionary: %v", err)
	}

	return path
}

// executeRoot runs the command tree with args in an empty working directory
// and returns stdout.
func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	t.Chdir(t.TempDir())
	t.Setenv("VIBRATO_DICT_PATH", "")

	orig := activeCfg
	t.Cleanup(func() { activeCfg = orig })

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)

	err := root.Execute()

	return out.String(), err
}
