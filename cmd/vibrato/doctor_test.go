package main

import (
	"strings"
	"testing"

	"github.com/example/go-vibrato/internal/doctor"
)

func TestDoctorCmd_BinaryDictionaryPasses(t *testing.T) {
	out, err := executeRoot(t, "doctor", "--dict-path", dictFile(t), "--probe", "社長は猫だ")
	if err != nil {
		t.Fatalf("doctor failed: %v\n%s", err, out)
	}

	for _, want := range []string{"dictionary source: binary", "dictionary load: 7 words", "doctor checks passed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDoctorCmd_TextSourcesPass(t *testing.T) {
	src := textSources(t)

	out, err := executeRoot(t, "doctor",
		"--lex-path", src.LexPath,
		"--matrix-path", src.MatrixPath,
		"--char-path", src.CharPath,
		"--unk-path", src.UnkPath,
	)
	if err != nil {
		t.Fatalf("doctor failed: %v\n%s", err, out)
	}

	if !strings.Contains(out, "dictionary source: text") {
		t.Errorf("output should report text source:\n%s", out)
	}
	if got := strings.Count(out, doctor.PassMark); got != 6 {
		t.Errorf("got %d pass marks, want 6:\n%s", got, out)
	}
}

func TestDoctorCmd_MissingDictionaryFails(t *testing.T) {
	out, err := executeRoot(t, "doctor", "--dict-path", "/nonexistent/system.dic")
	if err == nil {
		t.Fatal("expected doctor to fail")
	}

	if !strings.Contains(out, doctor.FailMark) {
		t.Errorf("output missing fail marker:\n%s", out)
	}
}
