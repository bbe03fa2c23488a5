package text

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{
			name:  "passthrough clean text",
			input: "社長は火星猫だ",
			want:  "社長は火星猫だ",
		},
		{
			name:  "trims ASCII whitespace",
			input: " \t社長は猫\n ",
			want:  "社長は猫",
		},
		{
			name:  "trims ideographic space",
			input: "　社長　",
			want:  "社長",
		},
		{
			name:  "normalizes CRLF to LF",
			input: "一行目\r\n二行目",
			want:  "一行目\n二行目",
		},
		{
			name:  "normalizes bare CR to LF",
			input: "一行目\r二行目",
			want:  "一行目\n二行目",
		},
		{
			name:  "normalizes mixed line endings",
			input: "a\r\nb\rc\nd",
			want:  "a\nb\nc\nd",
		},
		{
			name:  "preserves internal whitespace",
			input: "  社長  は  ",
			want:  "社長  は",
		},
		{
			name:    "rejects empty string",
			input:   "",
			wantErr: ErrEmptyText,
		},
		{
			name:    "rejects whitespace-only string",
			input:   "   \t\n　 ",
			wantErr: ErrEmptyText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFold(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already normalized", "社長は猫", "社長は猫"},
		{"full-width latin", "ＡＢＣ１２３", "ABC123"},
		{"half-width katakana", "ｶﾀｶﾅ", "カタカナ"},
		{"half-width voiced katakana", "ｶﾞ", "ガ"},
		{"full-width punctuation", "！？", "!?"},
		{"ideographic space", "社長　猫", "社長 猫"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fold(tt.input); got != tt.want {
				t.Errorf("Fold(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
