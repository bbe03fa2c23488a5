package text

import "strings"

// isTerminator reports whether r ends a sentence. Newlines also end one.
func isTerminator(r rune) bool {
	switch r {
	case '。', '！', '？', '!', '?', '\n':
		return true
	}
	return false
}

// SplitSentences splits text after each sentence terminator, keeping the
// terminator attached to its sentence. Newlines are dropped, and segments
// that are empty after trimming whitespace are skipped.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0

	for i, r := range text {
		if !isTerminator(r) {
			continue
		}
		end := i + len(string(r))
		if r == '\n' {
			end = i
		}
		if s := strings.TrimSpace(text[start:end]); s != "" {
			sentences = append(sentences, s)
		}
		start = i + len(string(r))
	}

	// Trailing text after the last terminator (if any).
	if start < len(text) {
		if s := strings.TrimSpace(text[start:]); s != "" {
			sentences = append(sentences, s)
		}
	}

	return sentences
}
