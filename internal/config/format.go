package config

import (
	"fmt"
	"strings"
)

const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatWakati = "wakati"
)

// NormalizeFormat canonicalises a tokenize output format name.
func NormalizeFormat(raw string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(raw))
	if format == "" {
		format = FormatText
	}
	switch format {
	case FormatText, FormatJSON, FormatWakati:
		return format, nil
	case "mecab":
		return FormatText, nil
	case "jsonl", "ndjson":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf(
			"invalid format %q (expected %s|%s|%s|mecab)",
			raw,
			FormatText,
			FormatJSON,
			FormatWakati,
		)
	}
}
