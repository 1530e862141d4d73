package workflow

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSON parses model output strictly as JSON; when that fails it
// attempts recovery from a fenced code block (``` or ```json) before
// giving up.
func extractJSON(text string) ([]byte, error) {
	trimmed := strings.TrimSpace(text)
	if json.Valid([]byte(trimmed)) {
		return []byte(trimmed), nil
	}

	inner, ok := fencedBlock(trimmed)
	if !ok {
		return nil, fmt.Errorf("response is not valid JSON and contains no fenced block")
	}
	if !json.Valid([]byte(inner)) {
		return nil, fmt.Errorf("fenced block is not valid JSON")
	}
	return []byte(inner), nil
}

// fencedBlock returns the contents of the first triple-backtick block,
// tolerating an optional "json" language tag.
func fencedBlock(text string) (string, bool) {
	start := strings.Index(text, "```")
	if start < 0 {
		return "", false
	}
	rest := text[start+3:]
	if tagged, ok := strings.CutPrefix(rest, "json"); ok {
		rest = tagged
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}
