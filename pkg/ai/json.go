package ai

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrNoJSON is returned when a reply contains neither a JSON object nor an array.
var ErrNoJSON = errors.New("ai: no JSON found in response")

var (
	objectPattern = regexp.MustCompile(`(?s)\{.*\}`)
	arrayPattern  = regexp.MustCompile(`(?s)\[.*\]`)
)

// ExtractJSONObject returns the span from the first '{' to the last '}'.
func ExtractJSONObject(text string) (string, bool) {
	match := objectPattern.FindString(text)
	return match, match != ""
}

// ExtractJSONArray returns the span from the first '[' to the last ']'.
func ExtractJSONArray(text string) (string, bool) {
	match := arrayPattern.FindString(text)
	return match, match != ""
}

// DecodeJSON unmarshals a model reply into dest. Replies are often wrapped in
// prose or markdown fences, so the embedded object or array is tried when the
// raw text does not parse.
func DecodeJSON(text string, dest interface{}) error {
	trimmed := strings.TrimSpace(text)
	if err := json.Unmarshal([]byte(trimmed), dest); err == nil {
		return nil
	}
	candidates := make([]string, 0, 2)
	if obj, ok := ExtractJSONObject(trimmed); ok {
		candidates = append(candidates, obj)
	}
	if arr, ok := ExtractJSONArray(trimmed); ok {
		candidates = append(candidates, arr)
	}
	if len(candidates) == 0 {
		return ErrNoJSON
	}
	var lastErr error
	for _, candidate := range candidates {
		if lastErr = json.Unmarshal([]byte(candidate), dest); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

// Truncate returns at most limit runes of text.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit])
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
