package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"

	"filing-backend/internal/shared/apperr"
)

// DefaultMaxChars is the input budget sent to a model.
const DefaultMaxChars = 8000

// TruncationMarker is appended when the input was cut.
const TruncationMarker = "\n...[truncated]"

var ErrNoJSONObject = errors.New("no balanced JSON object in model response")

// Truncate keeps the first max characters of text and appends TruncationMarker
// when anything was dropped. max <= 0 selects DefaultMaxChars.
func Truncate(text string, max int) string {
	if max <= 0 {
		max = DefaultMaxChars
	}
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	n := 0
	for i := range text {
		if n == max {
			return text[:i] + TruncationMarker
		}
		n++
	}
	return text
}

var fence = regexp.MustCompile("(?m)^[ \t]*```[A-Za-z0-9_-]*[ \t]*$")

// ParseJSONObject strips markdown fences, takes the first balanced {...} span
// and decodes it. Failures are ExtractionErrors.
func ParseJSONObject(raw string) (map[string]any, error) {
	span, ok := firstObject(fence.ReplaceAllString(raw, ""))
	if !ok {
		return nil, apperr.Extraction("llm.parse", ErrNoJSONObject)
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(span), &out); err != nil {
		return nil, apperr.Extraction("llm.parse", fmt.Errorf("decode model json: %w", err))
	}
	return out, nil
}

// firstObject returns the first brace-balanced span, ignoring braces inside strings.
func firstObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
