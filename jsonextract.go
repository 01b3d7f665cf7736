package quizimages

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when a response contains no JSON object or array
var ErrNoJSON = errors.New("no JSON value found in response")

// JSONExtractError reports a located but malformed JSON value
type JSONExtractError struct {
	Offset int
	Err    error
}

func (e *JSONExtractError) Error() string {
	return fmt.Sprintf("malformed JSON at offset %d: %v", e.Offset, e.Err)
}

func (e *JSONExtractError) Unwrap() error { return e.Err }

// ExtractJSON returns the first balanced JSON object or array embedded in free text.
// Surrounding prose and markdown code fences are ignored. Brackets inside string
// literals do not count toward balance.
func ExtractJSON(text string) (json.RawMessage, error) {
	start := strings.IndexAny(text, "{[")
	for start >= 0 {
		var lastErr error
		end, ok := matchClosing(text, start)
		if ok {
			candidate := text[start : end+1]
			var v any
			if lastErr = json.Unmarshal([]byte(candidate), &v); lastErr == nil {
				return json.RawMessage(candidate), nil
			}
		} else {
			lastErr = errors.New("unbalanced brackets")
		}
		// Prose like "[note]" can precede the payload; keep scanning.
		next := strings.IndexAny(text[start+1:], "{[")
		if next < 0 {
			return nil, &JSONExtractError{Offset: start, Err: lastErr}
		}
		start += 1 + next
	}
	return nil, ErrNoJSON
}

// ExtractJSONInto locates the first JSON value in text and unmarshals it into v
func ExtractJSONInto(text string, v any) error {
	raw, err := ExtractJSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &JSONExtractError{Err: err}
	}
	return nil
}

// matchClosing finds the index of the bracket closing the one at open
func matchClosing(text string, open int) (int, bool) {
	var stack []byte
	inString := false
	escaped := false
	for i := open; i < len(text); i++ {
		c := text[i]
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
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
