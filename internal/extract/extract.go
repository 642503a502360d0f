// Package extract pulls a JSON value out of free-form model output.
//
// Models asked for JSON routinely wrap it in prose or code fences. Extract
// scans for the first opening delimiter of the requested shape and the nearest
// closing delimiter after it, then parses only that span. The scan is
// non-greedy, so an object containing nested objects is cut at the first inner
// closing brace and fails to parse; callers fall back in that case.
package extract

import (
	"encoding/json"
	"regexp"
)

// Shape is the top-level JSON type a caller expects.
type Shape int

const (
	Object Shape = iota
	Array
)

func (s Shape) String() string {
	if s == Array {
		return "array"
	}
	return "object"
}

var (
	objectRe = regexp.MustCompile(`\{[\s\S]*?\}`)
	arrayRe  = regexp.MustCompile(`\[[\s\S]*?\]`)
)

// Extract returns the parsed value of the first candidate span for shape.
// The second result is false when there is no candidate, the span is not
// valid JSON, or its top-level type differs from shape. Only the first
// candidate is tried.
func Extract(raw string, shape Shape) (any, bool) {
	re := objectRe
	if shape == Array {
		re = arrayRe
	}
	span := re.FindString(raw)
	if span == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(span), &v); err != nil {
		return nil, false
	}
	switch v.(type) {
	case map[string]any:
		if shape != Object {
			return nil, false
		}
	case []any:
		if shape != Array {
			return nil, false
		}
	default:
		return nil, false
	}
	return v, true
}

// Into extracts a value of the given shape and decodes it into dst.
// It reports false if extraction fails or the value does not fit dst.
func Into(raw string, shape Shape, dst any) bool {
	v, ok := Extract(raw, shape)
	if !ok {
		return false
	}
	b, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return json.Unmarshal(b, dst) == nil
}
