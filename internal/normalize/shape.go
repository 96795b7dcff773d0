// Package normalize maps decoded service payloads onto the internal domain
// types. Every function here is pure and total: missing or mistyped data
// becomes the zero value of the target type, nothing returns an error.
//
// Inputs are values produced by encoding/json decoding into an `any`
// (objects as map[string]any, arrays as []any, numbers as json.Number when
// the decoder uses UseNumber, float64 otherwise).
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Shape tags which accepted variant a list payload arrived in.
type Shape int

const (
	// ShapeEmpty is a missing, null, or unrecognized payload.
	ShapeEmpty Shape = iota
	// ShapeBare is a top-level JSON array.
	ShapeBare
	// ShapeWrapped is an object holding the array under a named key.
	ShapeWrapped
)

func (s Shape) String() string {
	switch s {
	case ShapeBare:
		return "bare"
	case ShapeWrapped:
		return "wrapped"
	default:
		return "empty"
	}
}

// ClassifyList reports whether v is a bare array or an object wrapping an
// array under key.
func ClassifyList(v any, key string) Shape {
	if _, ok := v.([]any); ok {
		return ShapeBare
	}
	if obj, ok := v.(map[string]any); ok {
		if _, ok := obj[key].([]any); ok {
			return ShapeWrapped
		}
	}
	return ShapeEmpty
}

// listItems extracts the sequence from either accepted shape.
// The result is never nil.
func listItems(v any, key string) []any {
	switch ClassifyList(v, key) {
	case ShapeBare:
		return v.([]any)
	case ShapeWrapped:
		return v.(map[string]any)[key].([]any)
	default:
		return []any{}
	}
}

func asObject(v any) (map[string]any, bool) {
	obj, ok := v.(map[string]any)
	return obj, ok
}

// firstPresent returns the value of the first key that exists and is not
// JSON null.
func firstPresent(obj map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// toFloat converts any JSON number rendering to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toInt64(v any) (int64, bool) {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i, true
		}
	}
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) {
		return 0, false
	}
	// float64(math.MaxInt64) rounds up to 2^63, which does not fit.
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt64, true
	case f <= math.MinInt64:
		return math.MinInt64, true
	}
	return int64(f), true
}

// intField returns the first key holding a usable number. A present but
// mistyped value falls through to the next key.
func intField(obj map[string]any, keys ...string) (int, bool) {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok || v == nil {
			continue
		}
		if i, ok := toInt64(v); ok {
			return clampInt(i), true
		}
	}
	return 0, false
}

func clampInt(i int64) int {
	switch {
	case i > math.MaxInt:
		return math.MaxInt
	case i < math.MinInt:
		return math.MinInt
	}
	return int(i)
}

// countField is intField defaulted to 0 and clamped at 0.
func countField(obj map[string]any, keys ...string) int {
	n, _ := intField(obj, keys...)
	if n < 0 {
		return 0
	}
	return n
}

func stringField(obj map[string]any, keys ...string) string {
	v, ok := firstPresent(obj, keys...)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	default:
		return ""
	}
}

// optString returns nil for absent, null, or non-string values.
func optString(obj map[string]any, keys ...string) *string {
	v, ok := firstPresent(obj, keys...)
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func boolField(obj map[string]any, key string) bool {
	b, _ := obj[key].(bool)
	return b
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
