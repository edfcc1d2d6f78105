// Package sanitize makes arbitrary value trees JSON-encodable. Standard
// library JSON refuses NaN and infinities, and indicator output is full of
// NaN warmup values, so every outbound payload passes through Value first.
package sanitize

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"
)

// Marshal sanitizes v and JSON-encodes the result. Encoding a sanitized
// tree cannot fail on non-finite numbers, so the error is discarded.
func Marshal(v any) []byte {
	out, _ := json.Marshal(Value(v))
	return out
}

// Value returns a JSON-safe copy of v: NaN and infinities become nil,
// timestamps become RFC 3339 strings, map keys become strings, and
// containers are rebuilt recursively. It is total (never errors or panics
// on any input) and idempotent (sanitized output passes through unchanged).
func Value(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		return cleanFloat(x)
	case float32:
		return cleanFloat(float64(x))
	case time.Time:
		return x.Format(time.RFC3339)
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return x
	case []float64:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cleanFloat(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Value(e)
		}
		return out
	case []string:
		return x
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = Value(e)
		}
		return out
	}
	return reflected(v)
}

func cleanFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

// reflected handles containers the type switch cannot name, such as maps
// with non-string keys and slices of concrete struct types.
func reflected(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Value(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = Value(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = Value(iter.Value().Interface())
		}
		return out
	case reflect.Float32, reflect.Float64:
		return cleanFloat(rv.Float())
	case reflect.Struct:
		// Unknown structs pass through; json tags on the type govern
		// encoding and numeric struct fields are expected to be finite.
		return v
	}
	return v
}
