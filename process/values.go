package process

import (
	"strconv"

	"github.com/zero-day-ai/normalizr/internal/shape"
	"github.com/zero-day-ai/normalizr/schema"
)

// GetMap extracts a nested object from the record.
// Returns nil if the key doesn't exist, the value is nil, or not an object.
// String-keyed maps of other types are copied into a map[string]any.
func GetMap(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}

	val, ok := m[key]
	if !ok || val == nil {
		return nil
	}

	nested, ok := shape.AsMapping(val)
	if !ok {
		return nil
	}

	return nested
}

// GetInt extracts an int value from the record with type coercion.
// Handles the integer types, float64 and numeric strings.
// Returns false if the key doesn't exist, the value is nil, or cannot be converted.
func GetInt(m map[string]any, key string) (int, bool) {
	val, ok := m[key]
	if !ok || val == nil {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case string:
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed, true
		}
	case interface{ Int64() (int64, error) }:
		if parsed, err := v.Int64(); err == nil {
			return int(parsed), true
		}
	}
	return 0, false
}

// Stringify replaces the values of fields with their id form (see
// schema.FormatID), so that 42, 42.0 and "42" compare equal downstream.
// Absent and nil fields are left alone.
func Stringify(fields ...string) schema.ProcessFunc {
	fields = append([]string(nil), fields...)
	return edit(func(rec schema.Record) {
		for _, f := range fields {
			if v, ok := rec[f]; ok && v != nil {
				rec[f] = schema.FormatID(v)
			}
		}
	})
}

// Integer coerces the values of fields to int where possible (see GetInt).
// Values that cannot be converted are left alone.
func Integer(fields ...string) schema.ProcessFunc {
	fields = append([]string(nil), fields...)
	return edit(func(rec schema.Record) {
		for _, f := range fields {
			if n, ok := GetInt(rec, f); ok {
				rec[f] = n
			}
		}
	})
}
