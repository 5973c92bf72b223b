// Package shape classifies dynamically typed values (as produced by JSON or
// YAML decoding) into the small closed set of shapes the normalizer cares
// about.
package shape

import (
	"reflect"
	"sort"
)

// Kind is the structural shape of a dynamic value.
type Kind int

const (
	Nil Kind = iota
	Scalar
	Sequence
	Mapping

	// KindTotal is the number of shapes defined.
	KindTotal = int(iota)
)

// String returns the lowercase shape name used in error messages.
func (k Kind) String() string {
	switch k {
	case Nil:
		return "nil"
	case Scalar:
		return "scalar"
	case Sequence:
		return "array"
	case Mapping:
		return "object"
	default:
		return "unknown"
	}
}

// Of returns the shape of v.
//
// Any map keyed by strings is a Mapping. Any slice or array other than a
// byte slice is a Sequence. Nil interfaces, nil pointers, nil maps and nil
// slices are Nil. Everything else is a Scalar.
func Of(v any) Kind {
	switch x := v.(type) {
	case nil:
		return Nil
	case map[string]any:
		if x == nil {
			return Nil
		}
		return Mapping
	case []any:
		if x == nil {
			return Nil
		}
		return Sequence
	case string, bool, []byte:
		return Scalar
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return Nil
		}
		if rv.Type().Key().Kind() == reflect.String {
			return Mapping
		}
		return Scalar
	case reflect.Slice:
		if rv.IsNil() {
			return Nil
		}
		return Sequence
	case reflect.Array:
		return Sequence
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Nil
		}
	}

	return Scalar
}

// AsMapping returns v as a map[string]any when it is a Mapping.
// Maps of other string-keyed types are copied into a fresh map.
func AsMapping(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, m != nil
	}
	if Of(v) != Mapping {
		return nil, false
	}

	rv := reflect.ValueOf(v)
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// AsSequence returns v as a []any when it is a Sequence.
// Typed slices and arrays are copied into a fresh slice.
func AsSequence(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, s != nil
	}
	if Of(v) != Sequence {
		return nil, false
	}

	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
