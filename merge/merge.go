// Package merge deep-merges entity collection snapshots produced by sibling
// normalization branches.
//
// Mappings are merged key by key, sequences are replaced by the incoming
// value, and scalars are overwritten. A mapping or sequence meeting a value
// of another shape is a conflict. Inputs are never mutated: every level the
// merge touches is freshly allocated, untouched subtrees are shared.
package merge

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/zero-day-ai/normalizr/internal/shape"
)

// ErrConflict is the sentinel matched by every ConflictError.
var ErrConflict = errors.New("mismatched structures cannot be merged")

// ConflictError reports two snapshots disagreeing on the shape of a key.
type ConflictError struct {
	// Path is the key path from the merge root to the conflicting value.
	Path []string

	// Existing is the shape found in the base snapshot ("object", "array", "scalar").
	Existing string

	// Incoming is the shape found in the overlay snapshot.
	Incoming string
}

func (e *ConflictError) Error() string {
	path := strings.Join(e.Path, ".")
	if path == "" {
		path = "(root)"
	}
	return fmt.Sprintf("merge conflict at %s: cannot merge %s into %s", path, e.Incoming, e.Existing)
}

// Is reports whether target is ErrConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Recursive returns the union of a and b, with b taking precedence.
//
// For every key of b:
//   - absent (or nil) in a: b's value is taken
//   - both mappings: merged recursively
//   - both sequences: b's sequence replaces a's
//   - both scalars: b's value wins
//   - any other combination: a *ConflictError
//
// Example:
//
//	merged, _ := merge.Recursive(
//		map[string]any{"a": map[string]any{"x": 1}},
//		map[string]any{"a": map[string]any{"y": 2}, "b": 3},
//	)
//	// merged = {"a": {"x": 1, "y": 2}, "b": 3}
func Recursive(a, b map[string]any) (map[string]any, error) {
	return mergeMaps(nil, a, b)
}

// Value merges two arbitrary values with the same rules as Recursive.
// A nil b over a mapping or sequence keeps a.
func Value(a, b any) (any, error) {
	return mergeValue(nil, a, b)
}

func mergeValue(path []string, a, b any) (any, error) {
	ak, bk := shape.Of(a), shape.Of(b)

	switch {
	case ak == shape.Nil:
		return b, nil
	case bk == shape.Nil:
		if ak == shape.Scalar {
			return b, nil
		}
		return a, nil
	case ak == shape.Mapping && bk == shape.Mapping:
		return mergeMappings(path, a, b)
	case ak == shape.Sequence && bk == shape.Sequence:
		return b, nil
	case ak == shape.Scalar && bk == shape.Scalar:
		return b, nil
	}

	return nil, &ConflictError{
		Path:     append([]string(nil), path...),
		Existing: ak.String(),
		Incoming: bk.String(),
	}
}

func mergeMappings(path []string, a, b any) (any, error) {
	am, _ := shape.AsMapping(a)
	bm, _ := shape.AsMapping(b)

	merged, err := mergeMaps(path, am, bm)
	if err != nil {
		return nil, err
	}
	return retype(merged, a, b), nil
}

func mergeMaps(path []string, a, b map[string]any) (map[string]any, error) {
	result := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		result[k] = v
	}

	// Sorted so the first conflict reported is deterministic.
	for _, k := range shape.SortedKeys(b) {
		incoming := b[k]
		existing, ok := result[k]
		if !ok {
			result[k] = incoming
			continue
		}

		merged, err := mergeValue(append(path, k), existing, incoming)
		if err != nil {
			return nil, err
		}
		result[k] = merged
	}

	return result, nil
}

// retype converts merged back into the map type shared by a and b, so
// that e.g. two map[string]string values merge into a map[string]string.
// merged is returned unchanged when the types differ or a value does not fit.
func retype(merged map[string]any, a, b any) any {
	t := reflect.TypeOf(a)
	if t != reflect.TypeOf(b) || t == reflect.TypeOf(merged) {
		return merged
	}

	out := reflect.MakeMapWithSize(t, len(merged))
	for k, v := range merged {
		rv := reflect.ValueOf(v)
		if !rv.IsValid() || !rv.Type().AssignableTo(t.Elem()) {
			return merged
		}
		out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), rv)
	}
	return out.Interface()
}
