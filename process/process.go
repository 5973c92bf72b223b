package process

import (
	"github.com/zero-day-ai/normalizr/internal/shape"
	"github.com/zero-day-ai/normalizr/schema"
)

// Rename moves field from to field to. An existing value at to is
// overwritten.
func Rename(from, to string) schema.ProcessFunc {
	return edit(func(rec schema.Record) {
		v, ok := rec[from]
		if !ok {
			return
		}
		delete(rec, from)
		rec[to] = v
	})
}

// Omit drops fields.
func Omit(fields ...string) schema.ProcessFunc {
	fields = append([]string(nil), fields...)
	return edit(func(rec schema.Record) {
		for _, f := range fields {
			delete(rec, f)
		}
	})
}

// Defaults sets every field of values that is absent or nil in the input.
func Defaults(values map[string]any) schema.ProcessFunc {
	defaults := make(map[string]any, len(values))
	for k, v := range values {
		defaults[k] = v
	}

	return edit(func(rec schema.Record) {
		for k, v := range defaults {
			if cur, ok := rec[k]; !ok || cur == nil {
				rec[k] = v
			}
		}
	})
}

// Lift merges the object held by field into the record and drops field.
// Fields already present in the record win.
func Lift(field string) schema.ProcessFunc {
	return edit(func(rec schema.Record) {
		nested := GetMap(rec, field)
		if nested == nil {
			return
		}
		delete(rec, field)
		for k, v := range nested {
			if _, ok := rec[k]; !ok {
				rec[k] = v
			}
		}
	})
}

// FromParent copies parentField of the enclosing record into the record
// as field. At the root, or when the parent lacks the field, the record is
// unchanged.
func FromParent(parentField, field string) schema.ProcessFunc {
	return func(input any, parent schema.Record, _ string) (any, error) {
		v, ok := parent[parentField]
		if !ok {
			return input, nil
		}
		return edit(func(rec schema.Record) {
			rec[field] = v
		})(input, parent, "")
	}
}

// FromKey stores the property key the entity was reached under as field.
// At the root, where there is no key, the record is unchanged.
func FromKey(field string) schema.ProcessFunc {
	return func(input any, parent schema.Record, key string) (any, error) {
		if key == "" {
			return input, nil
		}
		return edit(func(rec schema.Record) {
			rec[field] = key
		})(input, parent, key)
	}
}

// Unwrap replaces an envelope object with the object held by field, e.g.
// {"data": {...}} with the inner object. Input without such a field is
// returned unchanged.
func Unwrap(field string) schema.ProcessFunc {
	return func(input any, _ schema.Record, _ string) (any, error) {
		rec, ok := shape.AsMapping(input)
		if !ok {
			return input, nil
		}
		if inner := GetMap(rec, field); inner != nil {
			return inner, nil
		}
		return input, nil
	}
}

// edit returns a process function applying fn to a copy of object input.
func edit(fn func(rec schema.Record)) schema.ProcessFunc {
	return func(input any, _ schema.Record, _ string) (any, error) {
		in, ok := shape.AsMapping(input)
		if !ok {
			return input, nil
		}

		rec := make(schema.Record, len(in))
		for k, v := range in {
			rec[k] = v
		}
		fn(rec)
		return rec, nil
	}
}
