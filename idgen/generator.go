package idgen

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/zero-day-ai/normalizr/internal/shape"
	"github.com/zero-day-ai/normalizr/schema"
)

// Separator joins the parts of composite and scoped ids.
const Separator = ":"

// Namespace is the UUID namespace of content ids.
var Namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/zero-day-ai/normalizr"))

// Fields returns an IDFunc joining the formatted values of fields with
// Separator, in the order given. A missing or nil field is
// schema.ErrMissingID.
func Fields(fields ...string) schema.IDFunc {
	fields = append([]string(nil), fields...)

	return func(input, _ schema.Record, _ string) (string, error) {
		if len(fields) == 0 {
			return "", fmt.Errorf("%w: no identifying fields", schema.ErrMissingID)
		}

		parts := make([]string, 0, len(fields))
		for _, field := range fields {
			v, ok := input[field]
			if !ok || v == nil {
				return "", fmt.Errorf("%w: field %q", schema.ErrMissingID, field)
			}
			parts = append(parts, schema.FormatID(v))
		}
		return strings.Join(parts, Separator), nil
	}
}

// KeyScoped returns an IDFunc prefixing the id computed by inner with the
// property key the entity was reached under. At the root, where there is
// no key, the inner id is returned unchanged.
func KeyScoped(inner schema.IDFunc) schema.IDFunc {
	return func(input, parent schema.Record, key string) (string, error) {
		id, err := inner(input, parent, key)
		if err != nil {
			return "", err
		}
		if key == "" {
			return id, nil
		}
		return key + Separator + id, nil
	}
}

// ParentScoped returns an IDFunc prefixing the id computed by inner with
// the formatted value of field in the enclosing record. Without a parent,
// or when the parent lacks the field, the inner id is returned unchanged.
func ParentScoped(field string, inner schema.IDFunc) schema.IDFunc {
	return func(input, parent schema.Record, key string) (string, error) {
		id, err := inner(input, parent, key)
		if err != nil {
			return "", err
		}

		pid, ok := parent[field]
		if !ok || pid == nil {
			return id, nil
		}
		return schema.FormatID(pid) + Separator + id, nil
	}
}

// Content returns an IDFunc deriving a version 5 UUID in Namespace from the
// canonical rendering of fields. With no fields every field of the
// processed input identifies the entity. A named field that is missing or
// nil is schema.ErrMissingID.
func Content(fields ...string) schema.IDFunc {
	fields = append([]string(nil), fields...)
	sort.Strings(fields)

	return func(input, _ schema.Record, _ string) (string, error) {
		names := fields
		if len(names) == 0 {
			names = shape.SortedKeys(input)
		} else {
			for _, field := range names {
				if v, ok := input[field]; !ok || v == nil {
					return "", fmt.Errorf("%w: field %q", schema.ErrMissingID, field)
				}
			}
		}

		canonical, err := Canonical(input, names)
		if err != nil {
			return "", err
		}
		return uuid.NewSHA1(Namespace, []byte(canonical)).String(), nil
	}
}

// Canonical renders the named fields of record as field=value pairs
// joined by "|", sorted by field name.
func Canonical(record schema.Record, fields []string) (string, error) {
	sorted := append([]string(nil), fields...)
	sort.Strings(sorted)

	pairs := make([]string, 0, len(sorted))
	for _, field := range sorted {
		normalized, err := canonicalValue(record[field])
		if err != nil {
			return "", fmt.Errorf("failed to normalize field %q: %w", field, err)
		}
		pairs = append(pairs, field+"="+normalized)
	}
	return strings.Join(pairs, "|"), nil
}

func canonicalValue(v any) (string, error) {
	if v == nil {
		return "null", nil
	}

	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x), nil
	case json.Number, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return schema.FormatID(x), nil
	}

	// Composite values: encoding/json sorts map keys.
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal composite value: %w", err)
	}
	return string(data), nil
}
