package schema

import (
	"github.com/zero-day-ai/normalizr/internal/shape"
)

type refKind int

const (
	refEntity refKind = iota
	refArray
	refObject
)

// propRef is a declared property association, resolved by name at
// normalization time.
type propRef struct {
	kind   refKind
	target string
}

// EntitySchema normalizes a single entity type. It is immutable; build one
// with Entity and Build.
type EntitySchema struct {
	name      string
	id        IDFunc
	process   ProcessFunc
	props     map[string]propRef
	propOrder []string

	// schemas is the registry of known schemas by name, including this one.
	schemas map[string]*EntitySchema

	// reachable is every type name reachable through schemas, sorted.
	reachable []string
}

// Name returns the entity type name.
func (s *EntitySchema) Name() string {
	return s.name
}

// Props returns the declared property names in declaration order.
func (s *EntitySchema) Props() []string {
	return append([]string(nil), s.propOrder...)
}

// Reachable returns the sorted names of every entity type this schema can
// emit without consulting an enclosing scope. Each of them is present in
// the output of a normalization, possibly empty.
func (s *EntitySchema) Reachable() []string {
	return append([]string(nil), s.reachable...)
}

// Lookup returns the schema registered under name in this schema's own
// registry.
func (s *EntitySchema) Lookup(name string) (*EntitySchema, bool) {
	found, ok := s.schemas[name]
	return found, ok
}

// Normalize normalizes input as a root entity.
func (s *EntitySchema) Normalize(input any) (*Output, error) {
	return s.normalize(input, nil, "", nil)
}

// NormalizeWith normalizes input reached from parent under key.
func (s *EntitySchema) NormalizeWith(input any, parent Record, key string) (*Output, error) {
	return s.normalize(input, parent, key, nil)
}

// NormalizeMany normalizes a root list or string-keyed map of entities of
// this type, with array values or object values semantics respectively.
func (s *EntitySchema) NormalizeMany(input any) (*Output, error) {
	return s.NormalizeManyWith(input, nil, "")
}

// NormalizeManyWith is NormalizeMany for input reached from parent under key.
func (s *EntitySchema) NormalizeManyWith(input any, parent Record, key string) (*Output, error) {
	switch shape.Of(input) {
	case shape.Sequence:
		return NewArrayValues(s).NormalizeWith(input, parent, key)
	case shape.Mapping:
		return NewObjectValues(s).NormalizeWith(input, parent, key)
	}
	return nil, &TypeMismatchError{Schema: s.name, Want: "array or object", Got: shape.Of(input).String()}
}

func (s *EntitySchema) enter(outer *scope) *scope {
	if outer != nil && outer.owner == s {
		return outer
	}
	return &scope{owner: s, outer: outer}
}

func (s *EntitySchema) normalize(input any, parent Record, key string, outer *scope) (*Output, error) {
	sc := s.enter(outer)
	entities := seed(s.reachable)

	raw, err := s.process(input, parent, key)
	if err != nil {
		return nil, err
	}
	processed, ok := shape.AsMapping(raw)
	if !ok {
		return nil, &TypeMismatchError{Schema: s.name, Want: "object", Got: shape.Of(raw).String()}
	}

	record := make(Record, len(processed))
	for _, field := range shape.SortedKeys(processed) {
		value := processed[field]

		ref, declared := s.props[field]
		if !declared || shape.Of(value) == shape.Nil {
			record[field] = value
			continue
		}

		sub, err := s.resolve(ref, field, value, sc)
		if err != nil {
			return nil, err
		}

		out, err := sub.normalize(value, processed, field, sc)
		if err != nil {
			return nil, err
		}

		record[field] = out.Result
		if entities, err = mergeEntities(entities, out.Entities); err != nil {
			return nil, err
		}
	}

	id, err := s.id(processed, parent, key)
	if err != nil {
		return nil, err
	}

	entities, err = mergeEntities(entities, Entities{s.name: {id: record}})
	if err != nil {
		return nil, err
	}

	return &Output{Result: id, Entities: entities}, nil
}

// resolve picks the schema normalizing value for a declared property. A
// plain entity reference holding a list is handled as array values.
func (s *EntitySchema) resolve(ref propRef, field string, value any, sc *scope) (Schema, error) {
	target, ok := sc.lookup(ref.target)
	if !ok {
		return nil, &UnresolvedSchemaError{Name: ref.target, Schema: s.name, Field: field}
	}

	switch ref.kind {
	case refArray:
		return NewArrayValues(target), nil
	case refObject:
		return NewObjectValues(target), nil
	}

	if shape.Of(value) == shape.Sequence {
		return NewArrayValues(target), nil
	}
	return target, nil
}
