package schema

import (
	"errors"

	"github.com/zero-day-ai/normalizr/internal/shape"
	"github.com/zero-day-ai/normalizr/merge"
)

// Record is one flattened entity, or any decoded JSON-like object.
type Record = map[string]any

// Entities maps entity type name to entity id to flattened record.
type Entities map[string]map[string]Record

// Count returns the total number of records across all types.
func (e Entities) Count() int {
	n := 0
	for _, records := range e {
		n += len(records)
	}
	return n
}

// Output is the result of a normalization.
type Output struct {
	// Result stands in for the root input: a string id for an entity,
	// a []string of ids for array values and a map[string]string of ids
	// for object values.
	Result any `json:"result" yaml:"result"`

	// Entities holds every flattened record by type and id.
	Entities Entities `json:"entities" yaml:"entities"`
}

// IDFunc derives the id of an entity from its processed input, the
// enclosing processed record (nil at the root) and the property key under
// which it was reached ("" at the root).
type IDFunc func(input, parent Record, key string) (string, error)

// ProcessFunc transforms raw input before it is traversed. Its result must
// be an object.
type ProcessFunc func(input any, parent Record, key string) (any, error)

// Schema is implemented by *EntitySchema, *ArrayValuesSchema and
// *ObjectValuesSchema. The set is closed.
type Schema interface {
	// Name returns the entity type name the schema emits.
	Name() string

	// Normalize normalizes input at the root, without parent or key.
	Normalize(input any) (*Output, error)

	// NormalizeWith normalizes input reached from parent under key.
	NormalizeWith(input any, parent Record, key string) (*Output, error)

	normalize(input any, parent Record, key string, outer *scope) (*Output, error)
}

// scope is the chain of schema registries used to resolve names, innermost
// first.
type scope struct {
	owner *EntitySchema
	outer *scope
}

func (s *scope) lookup(name string) (*EntitySchema, bool) {
	for sc := s; sc != nil; sc = sc.outer {
		if found, ok := sc.owner.schemas[name]; ok {
			return found, true
		}
	}
	return nil, false
}

// seed returns an Entities with an empty collection for every name.
func seed(names []string) Entities {
	entities := make(Entities, len(names))
	for _, name := range names {
		entities[name] = map[string]Record{}
	}
	return entities
}

// mergeEntities folds b into a without mutating either. Records sharing an
// id are merged with merge.Recursive.
func mergeEntities(a, b Entities) (Entities, error) {
	out := make(Entities, len(a)+len(b))
	for name, records := range a {
		out[name] = records
	}

	for _, name := range shape.SortedKeys(b) {
		incoming := b[name]
		existing := out[name]
		if len(existing) == 0 {
			out[name] = incoming
			continue
		}
		if len(incoming) == 0 {
			continue
		}

		merged := make(map[string]Record, len(existing)+len(incoming))
		for id, record := range existing {
			merged[id] = record
		}
		for _, id := range shape.SortedKeys(incoming) {
			record := incoming[id]
			prev, ok := merged[id]
			if !ok {
				merged[id] = record
				continue
			}

			combined, err := merge.Recursive(prev, record)
			if err != nil {
				var conflict *merge.ConflictError
				if errors.As(err, &conflict) {
					conflict.Path = append([]string{name, id}, conflict.Path...)
				}
				return nil, err
			}
			merged[id] = combined
		}
		out[name] = merged
	}

	return out, nil
}
