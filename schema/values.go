package schema

import (
	"github.com/zero-day-ai/normalizr/internal/shape"
)

// ArrayValuesSchema normalizes a list of entities of one type. Every element
// shares the same parent and key.
type ArrayValuesSchema struct {
	entity *EntitySchema
}

// NewArrayValues wraps a built entity schema for list input.
func NewArrayValues(entity *EntitySchema) *ArrayValuesSchema {
	return &ArrayValuesSchema{entity: entity}
}

// Name returns the wrapped entity type name.
func (a *ArrayValuesSchema) Name() string {
	return a.entity.name
}

// Entity returns the wrapped entity schema.
func (a *ArrayValuesSchema) Entity() *EntitySchema {
	return a.entity
}

// Normalize normalizes a root list.
func (a *ArrayValuesSchema) Normalize(input any) (*Output, error) {
	return a.normalize(input, nil, "", nil)
}

// NormalizeWith normalizes a list reached from parent under key. The result
// is a []string of ids in input order.
func (a *ArrayValuesSchema) NormalizeWith(input any, parent Record, key string) (*Output, error) {
	return a.normalize(input, parent, key, nil)
}

func (a *ArrayValuesSchema) normalize(input any, parent Record, key string, outer *scope) (*Output, error) {
	items, ok := shape.AsSequence(input)
	if !ok {
		return nil, &TypeMismatchError{Schema: a.entity.name, Want: "array", Got: shape.Of(input).String()}
	}

	ids := make([]string, 0, len(items))
	entities := seed(a.entity.reachable)
	for _, item := range items {
		out, err := a.entity.normalize(item, parent, key, outer)
		if err != nil {
			return nil, err
		}

		ids = append(ids, out.Result.(string))
		if entities, err = mergeEntities(entities, out.Entities); err != nil {
			return nil, err
		}
	}

	return &Output{Result: ids, Entities: entities}, nil
}

// ObjectValuesSchema normalizes a string-keyed map of entities of one type.
// Each map key is passed to the entity as its key.
type ObjectValuesSchema struct {
	entity *EntitySchema
}

// NewObjectValues wraps a built entity schema for keyed map input.
func NewObjectValues(entity *EntitySchema) *ObjectValuesSchema {
	return &ObjectValuesSchema{entity: entity}
}

// Name returns the wrapped entity type name.
func (o *ObjectValuesSchema) Name() string {
	return o.entity.name
}

// Entity returns the wrapped entity schema.
func (o *ObjectValuesSchema) Entity() *EntitySchema {
	return o.entity
}

// Normalize normalizes a root keyed map.
func (o *ObjectValuesSchema) Normalize(input any) (*Output, error) {
	return o.normalize(input, nil, "", nil)
}

// NormalizeWith normalizes a keyed map reached from parent. The key argument
// is ignored: each entry is normalized with its own map key. The result is
// a map[string]string of ids with the input's keys.
func (o *ObjectValuesSchema) NormalizeWith(input any, parent Record, key string) (*Output, error) {
	return o.normalize(input, parent, key, nil)
}

func (o *ObjectValuesSchema) normalize(input any, parent Record, _ string, outer *scope) (*Output, error) {
	items, ok := shape.AsMapping(input)
	if !ok {
		return nil, &TypeMismatchError{Schema: o.entity.name, Want: "object", Got: shape.Of(input).String()}
	}

	ids := make(map[string]string, len(items))
	entities := seed(o.entity.reachable)
	for _, k := range shape.SortedKeys(items) {
		out, err := o.entity.normalize(items[k], parent, k, outer)
		if err != nil {
			return nil, err
		}

		ids[k] = out.Result.(string)
		if entities, err = mergeEntities(entities, out.Entities); err != nil {
			return nil, err
		}
	}

	return &Output{Result: ids, Entities: entities}, nil
}
