package schema

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// PropRef is a schema reference accepted by Prop: a Ref naming a schema,
// a built *EntitySchema, or a ValuesBuilder from ArrayValues or
// ObjectValues.
type PropRef interface {
	propRef() (propRef, *EntitySchema)
}

// Ref references a schema by name. The name is resolved when the property
// is first encountered during normalization.
type Ref string

func (r Ref) propRef() (propRef, *EntitySchema) {
	return propRef{kind: refEntity, target: string(r)}, nil
}

func (s *EntitySchema) propRef() (propRef, *EntitySchema) {
	if s == nil {
		return propRef{}, nil
	}
	return propRef{kind: refEntity, target: s.name}, s
}

// ValuesBuilder declares a container property holding entities of one type.
type ValuesBuilder struct {
	kind   refKind
	target string
	schema *EntitySchema
}

func (v ValuesBuilder) propRef() (propRef, *EntitySchema) {
	return propRef{kind: v.kind, target: v.target}, v.schema
}

// ArrayValues declares a property holding a list of entities. ref is a Ref
// or a built *EntitySchema.
func ArrayValues(ref PropRef) ValuesBuilder {
	return newValuesBuilder(refArray, ref)
}

// ObjectValues declares a property holding a string-keyed map of entities.
// ref is a Ref or a built *EntitySchema.
func ObjectValues(ref PropRef) ValuesBuilder {
	return newValuesBuilder(refObject, ref)
}

func newValuesBuilder(kind refKind, ref PropRef) ValuesBuilder {
	if ref == nil {
		return ValuesBuilder{kind: kind}
	}
	r, s := ref.propRef()
	if r.kind != refEntity {
		// Containers of containers are not supported.
		return ValuesBuilder{kind: kind}
	}
	return ValuesBuilder{kind: kind, target: r.target, schema: s}
}

// EntityBuilder accumulates the configuration of an EntitySchema.
//
// EntityBuilder is a value: every method returns a new builder and leaves
// the receiver untouched, so a partially configured builder can be forked
// into several schemas.
//
//	base := schema.Entity().ID("id")
//	posts := schema.MustBuild(base.Name("posts"))
//	drafts := schema.MustBuild(base.Name("drafts"))
type EntityBuilder struct {
	name      string
	id        IDFunc
	process   ProcessFunc
	props     map[string]propRef
	propOrder []string
	schemas   map[string]*EntitySchema
	errs      []error
}

// Entity starts a schema definition. Optional process functions transform
// raw input before traversal; several are applied in order.
func Entity(process ...ProcessFunc) EntityBuilder {
	return EntityBuilder{process: chain(process)}
}

// Name sets the entity type name.
func (b EntityBuilder) Name(name string) EntityBuilder {
	b.name = name
	return b
}

// ID derives ids from the named field of the processed input. It replaces
// any id strategy set before. An empty field clears the id strategy.
func (b EntityBuilder) ID(field string) EntityBuilder {
	if field == "" {
		b.id = nil
		return b
	}
	b.id = FieldID(field)
	return b
}

// ComputeID derives ids with fn. It replaces any id strategy set before.
func (b EntityBuilder) ComputeID(fn IDFunc) EntityBuilder {
	b.id = fn
	return b
}

// Prop declares that field is normalized with ref. A built *EntitySchema,
// directly or inside a ValuesBuilder, is also registered as with Define.
func (b EntityBuilder) Prop(field string, ref PropRef) EntityBuilder {
	if ref == nil {
		return b.fail(fmt.Errorf("%w: property %q has no schema", ErrInvalidReference, field))
	}
	r, s := ref.propRef()
	if r.target == "" {
		return b.fail(fmt.Errorf("%w: property %q has no schema", ErrInvalidReference, field))
	}

	props := make(map[string]propRef, len(b.props)+1)
	for k, v := range b.props {
		props[k] = v
	}
	if _, exists := props[field]; !exists {
		b.propOrder = append(slices.Clip(b.propOrder), field)
	}
	props[field] = r
	b.props = props

	if s != nil {
		b.schemas = withSchema(b.schemas, s)
	}
	return b
}

// Define registers a schema so that properties can reference it by name.
func (b EntityBuilder) Define(s *EntitySchema) EntityBuilder {
	if s == nil {
		return b.fail(fmt.Errorf("%w: cannot define a nil schema", ErrInvalidReference))
	}
	b.schemas = withSchema(b.schemas, s)
	return b
}

func (b EntityBuilder) fail(err error) EntityBuilder {
	b.errs = append(slices.Clip(b.errs), err)
	return b
}

// Build materializes b into an EntitySchema. It returns an
// *IncompleteSchemaError when the name or the id strategy is missing, and
// ErrInvalidReference for invalid Prop or Define arguments.
func Build(b EntityBuilder) (*EntitySchema, error) {
	var missing []string
	if b.name == "" {
		missing = append(missing, "name")
	}
	if b.id == nil {
		missing = append(missing, "id")
	}
	if len(missing) > 0 {
		return nil, &IncompleteSchemaError{Name: b.name, Missing: missing}
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	s := &EntitySchema{
		name:      b.name,
		id:        b.id,
		process:   b.process,
		props:     b.props,
		propOrder: slices.Clone(b.propOrder),
	}
	s.schemas = withSchema(b.schemas, s)
	s.reachable = reachable(s)

	return s, nil
}

// MustBuild is like Build but panics on error. It simplifies the
// initialization of package-level schemas.
func MustBuild(b EntityBuilder) *EntitySchema {
	s, err := Build(b)
	if err != nil {
		panic(err)
	}
	return s
}

func withSchema(schemas map[string]*EntitySchema, s *EntitySchema) map[string]*EntitySchema {
	out := make(map[string]*EntitySchema, len(schemas)+1)
	for k, v := range schemas {
		out[k] = v
	}
	out[s.name] = s
	return out
}

// reachable collects the type names of s and, transitively, of every
// schema registered with it. Registered schemas are built before s, so the
// walk cannot cycle back into s.
func reachable(s *EntitySchema) []string {
	set := map[string]struct{}{s.name: {}}
	for name, defined := range s.schemas {
		set[name] = struct{}{}
		if defined == s {
			continue
		}
		for _, n := range defined.reachable {
			set[n] = struct{}{}
		}
	}

	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func chain(fns []ProcessFunc) ProcessFunc {
	var steps []ProcessFunc
	for _, fn := range fns {
		if fn != nil {
			steps = append(steps, fn)
		}
	}

	switch len(steps) {
	case 0:
		return identity
	case 1:
		return steps[0]
	}

	return func(input any, parent Record, key string) (any, error) {
		var err error
		for _, step := range steps {
			if input, err = step(input, parent, key); err != nil {
				return nil, err
			}
		}
		return input, nil
	}
}

func identity(input any, _ Record, _ string) (any, error) {
	return input, nil
}
