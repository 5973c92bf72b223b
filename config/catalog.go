package config

import (
	"fmt"
	"sort"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/zero-day-ai/normalizr/idgen"
	"github.com/zero-day-ai/normalizr/internal/shape"
	"github.com/zero-day-ai/normalizr/schema"
)

// Catalog holds the entity schemas built from a File, by name.
type Catalog struct {
	schemas map[string]*schema.EntitySchema
	names   []string
}

// CatalogOption configures how a File is built into a Catalog.
type CatalogOption func(*catalogOptions)

type catalogOptions struct {
	process map[string][]schema.ProcessFunc
}

// WithProcess attaches process functions to the named entity. Repeated
// calls append.
func WithProcess(name string, fns ...schema.ProcessFunc) CatalogOption {
	return func(o *catalogOptions) {
		o.process[name] = append(o.process[name], fns...)
	}
}

// Get returns the schema named name.
func (c *Catalog) Get(name string) (*schema.EntitySchema, bool) {
	s, ok := c.schemas[name]
	return s, ok
}

// Names returns the entity names in declaration order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// LoadCatalog loads the catalog file at path and builds it.
func LoadCatalog(path string, opts ...CatalogOption) (*Catalog, error) {
	file, err := Load(path)
	if err != nil {
		return nil, err
	}
	return file.Catalog(opts...)
}

// Catalog builds every entity of f.
//
// Props reference entities by name. Each returned schema defines exactly
// the entities reachable from it, so its output carries those types and
// no others.
func (f *File) Catalog(opts ...CatalogOption) (*Catalog, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	o := &catalogOptions{process: make(map[string][]schema.ProcessFunc)}
	for _, opt := range opts {
		opt(o)
	}
	for name := range o.process {
		if !f.has(name) {
			return nil, fmt.Errorf("%w: process for unknown entity %q", ErrInvalidConfig, name)
		}
	}

	builders := make(map[string]schema.EntityBuilder, len(f.Entities))
	bare := make(map[string]*schema.EntitySchema, len(f.Entities))
	for _, e := range f.Entities {
		b, err := builder(e, o.process[e.Name])
		if err != nil {
			return nil, err
		}
		s, err := schema.Build(b)
		if err != nil {
			return nil, fmt.Errorf("entity %q: %w", e.Name, err)
		}
		builders[e.Name] = b
		bare[e.Name] = s
	}

	c := &Catalog{schemas: make(map[string]*schema.EntitySchema, len(f.Entities))}
	for _, e := range f.Entities {
		b := builders[e.Name]
		for _, name := range f.reachable(e.Name) {
			if name != e.Name {
				b = b.Define(bare[name])
			}
		}
		s, err := schema.Build(b)
		if err != nil {
			return nil, fmt.Errorf("entity %q: %w", e.Name, err)
		}
		c.schemas[e.Name] = s
		c.names = append(c.names, e.Name)
	}

	return c, nil
}

func (f *File) has(name string) bool {
	for _, e := range f.Entities {
		if e.Name == name {
			return true
		}
	}
	return false
}

// reachable returns the names reachable from name through props, sorted,
// including name itself.
func (f *File) reachable(name string) []string {
	byName := make(map[string]EntityConfig, len(f.Entities))
	for _, e := range f.Entities {
		byName[e.Name] = e
	}

	seen := map[string]bool{name: true}
	queue := []string{name}
	for len(queue) > 0 {
		e := byName[queue[0]]
		queue = queue[1:]
		for _, prop := range e.Props {
			if t := prop.Target(); !seen[t] {
				seen[t] = true
				queue = append(queue, t)
			}
		}
	}

	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// builder declares e with props referencing other entities by name.
func builder(e EntityConfig, process []schema.ProcessFunc) (schema.EntityBuilder, error) {
	b := schema.Entity(process...).Name(e.Name)

	switch {
	case e.ID != "":
		b = b.ID(e.ID)
	case len(e.IDFields) > 0:
		b = b.ComputeID(idgen.Fields(e.IDFields...))
	case e.IDExpr != "":
		fn, err := compileID(e.Name, e.IDExpr)
		if err != nil {
			return b, err
		}
		b = b.ComputeID(fn)
	case e.IDHash != nil:
		b = b.ComputeID(idgen.Content(e.IDHash...))
	}

	for _, field := range shape.SortedKeys(e.Props) {
		prop := e.Props[field]
		switch {
		case prop.Array != "":
			b = b.Prop(field, schema.ArrayValues(schema.Ref(prop.Array)))
		case prop.Object != "":
			b = b.Prop(field, schema.ObjectValues(schema.Ref(prop.Object)))
		default:
			b = b.Prop(field, schema.Ref(prop.Type))
		}
	}

	return b, nil
}

// compileID compiles a CEL id expression. The expression sees the processed
// input and the parent record as input and parent (an empty map at the
// root) and the property key as key. A string result is used as is, any
// other value is formatted with schema.FormatID.
func compileID(name, expr string) (schema.IDFunc, error) {
	env, err := cel.NewEnv(
		cel.Variable("input", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("parent", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("key", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create expression environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: entity %q: id_expr: %v", ErrInvalidConfig, name, issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: entity %q: id_expr: %v", ErrInvalidConfig, name, err)
	}

	return func(input, parent schema.Record, key string) (string, error) {
		if parent == nil {
			parent = schema.Record{}
		}

		out, _, err := prg.Eval(map[string]any{
			"input":  input,
			"parent": parent,
			"key":    key,
		})
		if err != nil {
			return "", fmt.Errorf("%s: id_expr: %w", name, err)
		}

		switch v := out.(type) {
		case types.String:
			return string(v), nil
		case types.Null:
			return "", fmt.Errorf("%w: %s: id_expr returned null", schema.ErrMissingID, name)
		}
		return schema.FormatID(out.Value()), nil
	}, nil
}
