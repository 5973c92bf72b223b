// Package config provides loading and parsing of schemas.yaml catalogs.
// A catalog declares entity schemas by name so that they can be built
// without code, e.g. by tools normalizing documents of a known format.
//
//	entities:
//	  - name: users
//	    id: id
//	  - name: comments
//	    id_fields: [post, seq]
//	    props:
//	      commenter: users
//	  - name: articles
//	    id: id
//	    props:
//	      author: users
//	      comments: {array: comments}
//	      reactions: {object: users}
//	  - name: hosts
//	    id_expr: 'input.ip + ":" + string(input.port)'
//	  - name: banners
//	    id_hash: [service, text]
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is matched by every validation error of a catalog file.
var ErrInvalidConfig = errors.New("invalid schema config")

// File represents a schemas.yaml catalog file.
type File struct {
	Entities []EntityConfig `yaml:"entities"`
}

// EntityConfig declares one entity schema. Exactly one of ID, IDFields,
// IDExpr and IDHash must be set.
type EntityConfig struct {
	// Name is the entity type name.
	Name string `yaml:"name"`

	// ID names the field holding the entity id.
	ID string `yaml:"id,omitempty"`

	// IDFields names fields whose values are joined into a composite id.
	IDFields []string `yaml:"id_fields,omitempty"`

	// IDExpr is a CEL expression over input, parent and key evaluating to the id.
	IDExpr string `yaml:"id_expr,omitempty"`

	// IDHash names fields hashed into a content UUID. An empty list hashes
	// every field.
	IDHash []string `yaml:"id_hash,omitempty"`

	// Props maps field names to the schema normalizing them.
	Props map[string]PropConfig `yaml:"props,omitempty"`
}

// PropConfig references the schema of a property. In YAML it is either a
// bare entity name or a mapping with exactly one of type, array or object.
type PropConfig struct {
	Type   string `yaml:"type,omitempty"`
	Array  string `yaml:"array,omitempty"`
	Object string `yaml:"object,omitempty"`
}

// UnmarshalYAML accepts the bare-name shorthand.
func (p *PropConfig) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		p.Type = value.Value
		return nil
	}

	type plain PropConfig
	var out plain
	if err := value.Decode(&out); err != nil {
		return err
	}
	*p = PropConfig(out)
	return nil
}

// Target returns the referenced entity name.
func (p PropConfig) Target() string {
	switch {
	case p.Array != "":
		return p.Array
	case p.Object != "":
		return p.Object
	}
	return p.Type
}

func (p PropConfig) count() int {
	n := 0
	for _, s := range []string{p.Type, p.Array, p.Object} {
		if s != "" {
			n++
		}
	}
	return n
}

func (e EntityConfig) strategies() int {
	n := 0
	if e.ID != "" {
		n++
	}
	if len(e.IDFields) > 0 {
		n++
	}
	if e.IDExpr != "" {
		n++
	}
	if e.IDHash != nil {
		n++
	}
	return n
}

// Load reads and parses a catalog file from the given path.
// If the path is a directory, it looks for schemas.yaml or schemas.yml in that directory.
func Load(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	configPath := path
	if info.IsDir() {
		configPath = ""
		for _, name := range []string{"schemas.yaml", "schemas.yml"} {
			candidate := filepath.Join(path, name)
			if _, err := os.Stat(candidate); err == nil {
				configPath = candidate
				break
			}
		}
		if configPath == "" {
			return nil, fmt.Errorf("no schemas.yaml or schemas.yml found in %s", path)
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	file, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return file, nil
}

// Parse decodes and validates a catalog. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var file File

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

// Validate reports every problem of the catalog, joined. Each matches
// ErrInvalidConfig.
func (f *File) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	names := make(map[string]bool, len(f.Entities))
	for i, e := range f.Entities {
		if e.Name == "" {
			fail("entity %d: missing name", i)
			continue
		}
		if names[e.Name] {
			fail("entity %q: duplicate name", e.Name)
		}
		names[e.Name] = true
	}

	for _, e := range f.Entities {
		if e.Name == "" {
			continue
		}
		if n := e.strategies(); n != 1 {
			fail("entity %q: want exactly one of id, id_fields, id_expr, id_hash, got %d", e.Name, n)
		}

		fields := make([]string, 0, len(e.Props))
		for field := range e.Props {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		for _, field := range fields {
			prop := e.Props[field]
			if prop.count() != 1 {
				fail("entity %q: prop %q: want exactly one of type, array, object", e.Name, field)
				continue
			}
			if !names[prop.Target()] {
				fail("entity %q: prop %q: unknown entity %q", e.Name, field, prop.Target())
			}
		}
	}

	return errors.Join(errs...)
}
