package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for schema construction and normalization.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrIncompleteSchema indicates Build was called before a name and an id
	// strategy were configured.
	ErrIncompleteSchema = errors.New("incomplete schema")

	// ErrUnresolvedSchema indicates a property references a schema name that
	// no registry in scope defines.
	ErrUnresolvedSchema = errors.New("unresolved schema")

	// ErrTypeMismatch indicates a schema received input of the wrong shape,
	// e.g. object values given an array.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrInvalidReference indicates a nil schema or an empty name was passed
	// to Prop, Define, ArrayValues or ObjectValues.
	ErrInvalidReference = errors.New("invalid schema reference")

	// ErrMissingID indicates the id field of an entity is absent or nil.
	ErrMissingID = errors.New("missing id")
)

// IncompleteSchemaError is returned by Build for a builder lacking required
// configuration.
type IncompleteSchemaError struct {
	// Name is the configured schema name, empty if none was set.
	Name string

	// Missing lists the missing settings ("name", "id").
	Missing []string
}

func (e *IncompleteSchemaError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("schema: incomplete schema: missing %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("schema: incomplete schema %q: missing %s", e.Name, strings.Join(e.Missing, ", "))
}

// Is reports whether target is ErrIncompleteSchema.
func (e *IncompleteSchemaError) Is(target error) bool {
	return target == ErrIncompleteSchema
}

// UnresolvedSchemaError is returned when a declared property is encountered
// in input and its schema name cannot be resolved.
type UnresolvedSchemaError struct {
	// Name is the schema name that could not be resolved.
	Name string

	// Schema is the name of the schema declaring the property.
	Schema string

	// Field is the property name.
	Field string
}

func (e *UnresolvedSchemaError) Error() string {
	return fmt.Sprintf("schema: unresolved schema %q referenced by %s.%s", e.Name, e.Schema, e.Field)
}

// Is reports whether target is ErrUnresolvedSchema.
func (e *UnresolvedSchemaError) Is(target error) bool {
	return target == ErrUnresolvedSchema
}

// TypeMismatchError is returned when input does not have the shape a schema
// requires.
type TypeMismatchError struct {
	// Schema is the name of the schema rejecting the input.
	Schema string

	// Want is the required shape ("object" or "array").
	Want string

	// Got is the shape received.
	Got string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("schema: %s expects %s input, got %s", e.Schema, e.Want, e.Got)
}

// Is reports whether target is ErrTypeMismatch.
func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}
