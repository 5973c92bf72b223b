package normalizr

import (
	"errors"
	"fmt"

	"github.com/zero-day-ai/normalizr/config"
	"github.com/zero-day-ai/normalizr/merge"
	"github.com/zero-day-ai/normalizr/schema"
)

// Sentinel errors for normalization failures.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrIncompleteSchema indicates a schema was built without a name or id strategy.
	ErrIncompleteSchema = schema.ErrIncompleteSchema

	// ErrUnresolvedSchema indicates a property references an unknown schema name.
	ErrUnresolvedSchema = schema.ErrUnresolvedSchema

	// ErrTypeMismatch indicates input of the wrong shape for its schema.
	ErrTypeMismatch = schema.ErrTypeMismatch

	// ErrInvalidReference indicates a nil schema or empty name in a builder.
	ErrInvalidReference = schema.ErrInvalidReference

	// ErrMissingID indicates an entity whose id could not be derived.
	ErrMissingID = schema.ErrMissingID

	// ErrConflict indicates two records with the same id disagree on the shape of a field.
	ErrConflict = merge.ErrConflict

	// ErrInvalidConfig indicates an invalid schema catalog.
	ErrInvalidConfig = config.ErrInvalidConfig

	// ErrInvalidInput indicates a document that could not be decoded.
	ErrInvalidInput = errors.New("invalid input")
)

// Error kinds categorize errors by their type.
const (
	// KindConfiguration represents errors in schema definitions or catalogs.
	KindConfiguration = "configuration"

	// KindValidation represents input that does not fit its schema.
	KindValidation = "validation"

	// KindConflict represents records that cannot be merged.
	KindConflict = "conflict"

	// KindInternal represents every other error, including errors returned
	// by user id and process functions.
	KindInternal = "internal"
)

// Error wraps a normalization failure with the operation that failed and
// the category of error.
//
// Error supports unwrapping, so errors.Is() and errors.As() see the
// underlying schema, merge and config errors.
type Error struct {
	// Op is the operation that failed (e.g., "Normalizer.Normalize").
	Op string

	// Kind categorizes the error (e.g., KindValidation).
	Kind string

	// Schema is the name of the root schema, if any.
	Schema string

	// Err is the underlying error.
	Err error
}

func (e *Error) Error() string {
	if e.Schema != "" {
		return fmt.Sprintf("normalizr: %s %s (%s): %v", e.Op, e.Schema, e.Kind, e.Err)
	}
	return fmt.Sprintf("normalizr: %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by Kind, or the underlying error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok && t.Kind != "" && t.Kind == e.Kind {
		return t.Op == "" || t.Op == e.Op
	}
	return false
}

// KindOf classifies err. It returns "" for a nil error.
func KindOf(err error) string {
	if err == nil {
		return ""
	}

	var wrapped *Error
	if errors.As(err, &wrapped) && wrapped.Kind != "" {
		return wrapped.Kind
	}

	switch {
	case errors.Is(err, ErrIncompleteSchema),
		errors.Is(err, ErrUnresolvedSchema),
		errors.Is(err, ErrInvalidReference),
		errors.Is(err, ErrInvalidConfig):
		return KindConfiguration
	case errors.Is(err, ErrTypeMismatch),
		errors.Is(err, ErrMissingID),
		errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrConflict):
		return KindConflict
	}
	return KindInternal
}

func newError(op, schemaName string, err error) *Error {
	return &Error{
		Op:     op,
		Kind:   KindOf(err),
		Schema: schemaName,
		Err:    err,
	}
}
