package normalizr

import (
	"github.com/zero-day-ai/normalizr/merge"
	"github.com/zero-day-ai/normalizr/schema"
)

// Aliases of the schema package types, so that most programs only import
// this package.
type (
	Schema             = schema.Schema
	EntitySchema       = schema.EntitySchema
	ArrayValuesSchema  = schema.ArrayValuesSchema
	ObjectValuesSchema = schema.ObjectValuesSchema
	EntityBuilder      = schema.EntityBuilder
	ValuesBuilder      = schema.ValuesBuilder
	PropRef            = schema.PropRef
	Ref                = schema.Ref
	Record             = schema.Record
	Entities           = schema.Entities
	Output             = schema.Output
	IDFunc             = schema.IDFunc
	ProcessFunc        = schema.ProcessFunc
)

// Entity starts an entity schema definition. See schema.Entity.
func Entity(process ...ProcessFunc) EntityBuilder {
	return schema.Entity(process...)
}

// ArrayValues declares a property holding a list of entities.
func ArrayValues(ref PropRef) ValuesBuilder {
	return schema.ArrayValues(ref)
}

// ObjectValues declares a property holding a keyed map of entities.
func ObjectValues(ref PropRef) ValuesBuilder {
	return schema.ObjectValues(ref)
}

// Build materializes an entity builder. See schema.Build.
func Build(b EntityBuilder) (*EntitySchema, error) {
	return schema.Build(b)
}

// MustBuild is like Build but panics on error.
func MustBuild(b EntityBuilder) *EntitySchema {
	return schema.MustBuild(b)
}

// Normalize normalizes input with s, without logging or telemetry.
func Normalize(input any, s Schema) (*Output, error) {
	return s.Normalize(input)
}

// Merge deep-merges two records. See merge.Recursive.
func Merge(a, b Record) (Record, error) {
	return merge.Recursive(a, b)
}
