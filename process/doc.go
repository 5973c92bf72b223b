// Package process provides reusable process functions for entity schemas.
//
// A process function reshapes raw input before an entity schema traverses
// it. The functions here cover the common cases of API payloads:
//
//	comments := schema.MustBuild(schema.Entity(
//		process.Unwrap("data"),
//		process.Rename("_id", "id"),
//		process.FromParent("id", "postId"),
//	).Name("comments").ID("id"))
//
// Every function copies the record it changes; the caller's input is never
// mutated. Input that is not an object is passed through unchanged, so the
// schema reports the type mismatch.
//
// Missing fields are never an error: a rename of an absent field, or a
// lift of a field that does not hold an object, leaves the record as is.
package process
