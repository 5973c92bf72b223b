// Package schema normalizes nested object graphs into flat, per-type entity
// collections linked by id references.
//
// A schema describes how to normalize one shape of input: a single entity
// (EntitySchema), a list of entities (ArrayValuesSchema) or a string-keyed
// map of entities (ObjectValuesSchema). Schemas are built with an immutable
// fluent builder and are safe for concurrent use once built.
//
// # Basic Usage
//
//	users := schema.MustBuild(schema.Entity().Name("users").ID("name"))
//
//	posts := schema.MustBuild(schema.Entity().
//		Name("posts").
//		ID("id").
//		Prop("author", users))
//
//	out, err := posts.Normalize(map[string]any{
//		"id":     1,
//		"title":  "Test Post",
//		"author": map[string]any{"name": "Jack"},
//	})
//	// out.Result   = "1"
//	// out.Entities = {
//	//   "posts": {"1": {"id": 1, "title": "Test Post", "author": "Jack"}},
//	//   "users": {"Jack": {"name": "Jack"}},
//	// }
//
// # Recursive Schemas
//
// Properties may reference schemas by name with Ref. Names are resolved
// lazily during normalization, so a schema can reference itself or a schema
// that is defined later:
//
//	users := schema.MustBuild(schema.Entity().
//		Name("users").
//		ID("name").
//		Prop("bestFriend", schema.Ref("users")))
//
// A name is looked up in the schema's own registry (itself, plus anything
// passed to Define or Prop) and then in the registries of the schemas that
// delegated to it, innermost first. A name that resolves nowhere fails with
// ErrUnresolvedSchema, but only when the property actually occurs in input.
//
// # Containers
//
// A property holding a list of entities is normalized to an ordered []string
// of ids. ArrayValues and ObjectValues declare container properties
// explicitly; object values normalize to a map[string]string of ids and pass
// each map key to the entity's id and process functions.
//
//	users := schema.MustBuild(schema.Entity().
//		Name("users").
//		ID("name").
//		Prop("posts", schema.ArrayValues(posts)).
//		Prop("bestPosts", schema.ObjectValues(schema.Ref("posts"))))
//
// # Id Strategies
//
// ID names a field whose value becomes the id. ComputeID accepts an IDFunc
// receiving the processed input, the enclosing record and the property key,
// which allows ids derived from context:
//
//	tests := schema.Entity().
//		Name("tests").
//		ComputeID(func(input, parent schema.Record, key string) (string, error) {
//			return key + input["foo"].(string), nil
//		})
//
// # Output
//
// Every entity type reachable from the root schema appears in
// Output.Entities, with an empty map when no instance was found. Records are
// merged with the merge package when the same id is reached more than once.
package schema
