// Package normalizr flattens nested object graphs into entity collections.
//
// Given a document such as a decoded JSON API response, normalizr replaces
// every nested entity with its id and extracts it into a collection keyed
// by entity type and id. The result is a flat, deduplicated store plus a
// reference standing in for the root.
//
// # Core Concepts
//
//   - Entity schemas: describe one entity type, how its id is derived and
//     which properties hold other entities
//   - Array and object values: containers of entities of one type
//   - Output: the root reference (Result) and the flattened records (Entities)
//
// # Getting Started
//
//	users := normalizr.MustBuild(normalizr.Entity().Name("users").ID("id"))
//	articles := normalizr.MustBuild(normalizr.Entity().
//		Name("articles").
//		ID("id").
//		Prop("author", users).
//		Prop("comments", normalizr.ArrayValues(normalizr.Ref("comments"))).
//		Define(comments))
//
//	out, err := normalizr.Normalize(doc, articles)
//	// out.Result                       == "123"
//	// out.Entities["users"]["1"]       == {"id": "1", "name": "Paul"}
//	// out.Entities["articles"]["123"]  == {"id": "123", "author": "1", ...}
//
// Schemas may reference themselves and each other by name, so recursive
// and cyclic data is flattened as well.
//
// # Observability
//
// A Normalizer wraps the same operation with structured logging (log/slog),
// an OpenTelemetry span per call and the metrics
// normalizr.normalize.count, normalizr.normalize.duration and
// normalizr.normalize.entities:
//
//	n, err := normalizr.New(
//		normalizr.WithLogger(logger),
//		normalizr.WithTracer(tp.Tracer("app")),
//	)
//	out, err := n.NormalizeJSON(ctx, articles, body)
//
// # Errors
//
// Failures of a Normalizer are returned as *Error, classified by KindOf.
// The sentinels of the schema, merge and config packages are re-exported
// for use with errors.Is.
//
// # Subpackages
//
//   - schema: the normalization engine and builder
//   - merge: the recursive merge of entity snapshots
//   - idgen: reusable id strategies (composite, scoped, content UUIDs)
//   - config: YAML schema catalogs with CEL id expressions
//   - protoconv: protobuf messages as normalization input and output
package normalizr
