// Package protoconv converts protocol buffer messages to and from the
// dynamic records the schema package normalizes.
//
// It uses protoreflect, so any generated or dynamic message can be
// normalized without hand-written mapping code.
//
// # Core Functions
//
// ToRecord converts a message to a schema.Record. Process adapts ToRecord
// to a schema.ProcessFunc, so entity schemas can consume messages directly:
//
//	hosts := schema.MustBuild(schema.Entity(protoconv.Process).
//		Name("hosts").
//		ID("ip"))
//	out, err := hosts.Normalize(hostMsg)
//
// ToStruct converts a normalization Output to a google.protobuf.Struct for
// transport over protobuf APIs.
//
// # Field Handling
//
// Only populated fields are included. Values are converted as follows:
//   - Scalars: string, int32, int64, uint32, uint64, float32, float64, bool, bytes
//   - Enums: the value name, or the number when it is not declared
//   - Messages: nested records
//   - Repeated fields: []any
//   - Map fields: map[string]any keyed by the formatted map key
//   - google.protobuf.Struct, Value and ListValue: their plain Go form
//   - google.protobuf.Timestamp: RFC 3339 string
//
// Fields are keyed by their proto name unless WithJSONNames is given.
package protoconv
