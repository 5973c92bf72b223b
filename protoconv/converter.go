package protoconv

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/zero-day-ai/normalizr/internal/shape"
	"github.com/zero-day-ai/normalizr/schema"
)

// ErrNilMessage is returned when a nil message is converted.
var ErrNilMessage = errors.New("proto message is nil")

// Option configures a conversion.
type Option func(*converter)

// WithJSONNames keys record fields by their JSON name (lowerCamelCase)
// instead of their proto name.
func WithJSONNames() Option {
	return func(c *converter) {
		c.jsonNames = true
	}
}

type converter struct {
	jsonNames bool
}

// ToRecord converts msg to a schema.Record. Only populated fields are
// included.
func ToRecord(msg proto.Message, opts ...Option) (schema.Record, error) {
	if msg == nil {
		return nil, ErrNilMessage
	}
	refl := msg.ProtoReflect()
	if !refl.IsValid() {
		return nil, ErrNilMessage
	}

	c := &converter{}
	for _, opt := range opts {
		opt(c)
	}

	v, err := c.message(refl)
	if err != nil {
		return nil, err
	}
	record, ok := v.(schema.Record)
	if !ok {
		return nil, fmt.Errorf("message %s does not convert to a record", refl.Descriptor().FullName())
	}
	return record, nil
}

// Process is a schema.ProcessFunc converting proto.Message input with
// ToRecord. Any other input is returned unchanged.
func Process(input any, _ schema.Record, _ string) (any, error) {
	msg, ok := input.(proto.Message)
	if !ok {
		return input, nil
	}
	return ToRecord(msg)
}

// ProcessWith returns a schema.ProcessFunc like Process using opts.
func ProcessWith(opts ...Option) schema.ProcessFunc {
	return func(input any, _ schema.Record, _ string) (any, error) {
		msg, ok := input.(proto.Message)
		if !ok {
			return input, nil
		}
		return ToRecord(msg, opts...)
	}
}

// message converts a message to a Record, or to the plain Go form of the
// well-known types with a natural one.
func (c *converter) message(m protoreflect.Message) (any, error) {
	switch x := m.Interface().(type) {
	case *structpb.Struct:
		return schema.Record(x.AsMap()), nil
	case *structpb.Value:
		return x.AsInterface(), nil
	case *structpb.ListValue:
		return x.AsSlice(), nil
	case *timestamppb.Timestamp:
		return x.AsTime().UTC().Format(time.RFC3339Nano), nil
	}

	record := make(schema.Record)
	var rangeErr error
	m.Range(func(field protoreflect.FieldDescriptor, value protoreflect.Value) bool {
		converted, err := c.field(field, value)
		if err != nil {
			rangeErr = fmt.Errorf("failed to convert field %s: %w", field.Name(), err)
			return false
		}
		record[c.name(field)] = converted
		return true
	})
	if rangeErr != nil {
		return nil, rangeErr
	}

	return record, nil
}

func (c *converter) name(field protoreflect.FieldDescriptor) string {
	if c.jsonNames {
		return field.JSONName()
	}
	return string(field.Name())
}

func (c *converter) field(field protoreflect.FieldDescriptor, value protoreflect.Value) (any, error) {
	switch {
	case field.IsMap():
		return c.mapValue(field, value.Map())
	case field.IsList():
		list := value.List()
		out := make([]any, 0, list.Len())
		for i := 0; i < list.Len(); i++ {
			converted, err := c.singular(field, list.Get(i))
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out = append(out, converted)
		}
		return out, nil
	}
	return c.singular(field, value)
}

func (c *converter) mapValue(field protoreflect.FieldDescriptor, m protoreflect.Map) (any, error) {
	valueField := field.MapValue()

	out := make(map[string]any, m.Len())
	var rangeErr error
	m.Range(func(k protoreflect.MapKey, v protoreflect.Value) bool {
		key := fmt.Sprint(k.Interface())
		converted, err := c.singular(valueField, v)
		if err != nil {
			rangeErr = fmt.Errorf("key %q: %w", key, err)
			return false
		}
		out[key] = converted
		return true
	})
	if rangeErr != nil {
		return nil, rangeErr
	}
	return out, nil
}

// singular converts one value of field, ignoring its cardinality.
func (c *converter) singular(field protoreflect.FieldDescriptor, value protoreflect.Value) (any, error) {
	switch field.Kind() {
	case protoreflect.StringKind:
		return value.String(), nil

	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return int32(value.Int()), nil

	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return value.Int(), nil

	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return uint32(value.Uint()), nil

	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return value.Uint(), nil

	case protoreflect.FloatKind:
		return float32(value.Float()), nil

	case protoreflect.DoubleKind:
		return value.Float(), nil

	case protoreflect.BoolKind:
		return value.Bool(), nil

	case protoreflect.BytesKind:
		return append([]byte(nil), value.Bytes()...), nil

	case protoreflect.EnumKind:
		num := value.Enum()
		if desc := field.Enum().Values().ByNumber(num); desc != nil {
			return string(desc.Name()), nil
		}
		return int32(num), nil

	case protoreflect.MessageKind, protoreflect.GroupKind:
		return c.message(value.Message())

	default:
		return nil, fmt.Errorf("unsupported field kind: %v", field.Kind())
	}
}

// ToStruct converts a normalization output to a google.protobuf.Struct with
// "result" and "entities" fields. Numbers become doubles.
func ToStruct(out *schema.Output) (*structpb.Struct, error) {
	if out == nil {
		return nil, errors.New("output is nil")
	}

	entities := make(map[string]any, len(out.Entities))
	for name, records := range out.Entities {
		byID := make(map[string]any, len(records))
		for id, record := range records {
			byID[id] = record
		}
		entities[name] = byID
	}

	fields, err := plain(map[string]any{
		"result":   out.Result,
		"entities": entities,
	})
	if err != nil {
		return nil, err
	}

	st, err := structpb.NewStruct(fields.(map[string]any))
	if err != nil {
		return nil, fmt.Errorf("failed to convert output to struct: %w", err)
	}
	return st, nil
}

// plain rewrites typed containers into the []any and map[string]any forms
// structpb accepts.
func plain(v any) (any, error) {
	switch shape.Of(v) {
	case shape.Mapping:
		m, _ := shape.AsMapping(v)
		out := make(map[string]any, len(m))
		for k, item := range m {
			converted, err := plain(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = converted
		}
		return out, nil

	case shape.Sequence:
		s, _ := shape.AsSequence(v)
		out := make([]any, len(s))
		for i, item := range s {
			converted, err := plain(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = converted
		}
		return out, nil
	}

	if n, ok := v.(json.Number); ok {
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", n.String(), err)
		}
		return f, nil
	}
	return v, nil
}
