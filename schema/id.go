package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FieldID returns an IDFunc reading the named field of the processed input
// and formatting it with FormatID. An absent or nil field is ErrMissingID.
func FieldID(field string) IDFunc {
	return func(input, _ Record, _ string) (string, error) {
		v, ok := input[field]
		if !ok || v == nil {
			return "", fmt.Errorf("%w: field %q", ErrMissingID, field)
		}
		return FormatID(v), nil
	}
}

// FormatID stringifies an id value. Integers are formatted in decimal,
// floats in their shortest exact form (1.0 formats as "1"), json.Number
// verbatim; other values use fmt's default format.
func FormatID(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
