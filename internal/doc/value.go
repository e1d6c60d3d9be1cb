package doc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// Absent is the textual form of a missing or null value.
const Absent = "null"

// Text returns the natural textual form of a decoded document value.
// Objects and arrays render as compact JSON with sorted keys and without
// HTML escaping.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return Absent
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(t)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(t)
	case fmt.Stringer:
		return t.String()
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}

// Lookup evaluates a JMESPath expression (a dotted path in the simple case)
// against a decoded document. A missing path yields nil without error.
func Lookup(path string, data any) (any, error) {
	if data == nil {
		return nil, nil
	}
	v, err := jmespath.Search(path, data)
	if err != nil {
		return nil, fmt.Errorf("evaluating path %q: %w", path, err)
	}
	return v, nil
}
