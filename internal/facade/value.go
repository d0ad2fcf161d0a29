package facade

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind tags a Value.
type Kind int

const (
	KindError Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindError:
		return "error"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindMapping:
		return "mapping"
	}
	return "unknown"
}

// Value is the closed result type of an in-page evaluation. The zero Value
// is an error marker with an empty message.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string // string payload, or error message
	m    map[string]Value
}

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// NumberValue wraps a number.
func NumberValue(n float64) Value { return Value{kind: KindNumber, n: n} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// MapValue wraps a mapping. The map is not copied.
func MapValue(m map[string]Value) Value { return Value{kind: KindMapping, m: m} }

// NullValue is JavaScript null or undefined.
func NullValue() Value { return Value{kind: KindNull} }

// ErrorValue is the error marker.
func ErrorValue(msg string) Value { return Value{kind: KindError, s: msg} }

// Kind returns the tag.
func (v Value) Kind() Kind { return v.kind }

// IsError reports whether v is the error marker.
func (v Value) IsError() bool { return v.kind == KindError }

// True reports whether v is the boolean true. Anything else, including a
// truthy string or number, is false.
func (v Value) True() bool { return v.kind == KindBool && v.b }

// Bool returns the boolean payload.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Int returns the numeric payload when it is integral.
func (v Value) Int() (int, bool) {
	if v.kind != KindNumber || v.n != float64(int(v.n)) {
		return 0, false
	}
	return int(v.n), true
}

// Str returns the string payload.
func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

// Err returns the error message of an error marker.
func (v Value) Err() string {
	if v.kind != KindError {
		return ""
	}
	return v.s
}

// Field walks a dotted path through nested mappings ("history.len").
// A missing field or a non-mapping step yields an error marker.
func (v Value) Field(path string) Value {
	cur := v
	for _, part := range strings.Split(path, ".") {
		if cur.kind != KindMapping {
			return ErrorValue(fmt.Sprintf("field %q: not a mapping (%s)", path, cur.kind))
		}
		next, ok := cur.m[part]
		if !ok {
			return ErrorValue(fmt.Sprintf("field %q: missing", path))
		}
		cur = next
	}
	return cur
}

// Keys returns the sorted keys of a mapping.
func (v Value) Keys() []string {
	keys := make([]string, 0, len(v.m))
	for k := range v.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders the observed value for verdict details.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindString:
		return v.s
	case KindNull:
		return "null"
	case KindMapping:
		var b strings.Builder
		b.WriteByte('{')
		for i, k := range v.Keys() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteString(": ")
			b.WriteString(v.m[k].String())
		}
		b.WriteByte('}')
		return b.String()
	}
	return "JS_ERROR: " + v.s
}

// FromJSON decodes an evaluation result. Arrays become mappings keyed by
// index so Field paths like "files.0" work.
func FromJSON(data []byte) Value {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return NullValue()
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return ErrorValue("decode result: " + err.Error())
	}
	return FromGo(raw)
}

// FromGo converts decoded JSON (or test literals) into a Value.
func FromGo(x any) Value {
	switch t := x.(type) {
	case nil:
		return NullValue()
	case Value:
		return t
	case bool:
		return BoolValue(t)
	case string:
		return StringValue(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return ErrorValue("number: " + err.Error())
		}
		return NumberValue(f)
	case float64:
		return NumberValue(t)
	case float32:
		return NumberValue(float64(t))
	case int:
		return NumberValue(float64(t))
	case int64:
		return NumberValue(float64(t))
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = FromGo(e)
		}
		return MapValue(m)
	case []any:
		m := make(map[string]Value, len(t))
		for i, e := range t {
			m[strconv.Itoa(i)] = FromGo(e)
		}
		return MapValue(m)
	case error:
		return ErrorValue(t.Error())
	}
	return ErrorValue(fmt.Sprintf("unsupported result type %T", x))
}
