package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Kind tags the shape held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	default:
		return "null"
	}
}

// Value is a tagged union over the scalar and list shapes an answer or a
// patient attribute can take. The zero value is null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	l    []string
}

func NullValue() Value            { return Value{} }
func BoolValue(b bool) Value      { return Value{kind: KindBool, b: b} }
func NumberValue(n float64) Value { return Value{kind: KindNumber, n: n} }
func StringValue(s string) Value  { return Value{kind: KindString, s: s} }
func ListValue(l ...string) Value { return Value{kind: KindList, l: slices.Clone(l)} }

// Kind returns the shape tag of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v holds no value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// ValueOf converts a decoded Go value (from JSON, YAML or a literal) into a Value.
func ValueOf(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return t, nil
	case bool:
		return BoolValue(t), nil
	case string:
		return StringValue(t), nil
	case int:
		return NumberValue(float64(t)), nil
	case int32:
		return NumberValue(float64(t)), nil
	case int64:
		return NumberValue(float64(t)), nil
	case uint:
		return NumberValue(float64(t)), nil
	case uint64:
		return NumberValue(float64(t)), nil
	case float32:
		return NumberValue(float64(t)), nil
	case float64:
		return NumberValue(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return NullValue(), fmt.Errorf("invalid number %q: %w", t, err)
		}
		return NumberValue(f), nil
	case []string:
		return ListValue(t...), nil
	case []any:
		items := make([]string, 0, len(t))
		for i, item := range t {
			elem, err := ValueOf(item)
			if err != nil {
				return NullValue(), fmt.Errorf("list element %d: %w", i, err)
			}
			if elem.kind == KindList || elem.kind == KindNull {
				return NullValue(), fmt.Errorf("list element %d: unsupported %s", i, elem.kind)
			}
			items = append(items, elem.String())
		}
		return ListValue(items...), nil
	}
	return NullValue(), fmt.Errorf("unsupported value type %T", raw)
}

// MustValue is ValueOf for literals known to be valid.
func MustValue(raw any) Value {
	v, err := ValueOf(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// AsBool returns the boolean held by v. Strings "true"/"false" are accepted.
func (v Value) AsBool() (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindString:
		b, err := strconv.ParseBool(strings.TrimSpace(v.s))
		return b, err == nil
	}
	return false, false
}

// AsNumber returns the number held by v. Numeric strings are accepted.
func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.n, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) {
	if v.kind == KindString {
		return v.s, true
	}
	return "", false
}

// AsList returns the list held by v. A string is viewed as a one-element list.
func (v Value) AsList() ([]string, bool) {
	switch v.kind {
	case KindList:
		return slices.Clone(v.l), true
	case KindString:
		return []string{v.s}, true
	}
	return nil, false
}

// Truthy reports whether v counts as an affirmative answer.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n != 0
	case KindString:
		switch strings.ToLower(strings.TrimSpace(v.s)) {
		case "true", "yes", "y", "1":
			return true
		}
		return false
	case KindList:
		return len(v.l) > 0
	}
	return false
}

// Equal compares loosely across kinds: a number equals its decimal string and
// a bool equals "true"/"false".
func (v Value) Equal(o Value) bool {
	if v.kind == o.kind {
		switch v.kind {
		case KindNull:
			return true
		case KindBool:
			return v.b == o.b
		case KindNumber:
			return v.n == o.n
		case KindString:
			return v.s == o.s
		case KindList:
			return slices.Equal(v.l, o.l)
		}
	}
	if v.kind == KindNumber || o.kind == KindNumber {
		a, okA := v.AsNumber()
		b, okB := o.AsNumber()
		return okA && okB && a == b
	}
	if v.kind == KindBool || o.kind == KindBool {
		a, okA := v.AsBool()
		b, okB := o.AsBool()
		return okA && okB && a == b
	}
	return false
}

// Contains reports whether the list (or string) held by v includes item.
func (v Value) Contains(item string) bool {
	switch v.kind {
	case KindList:
		return slices.Contains(v.l, item)
	case KindString:
		return v.s == item
	}
	return false
}

// Interface returns the plain Go representation of v.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindList:
		return slices.Clone(v.l)
	}
	return nil
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindString:
		return v.s
	case KindList:
		return strings.Join(v.l, ", ")
	}
	return ""
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindList && v.l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v.Interface())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
