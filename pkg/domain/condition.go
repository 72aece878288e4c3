package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Op is a primitive predicate understood by the condition interpreter.
type Op string

const (
	OpEq       Op = "eq"
	OpNeq      Op = "neq"
	OpLt       Op = "lt"
	OpLte      Op = "lte"
	OpGt       Op = "gt"
	OpGte      Op = "gte"
	OpBetween  Op = "between"
	OpContains Op = "contains"
	OpAnyOf    Op = "any_of"
	OpSet      Op = "set"
	OpUnset    Op = "unset"
	OpAll      Op = "all"
	OpAny      Op = "any"
	OpNot      Op = "not"
)

// Condition is a pure predicate over a PatientData snapshot. Leaf conditions
// compare the value under Key; All, Any and Not combine Terms.
//
// When Key is absent and Fallback is set, the fallback is compared instead.
// Without a fallback, a missing key fails every comparison except neq.
type Condition struct {
	Op       Op          `json:"op" yaml:"op"`
	Key      string      `json:"key,omitempty" yaml:"key,omitempty"`
	Value    Value       `json:"value" yaml:"-"`
	Min      *float64    `json:"min,omitempty" yaml:"min,omitempty"`
	Max      *float64    `json:"max,omitempty" yaml:"max,omitempty"`
	Fallback *Value      `json:"fallback,omitempty" yaml:"-"`
	Terms    []Condition `json:"terms,omitempty" yaml:"terms,omitempty"`
}

func Eq(key string, v any) Condition  { return Condition{Op: OpEq, Key: key, Value: MustValue(v)} }
func Neq(key string, v any) Condition { return Condition{Op: OpNeq, Key: key, Value: MustValue(v)} }
func Lt(key string, n float64) Condition {
	return Condition{Op: OpLt, Key: key, Value: NumberValue(n)}
}
func Lte(key string, n float64) Condition {
	return Condition{Op: OpLte, Key: key, Value: NumberValue(n)}
}
func Gt(key string, n float64) Condition {
	return Condition{Op: OpGt, Key: key, Value: NumberValue(n)}
}
func Gte(key string, n float64) Condition {
	return Condition{Op: OpGte, Key: key, Value: NumberValue(n)}
}

// Between matches min <= value <= max.
func Between(key string, lo, hi float64) Condition {
	return Condition{Op: OpBetween, Key: key, Min: &lo, Max: &hi}
}

// Contains matches when the selection under key includes item.
func Contains(key, item string) Condition {
	return Condition{Op: OpContains, Key: key, Value: StringValue(item)}
}

// AnyOf matches when the value (or any selected item) under key is one of items.
func AnyOf(key string, items ...string) Condition {
	return Condition{Op: OpAnyOf, Key: key, Value: ListValue(items...)}
}

func IsSet(key string) Condition   { return Condition{Op: OpSet, Key: key} }
func IsUnset(key string) Condition { return Condition{Op: OpUnset, Key: key} }

func All(terms ...Condition) Condition { return Condition{Op: OpAll, Terms: terms} }
func Any(terms ...Condition) Condition { return Condition{Op: OpAny, Terms: terms} }
func Not(term Condition) Condition     { return Condition{Op: OpNot, Terms: []Condition{term}} }

// WithFallback returns a copy of c that compares v when the key is missing.
func (c Condition) WithFallback(v any) Condition {
	fb := MustValue(v)
	c.Fallback = &fb
	return c
}

// Evaluate runs the predicate against data. It never mutates data.
func (c Condition) Evaluate(data PatientData) bool {
	switch c.Op {
	case OpAll:
		for _, t := range c.Terms {
			if !t.Evaluate(data) {
				return false
			}
		}
		return true
	case OpAny:
		for _, t := range c.Terms {
			if t.Evaluate(data) {
				return true
			}
		}
		return false
	case OpNot:
		return !All(c.Terms...).Evaluate(data)
	case OpSet:
		return data.Has(c.Key)
	case OpUnset:
		return !data.Has(c.Key)
	}

	actual, ok := c.lookup(data)
	if !ok {
		return c.Op == OpNeq
	}

	switch c.Op {
	case OpEq:
		return actual.Equal(c.Value)
	case OpNeq:
		return !actual.Equal(c.Value)
	case OpLt, OpLte, OpGt, OpGte:
		a, okA := actual.AsNumber()
		b, okB := c.Value.AsNumber()
		if !okA || !okB {
			return false
		}
		switch c.Op {
		case OpLt:
			return a < b
		case OpLte:
			return a <= b
		case OpGt:
			return a > b
		default:
			return a >= b
		}
	case OpBetween:
		n, ok := actual.AsNumber()
		if !ok {
			return false
		}
		if c.Min != nil && n < *c.Min {
			return false
		}
		if c.Max != nil && n > *c.Max {
			return false
		}
		return true
	case OpContains:
		return actual.Contains(c.Value.String())
	case OpAnyOf:
		allowed, _ := c.Value.AsList()
		selected, ok := actual.AsList()
		if !ok {
			selected = []string{actual.String()}
		}
		for _, s := range selected {
			if slices.Contains(allowed, s) {
				return true
			}
		}
		return false
	}
	return false
}

func (c Condition) lookup(data PatientData) (Value, bool) {
	if v, ok := data[c.Key]; ok && !v.IsNull() {
		return v, true
	}
	if c.Fallback != nil {
		return *c.Fallback, true
	}
	return NullValue(), false
}

// Keys lists the patient-data keys the condition reads, in first-seen order.
func (c Condition) Keys() []string {
	var keys []string
	var walk func(Condition)
	walk = func(c Condition) {
		if c.Key != "" && !slices.Contains(keys, c.Key) {
			keys = append(keys, c.Key)
		}
		for _, t := range c.Terms {
			walk(t)
		}
	}
	walk(c)
	return keys
}

// Validate checks the condition is well-formed.
func (c Condition) Validate() error {
	switch c.Op {
	case OpAll, OpAny:
		if len(c.Terms) == 0 {
			return fmt.Errorf("%s requires at least one term", c.Op)
		}
		for i, t := range c.Terms {
			if err := t.Validate(); err != nil {
				return fmt.Errorf("%s term %d: %w", c.Op, i, err)
			}
		}
		return nil
	case OpNot:
		if len(c.Terms) != 1 {
			return errors.New("not requires exactly one term")
		}
		return c.Terms[0].Validate()
	case OpEq, OpNeq, OpContains, OpSet, OpUnset:
	case OpLt, OpLte, OpGt, OpGte:
		if _, ok := c.Value.AsNumber(); !ok {
			return fmt.Errorf("%s on %q requires a numeric operand, got %s", c.Op, c.Key, c.Value.Kind())
		}
	case OpBetween:
		if c.Min == nil && c.Max == nil {
			return fmt.Errorf("between on %q requires min or max", c.Key)
		}
	case OpAnyOf:
		if c.Value.Kind() != KindList {
			return fmt.Errorf("any_of on %q requires a list operand", c.Key)
		}
	case "":
		return errors.New("missing op")
	default:
		return fmt.Errorf("unknown op %q", c.Op)
	}
	if c.Key == "" {
		return fmt.Errorf("%s requires a key", c.Op)
	}
	return nil
}

var opSymbols = map[Op]string{
	OpEq:  "==",
	OpNeq: "!=",
	OpLt:  "<",
	OpLte: "<=",
	OpGt:  ">",
	OpGte: ">=",
}

// String renders the condition in the shorthand accepted by ParseCondition.
func (c Condition) String() string {
	key := c.Key
	if c.Fallback != nil {
		key = fmt.Sprintf("%s ?? %s", c.Key, literal(*c.Fallback))
	}
	switch c.Op {
	case OpAll, OpAny:
		sep := " && "
		if c.Op == OpAny {
			sep = " || "
		}
		parts := make([]string, len(c.Terms))
		for i, t := range c.Terms {
			parts[i] = t.String()
			if len(t.Terms) > 0 && t.Op != OpNot {
				parts[i] = "(" + parts[i] + ")"
			}
		}
		return strings.Join(parts, sep)
	case OpNot:
		if len(c.Terms) == 1 {
			return "!(" + c.Terms[0].String() + ")"
		}
		return "!(" + All(c.Terms...).String() + ")"
	case OpSet, OpUnset:
		return fmt.Sprintf("%s %s", c.Key, c.Op)
	case OpContains:
		return fmt.Sprintf("%s contains %s", key, literal(c.Value))
	case OpAnyOf:
		return fmt.Sprintf("%s in %s", key, literal(c.Value))
	case OpBetween:
		var parts []string
		if c.Min != nil {
			parts = append(parts, fmt.Sprintf("%s >= %s", key, literal(NumberValue(*c.Min))))
		}
		if c.Max != nil {
			parts = append(parts, fmt.Sprintf("%s <= %s", key, literal(NumberValue(*c.Max))))
		}
		return strings.Join(parts, " && ")
	}
	if sym, ok := opSymbols[c.Op]; ok {
		return fmt.Sprintf("%s %s %s", key, sym, literal(c.Value))
	}
	return string(c.Op)
}

func literal(v Value) string {
	switch v.Kind() {
	case KindString:
		return "'" + strings.ReplaceAll(v.s, "'", "\\'") + "'"
	case KindList:
		items := make([]string, len(v.l))
		for i, s := range v.l {
			items[i] = literal(StringValue(s))
		}
		return "[" + strings.Join(items, ", ") + "]"
	case KindNull:
		return "null"
	}
	return v.String()
}
