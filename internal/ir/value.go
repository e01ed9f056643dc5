package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Value is a sealed interface for the literal values a schema can pin a
// property to (sh:in members, sh:hasValue, ShExC value sets).
// Only String, Int, Float and Bool implement it.
type Value interface {
	irValue() // Sealed - only these types implement it
	// Native returns the plain Go value (string, int64, float64, bool).
	Native() any
}

// String is a string literal or an IRI rendered as text.
type String string

func (String) irValue()      {}
func (v String) Native() any { return string(v) }

// Int is an integer literal.
type Int int64

func (Int) irValue()      {}
func (v Int) Native() any { return int64(v) }

// Float is a decimal, float or double literal.
type Float float64

func (Float) irValue()      {}
func (v Float) Native() any { return float64(v) }

// MarshalJSON keeps whole floats distinguishable from Int by always
// emitting a fractional part.
func (v Float) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("float %v is not representable in JSON", f)
	}
	return []byte(FormatFloat(f)), nil
}

// Bool is a boolean literal.
type Bool bool

func (Bool) irValue()      {}
func (v Bool) Native() any { return bool(v) }

// FormatFloat renders f the way schema literals are echoed back in
// messages and query text: shortest round-trip form, always with a
// fractional part (3 -> "3.0", 2.5 -> "2.5").
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	for _, r := range s {
		if r == '.' || r == 'e' || r == 'E' {
			return s
		}
	}
	return s + ".0"
}

// ValueOf converts a decoded Go value into a Value.
// Accepts the types produced by encoding/json, yaml.v3 and the rdf
// literal decoder.
func ValueOf(v any) (Value, error) {
	switch val := v.(type) {
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", val, err)
		}
		return Float(f), nil
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}

// Values converts a slice of decoded Go values.
func Values(vs ...any) ([]Value, error) {
	out := make([]Value, 0, len(vs))
	for i, v := range vs {
		iv, err := ValueOf(v)
		if err != nil {
			return nil, fmt.Errorf("value[%d]: %w", i, err)
		}
		out = append(out, iv)
	}
	return out, nil
}

// FormatValue renders a value for human-readable messages. Strings are
// quoted the way a list literal would show them.
func FormatValue(v Value) string {
	switch val := v.(type) {
	case String:
		return "'" + string(val) + "'"
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return FormatFloat(float64(val))
	case Bool:
		return strconv.FormatBool(bool(val))
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FormatValueList renders values as "[a, b, c]" for messages.
func FormatValueList(vs []Value) string {
	out := "["
	for i, v := range vs {
		if i > 0 {
			out += ", "
		}
		out += FormatValue(v)
	}
	return out + "]"
}

// FormatStringList renders names as "['A', 'B']" for messages.
func FormatStringList(ss []string) string {
	vs := make([]Value, len(ss))
	for i, s := range ss {
		vs[i] = String(s)
	}
	return FormatValueList(vs)
}
