// Package pf defines the core data structures for typed attributes and
// parameter files.
package pf

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the type tag of a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindLong
	KindDouble
	KindString
	KindBool
)

// String returns the canonical type tag used in text sources.
func (k Kind) String() string {
	switch k {
	case KindLong:
		return "long"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "invalid"
	}
}

// ParseKind maps a type tag from a text source to a Kind. Tags are
// case-insensitive and accept the usual aliases (int, real, boolean, ...).
func ParseKind(tag string) (Kind, error) {
	switch strings.ToLower(tag) {
	case "long", "int", "integer", "int32", "int64":
		return KindLong, nil
	case "double", "real", "float", "real32", "real64":
		return KindDouble, nil
	case "string":
		return KindString, nil
	case "bool", "boolean":
		return KindBool, nil
	default:
		return KindInvalid, fmt.Errorf("unknown type tag %q", tag)
	}
}

// Value is a single typed attribute. The zero Value is invalid.
type Value struct {
	kind Kind

	// Only the field matching kind is meaningful.
	longVal   int64
	doubleVal float64
	strVal    string
	boolVal   bool
}

// Long creates an integer value.
func Long(v int64) Value {
	return Value{kind: KindLong, longVal: v}
}

// Double creates a real value.
func Double(v float64) Value {
	return Value{kind: KindDouble, doubleVal: v}
}

// Str creates a text value.
func Str(v string) Value {
	return Value{kind: KindString, strVal: v}
}

// Bool creates a boolean value.
func Bool(v bool) Value {
	return Value{kind: KindBool, boolVal: v}
}

// Kind returns the value's type tag.
func (v Value) Kind() Kind {
	return v.kind
}

// IsValid reports whether v was built by one of the constructors.
func (v Value) IsValid() bool {
	return v.kind != KindInvalid
}

// AsLong returns the integer payload.
func (v Value) AsLong() (int64, error) {
	if v.kind != KindLong {
		return 0, fmt.Errorf("pf: expected long, got %s", v.kind)
	}
	return v.longVal, nil
}

// AsDouble returns the real payload.
func (v Value) AsDouble() (float64, error) {
	if v.kind != KindDouble {
		return 0, fmt.Errorf("pf: expected double, got %s", v.kind)
	}
	return v.doubleVal, nil
}

// AsString returns the text payload.
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", fmt.Errorf("pf: expected string, got %s", v.kind)
	}
	return v.strVal, nil
}

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, fmt.Errorf("pf: expected bool, got %s", v.kind)
	}
	return v.boolVal, nil
}

// Interface returns the payload as int64, float64, string or bool.
func (v Value) Interface() any {
	switch v.kind {
	case KindLong:
		return v.longVal
	case KindDouble:
		return v.doubleVal
	case KindString:
		return v.strVal
	case KindBool:
		return v.boolVal
	default:
		return nil
	}
}

// String formats the payload the way the text sources spell it. Text that
// would not survive whitespace splitting is quoted.
func (v Value) String() string {
	switch v.kind {
	case KindLong:
		return strconv.FormatInt(v.longVal, 10)
	case KindDouble:
		return strconv.FormatFloat(v.doubleVal, 'g', -1, 64)
	case KindString:
		if needsQuoting(v.strVal) {
			return strconv.Quote(v.strVal)
		}
		return v.strVal
	case KindBool:
		return strconv.FormatBool(v.boolVal)
	default:
		return "<invalid>"
	}
}

// ParseValue parses raw text according to kind.
func ParseValue(kind Kind, raw string) (Value, error) {
	switch kind {
	case KindLong:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("cannot parse %q as long: %w", raw, err)
		}
		return Long(i), nil
	case KindDouble:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, fmt.Errorf("cannot parse %q as double: %w", raw, err)
		}
		return Double(f), nil
	case KindBool:
		b, err := parseBool(raw)
		if err != nil {
			return Value{}, err
		}
		return Bool(b), nil
	case KindString:
		s, err := parseText(raw)
		if err != nil {
			return Value{}, err
		}
		return Str(s), nil
	default:
		return Value{}, fmt.Errorf("cannot parse value of kind %s", kind)
	}
}

// InferValue guesses the kind of an untyped value: integer, then real, then
// a boolean literal, otherwise text.
func InferValue(raw string) (Value, error) {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Long(i), nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Double(f), nil
	}
	switch strings.ToLower(raw) {
	case "true", "yes", "on":
		return Bool(true), nil
	case "false", "no", "off":
		return Bool(false), nil
	}
	s, err := parseText(raw)
	if err != nil {
		return Value{}, err
	}
	return Str(s), nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "yes", "1", "on":
		return true, nil
	case "false", "no", "0", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value: %s", s)
	}
}

// parseText accepts a bare word or a double-quoted Go string literal.
func parseText(raw string) (string, error) {
	if strings.HasPrefix(raw, `"`) {
		s, err := strconv.Unquote(raw)
		if err != nil {
			return "", fmt.Errorf("malformed quoted string %s", raw)
		}
		return s, nil
	}
	if raw == "" {
		return "", fmt.Errorf("missing string value")
	}
	if strings.ContainsAny(raw, " \t") {
		return "", fmt.Errorf("string value %q contains whitespace and must be quoted", raw)
	}
	return raw, nil
}

func needsQuoting(s string) bool {
	if s == "" || strings.HasPrefix(s, `"`) {
		return true
	}
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || !strconv.IsPrint(r) {
			return true
		}
	}
	return false
}
