// Package types defines the runtime values and runtime errors of the tinyscript interpreter.
package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueType represents the type of a runtime value.
type ValueType int

const (
	TypeNull   ValueType = iota
	TypeBool             // bool
	TypeNumber           // float64
	TypeString           // string
)

// String returns the type name used in error messages.
func (t ValueType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is a runtime value, stored as a tagged union.
type Value struct {
	typ       ValueType
	boolVal   bool
	numberVal float64
	stringVal string
}

// Null is the singleton null value.
var Null = Value{typ: TypeNull}

// NewBool creates a boolean value.
func NewBool(v bool) Value {
	return Value{typ: TypeBool, boolVal: v}
}

// NewNumber creates a number value.
func NewNumber(v float64) Value {
	return Value{typ: TypeNumber, numberVal: v}
}

// NewString creates a string value.
func NewString(v string) Value {
	return Value{typ: TypeString, stringVal: v}
}

// Type returns the value's type.
func (v Value) Type() ValueType {
	return v.typ
}

// IsNull returns true if the value is null.
func (v Value) IsNull() bool {
	return v.typ == TypeNull
}

// AsBool returns the boolean value. Panics if not a bool.
func (v Value) AsBool() bool {
	if v.typ != TypeBool {
		panic(fmt.Sprintf("AsBool called on %s value", v.typ))
	}
	return v.boolVal
}

// AsNumber returns the number value. Panics if not a number.
func (v Value) AsNumber() float64 {
	if v.typ != TypeNumber {
		panic(fmt.Sprintf("AsNumber called on %s value", v.typ))
	}
	return v.numberVal
}

// AsString returns the string value. Panics if not a string.
func (v Value) AsString() string {
	if v.typ != TypeString {
		panic(fmt.Sprintf("AsString called on %s value", v.typ))
	}
	return v.stringVal
}

// Equal reports whether two values have the same type and payload.
func (v Value) Equal(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case TypeNull:
		return true
	case TypeBool:
		return v.boolVal == other.boolVal
	case TypeNumber:
		return v.numberVal == other.numberVal
	case TypeString:
		return v.stringVal == other.stringVal
	}
	return false
}

// String returns the display form of the value. Strings are not quoted.
func (v Value) String() string {
	switch v.typ {
	case TypeNull:
		return "null"
	case TypeBool:
		return strconv.FormatBool(v.boolVal)
	case TypeNumber:
		return strconv.FormatFloat(v.numberVal, 'g', -1, 64)
	case TypeString:
		return v.stringVal
	}
	return "<unknown>"
}

// Repr returns the source-like form of the value: strings are quoted.
func (v Value) Repr() string {
	if v.typ == TypeString {
		return strconv.Quote(v.stringVal)
	}
	return v.String()
}

// MarshalJSON encodes the value as the matching JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ToGoValue())
}

// MarshalYAML encodes the value as the matching YAML scalar.
func (v Value) MarshalYAML() (interface{}, error) {
	return v.ToGoValue(), nil
}

// ToGoValue converts a Value to a plain Go value (nil, bool, float64 or string).
func (v Value) ToGoValue() interface{} {
	switch v.typ {
	case TypeBool:
		return v.boolVal
	case TypeNumber:
		return v.numberVal
	case TypeString:
		return v.stringVal
	default:
		return nil
	}
}
