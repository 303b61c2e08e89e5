package ir

import (
	"cmp"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// Kind identifies how a scalar is compared.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindUint
	KindFloat
	KindBool
	KindTime
)

var kindNames = [...]string{
	KindNull:   "null",
	KindString: "string",
	KindInt:    "int",
	KindUint:   "uint",
	KindFloat:  "float",
	KindBool:   "bool",
	KindTime:   "time",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Value is a sealed interface over the scalar values a filter compares.
// Only Null, String, Int, Uint, Float, Bool and Time implement it.
type Value interface {
	Kind() Kind
	irValue() // Sealed - only these types implement it
}

// Null represents an absent value (nil pointer, JSON null).
type Null struct{}

func (Null) Kind() Kind { return KindNull }
func (Null) irValue()   {}

// String is a textual value.
type String string

func (String) Kind() Kind { return KindString }
func (String) irValue()   {}

// Int is any signed integer, widened to int64.
type Int int64

func (Int) Kind() Kind { return KindInt }
func (Int) irValue()   {}

// Uint is any unsigned integer, widened to uint64.
type Uint uint64

func (Uint) Kind() Kind { return KindUint }
func (Uint) irValue()   {}

// Float is any floating point number, widened to float64.
type Float float64

func (Float) Kind() Kind { return KindFloat }
func (Float) irValue()   {}

// Bool is a boolean value.
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (Bool) irValue()   {}

// Time is an instant.
type Time struct {
	time.Time
}

func (Time) Kind() Kind { return KindTime }
func (Time) irValue()   {}

var timeType = reflect.TypeOf(time.Time{})

// IsNull reports whether v is nil or Null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// KindOf maps a Go type to the Kind its values are compared as.
// Pointer types map to the kind of their element. The second result is false
// for types that are not scalars (structs, slices, maps, ...).
func KindOf(t reflect.Type) (Kind, bool) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == timeType {
		return KindTime, true
	}
	switch t.Kind() {
	case reflect.String:
		return KindString, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return KindInt, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return KindUint, true
	case reflect.Float32, reflect.Float64:
		return KindFloat, true
	case reflect.Bool:
		return KindBool, true
	}
	return KindNull, false
}

// FromGo converts a Go value to a Value.
//
// nil and nil pointers become Null. Named types (type Tier int) convert by
// their underlying kind. The second result is false when v has no scalar
// representation.
func FromGo(v any) (Value, bool) {
	switch val := v.(type) {
	case nil:
		return Null{}, true
	case Value:
		return val, true
	case string:
		return String(val), true
	case int:
		return Int(val), true
	case int64:
		return Int(val), true
	case int32:
		return Int(val), true
	case float64:
		return Float(val), true
	case bool:
		return Bool(val), true
	case time.Time:
		return Time{val}, true
	case *time.Time:
		if val == nil {
			return Null{}, true
		}
		return Time{*val}, true
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Null{}, true
		}
		rv = rv.Elem()
	}
	if rv.Type() == timeType {
		return Time{rv.Interface().(time.Time)}, true
	}
	switch rv.Kind() {
	case reflect.String:
		return String(rv.String()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Uint(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), true
	case reflect.Bool:
		return Bool(rv.Bool()), true
	}
	return nil, false
}

// Native returns the plain Go value for v, suitable as a database/sql
// argument. Null returns nil.
func Native(v Value) any {
	switch val := v.(type) {
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Uint:
		return uint64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	case Time:
		return val.Time
	}
	return nil
}

// Format renders v in its display form, the same form Parse accepts.
func Format(v Value) string {
	switch val := v.(type) {
	case String:
		return string(val)
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Uint:
		return strconv.FormatUint(uint64(val), 10)
	case Float:
		return strconv.FormatFloat(float64(val), 'f', -1, 64)
	case Bool:
		return strconv.FormatBool(bool(val))
	case Time:
		return val.Time.Format(time.RFC3339Nano)
	}
	return "null"
}

// Compare orders two values of the same kind, returning -1, 0 or +1.
// Values of different kinds are ordered by kind, Null first.
func Compare(a, b Value) int {
	if IsNull(a) || IsNull(b) {
		switch {
		case IsNull(a) && IsNull(b):
			return 0
		case IsNull(a):
			return -1
		default:
			return 1
		}
	}
	if a.Kind() != b.Kind() {
		return cmp.Compare(a.Kind(), b.Kind())
	}

	switch x := a.(type) {
	case String:
		return cmp.Compare(x, b.(String))
	case Int:
		return cmp.Compare(x, b.(Int))
	case Uint:
		return cmp.Compare(x, b.(Uint))
	case Float:
		return cmp.Compare(x, b.(Float))
	case Bool:
		y := b.(Bool)
		switch {
		case x == y:
			return 0
		case !bool(x):
			return -1
		default:
			return 1
		}
	case Time:
		return x.Time.Compare(b.(Time).Time)
	}
	return 0
}
