package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are tried in order when parsing a display string as a Time.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ConversionError reports a raw value that cannot be converted to a Kind.
type ConversionError struct {
	Value  any
	Target Kind
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot convert %v (%T) to %s: %v", e.Value, e.Value, e.Target, e.Err)
	}
	return fmt.Sprintf("cannot convert %v (%T) to %s", e.Value, e.Value, e.Target)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Coerce converts a raw filter value to the target kind.
//
// A raw value whose natural kind already matches is used as is. Otherwise the
// value's display form is parsed as the target kind, so "7" converts to Int(7)
// and Int(1) converts to String("1"). nil always yields Null.
func Coerce(raw any, target Kind) (Value, error) {
	v, ok := FromGo(raw)
	if !ok {
		return nil, &ConversionError{Value: raw, Target: target}
	}
	if v.Kind() == KindNull || v.Kind() == target {
		return v, nil
	}
	if target == KindString {
		return String(Format(v)), nil
	}
	if f, ok := v.(Float); ok && (target == KindInt || target == KindUint) {
		n, err := wholeNumber(float64(f), target)
		if err != nil {
			return nil, &ConversionError{Value: raw, Target: target, Err: err}
		}
		return n, nil
	}
	parsed, err := Parse(Format(v), target)
	if err != nil {
		return nil, &ConversionError{Value: raw, Target: target, Err: err}
	}
	return parsed, nil
}

// wholeNumber converts a float with no fractional part to Int or Uint.
func wholeNumber(f float64, target Kind) (Value, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%s is not a whole number", strconv.FormatFloat(f, 'f', -1, 64))
	}
	if target == KindUint {
		if f < 0 || f >= math.MaxUint64 {
			return nil, fmt.Errorf("%s is out of range", strconv.FormatFloat(f, 'f', -1, 64))
		}
		return Uint(uint64(f)), nil
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return nil, fmt.Errorf("%s is out of range", strconv.FormatFloat(f, 'f', -1, 64))
	}
	return Int(int64(f)), nil
}

// Parse converts a display string to a Value of kind k.
// Surrounding whitespace is ignored for every kind except String.
func Parse(s string, k Kind) (Value, error) {
	if k == KindString {
		return String(s), nil
	}

	s = strings.TrimSpace(s)
	switch k {
	case KindInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		return Int(n), nil
	case KindUint:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, err
		}
		return Uint(n), nil
	case KindFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		return Float(f), nil
	case KindBool:
		return parseBool(s)
	case KindTime:
		return parseTime(s)
	}
	return nil, fmt.Errorf("unsupported target kind %s", k)
}

// parseBool accepts true and false in any case, and 1 and 0.
func parseBool(s string) (Value, error) {
	switch {
	case s == "1" || strings.EqualFold(s, "true"):
		return Bool(true), nil
	case s == "0" || strings.EqualFold(s, "false"):
		return Bool(false), nil
	}
	return nil, fmt.Errorf("invalid boolean %q", s)
}

func parseTime(s string) (Value, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Time{t}, nil
		}
	}
	return nil, fmt.Errorf("unrecognized time %q", s)
}
