package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/fspquery/internal/query"
)

// ErrorKind classifies compilation failures. A kind is itself an error, so
// errors.Is(err, compiler.InvalidFilterPath) works on any wrapped *Error.
type ErrorKind int

const (
	InvalidFilterPath ErrorKind = iota + 1
	FilterValueTypeMismatch
	NullValueNotAllowedForOperator
	UnsupportedOperatorForType
)

// Error codes (E201-E204), reported by the CLI.
var kindCodes = map[ErrorKind]string{
	InvalidFilterPath:              "E201",
	FilterValueTypeMismatch:        "E202",
	NullValueNotAllowedForOperator: "E203",
	UnsupportedOperatorForType:     "E204",
}

func (k ErrorKind) String() string {
	switch k {
	case InvalidFilterPath:
		return "InvalidFilterPath"
	case FilterValueTypeMismatch:
		return "FilterValueTypeMismatch"
	case NullValueNotAllowedForOperator:
		return "NullValueNotAllowedForOperator"
	case UnsupportedOperatorForType:
		return "UnsupportedOperatorForType"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

func (k ErrorKind) Error() string {
	return k.String()
}

// Code returns the stable error code for k.
func (k ErrorKind) Code() string {
	return kindCodes[k]
}

// Error reports a filter or sort step that cannot be compiled.
type Error struct {
	Kind     ErrorKind
	Path     string
	Operator query.Operator
	Value    any
	Message  string
	Err      error // underlying cause, if any
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// IsCompileError checks if an error is a compiler *Error.
func IsCompileError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

// KindOf returns the kind of a compiler error, or 0 when err is not one.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

func invalidPath(cond query.FilterCondition, err error) *Error {
	return &Error{
		Kind:     InvalidFilterPath,
		Path:     cond.Path,
		Operator: cond.Operator,
		Value:    cond.Value,
		Message:  fmt.Sprintf("The property accessor %q is invalid.", cond.Path),
		Err:      err,
	}
}

func typeMismatch(cond query.FilterCondition, err error) *Error {
	return &Error{
		Kind:     FilterValueTypeMismatch,
		Path:     cond.Path,
		Operator: cond.Operator,
		Value:    cond.Value,
		Message: fmt.Sprintf("The type for the filter value %s is invalid (types do not match) for %q with the filter condition %q.",
			displayValue(cond.Value), cond.Path, cond.Operator),
		Err: err,
	}
}

func nullNotAllowed(cond query.FilterCondition) *Error {
	return &Error{
		Kind:     NullValueNotAllowedForOperator,
		Path:     cond.Path,
		Operator: cond.Operator,
		Message: fmt.Sprintf("The filter value NULL cannot be used with the filter condition %q for property accessor %q.",
			cond.Operator, cond.Path),
	}
}

func unsupportedOperator(cond query.FilterCondition, category fmt.Stringer) *Error {
	return &Error{
		Kind:     UnsupportedOperatorForType,
		Path:     cond.Path,
		Operator: cond.Operator,
		Value:    cond.Value,
		Message: fmt.Sprintf("The filter condition %q cannot be used with the %s data type for property accessor %q.",
			cond.Operator, category, cond.Path),
	}
}

// displayValue quotes strings and leaves numbers and null bare.
func displayValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return fmt.Sprintf("%q", val)
	default:
		return fmt.Sprint(val)
	}
}
