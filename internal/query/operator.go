package query

import (
	"fmt"
	"strings"
)

// Operator is a filter comparison.
//
// Every positive operator except Undefined has a Not counterpart that is its
// logical negation, including for null field values.
type Operator int

const (
	Undefined Operator = iota
	Equals
	NotEquals
	Contains
	NotContains
	StartsWith
	NotStartsWith
	EndsWith
	NotEndsWith
	GreaterThan
	NotGreaterThan
	GreaterThanOrEqual
	NotGreaterThanOrEqual
	LessThan
	NotLessThan
	LessThanOrEqual
	NotLessThanOrEqual
)

var operatorNames = [...]string{
	Undefined:             "Undefined",
	Equals:                "Equals",
	NotEquals:             "NotEquals",
	Contains:              "Contains",
	NotContains:           "NotContains",
	StartsWith:            "StartsWith",
	NotStartsWith:         "NotStartsWith",
	EndsWith:              "EndsWith",
	NotEndsWith:           "NotEndsWith",
	GreaterThan:           "GreaterThan",
	NotGreaterThan:        "NotGreaterThan",
	GreaterThanOrEqual:    "GreaterThanOrEqual",
	NotGreaterThanOrEqual: "NotGreaterThanOrEqual",
	LessThan:              "LessThan",
	NotLessThan:           "NotLessThan",
	LessThanOrEqual:       "LessThanOrEqual",
	NotLessThanOrEqual:    "NotLessThanOrEqual",
}

// Operators lists every executable operator in declaration order.
func Operators() []Operator {
	ops := make([]Operator, 0, len(operatorNames)-1)
	for op := Equals; op <= NotLessThanOrEqual; op++ {
		ops = append(ops, op)
	}
	return ops
}

func (o Operator) String() string {
	if o >= 0 && int(o) < len(operatorNames) {
		return operatorNames[o]
	}
	return fmt.Sprintf("Operator(%d)", int(o))
}

// Valid reports whether o is a known, executable operator.
func (o Operator) Valid() bool {
	return o > Undefined && o <= NotLessThanOrEqual
}

// Negated reports whether o is one of the Not forms.
func (o Operator) Negated() bool {
	// Not forms sit at the even positions after Equals.
	return o.Valid() && o%2 == 0
}

// Positive returns the positive form of o. Positive operators return
// themselves.
func (o Operator) Positive() Operator {
	if o.Negated() {
		return o - 1
	}
	return o
}

// Negate returns the opposite form: Equals becomes NotEquals and back.
// Undefined stays Undefined.
func (o Operator) Negate() Operator {
	switch {
	case !o.Valid():
		return o
	case o.Negated():
		return o - 1
	default:
		return o + 1
	}
}

// ParseOperator looks up an operator by name, ignoring case.
func ParseOperator(name string) (Operator, error) {
	for i, n := range operatorNames {
		if strings.EqualFold(n, name) {
			return Operator(i), nil
		}
	}
	return Undefined, fmt.Errorf("unknown filter operator %q", name)
}

func (o Operator) MarshalText() ([]byte, error) {
	if o < 0 || int(o) >= len(operatorNames) {
		return nil, fmt.Errorf("cannot marshal %s", o)
	}
	return []byte(operatorNames[o]), nil
}

func (o *Operator) UnmarshalText(text []byte) error {
	op, err := ParseOperator(string(text))
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// Direction is the sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// ParseDirection accepts "asc" and "desc" in any case. An empty string is
// Ascending.
func ParseDirection(s string) (Direction, error) {
	switch {
	case s == "", strings.EqualFold(s, "asc"):
		return Ascending, nil
	case strings.EqualFold(s, "desc"):
		return Descending, nil
	}
	return Ascending, fmt.Errorf("unknown sort direction %q (want \"asc\" or \"desc\")", s)
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
