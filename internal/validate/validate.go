// Package validate checks an instruction against a record type before it is
// compiled, reporting problems with stable codes.
package validate

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/fspquery/internal/compiler"
	"github.com/roach88/fspquery/internal/ir"
	"github.com/roach88/fspquery/internal/query"
	"github.com/roach88/fspquery/internal/resolver"
)

// Validation error codes (E100-E199)
const (
	// Paging errors (E101-E103)
	ErrPageNumber       = "E101" // page number must be positive
	ErrPageSize         = "E102" // page size must be positive
	ErrPageSizeTooLarge = "E103" // page size above the configured maximum

	// Filter errors (E110-E116)
	ErrEmptyPath           = "E110" // filter without a property path
	ErrUndefinedOperator   = "E111" // filter without an operator
	ErrUnknownPath         = "E112" // path does not resolve
	ErrNotScalar           = "E113" // path ends at a record
	ErrValueType           = "E114" // value not convertible to the field kind
	ErrNullNotAllowed      = "E115" // null with an operator other than Equals/NotEquals
	ErrUnsupportedOperator = "E116" // operator not defined for the field category

	// Sort errors (E120-E121)
	ErrUnknownSortPath = "E120" // sort path does not resolve
	ErrSortNotScalar   = "E121" // sort path ends at a record
)

// Error is one validation problem.
type Error struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validator checks instructions against record types.
type Validator struct {
	// Resolver resolves property paths. Defaults to resolver.Default.
	Resolver *resolver.Resolver

	// MaxPageSize bounds the page size when positive.
	MaxPageSize int
}

// Validate returns the first problem with ins for record type t, or nil.
func (v Validator) Validate(t reflect.Type, ins *query.Instruction) error {
	if errs := v.All(t, ins); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// All returns every problem with ins, in check order: paging, filters in
// set order, then the sort path.
func (v Validator) All(t reflect.Type, ins *query.Instruction) []*Error {
	var errs []*Error
	add := func(field, code, format string, args ...any) {
		errs = append(errs, &Error{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if ins.PageNumber <= 0 {
		add("page", ErrPageNumber, "page number %d must be greater than 0", ins.PageNumber)
	}
	switch {
	case ins.PageSize <= 0:
		add("pageSize", ErrPageSize, "page size %d must be greater than 0", ins.PageSize)
	case v.MaxPageSize > 0 && ins.PageSize > v.MaxPageSize:
		add("pageSize", ErrPageSizeTooLarge, "page size %d exceeds the maximum of %d", ins.PageSize, v.MaxPageSize)
	}

	for i, cond := range ins.Filters.Conditions() {
		field := fmt.Sprintf("filters[%d]", i)
		if strings.TrimSpace(cond.Path) == "" {
			add(field, ErrEmptyPath, "property path is required")
			continue
		}
		if !cond.Operator.Valid() {
			add(field, ErrUndefinedOperator, "operator for %q is undefined", cond.Path)
			continue
		}
		path, err := v.resolver().ResolvePath(t, cond.Path)
		if err != nil {
			add(field, ErrUnknownPath, "%v", err)
			continue
		}
		leaf := path.Leaf()
		if !leaf.Scalar() {
			add(field, ErrNotScalar, "%q is a %s, not a value", cond.Path, leaf.Category)
			continue
		}
		value, err := ir.Coerce(cond.Value, leaf.Kind)
		if err != nil {
			add(field, ErrValueType, "value %v is not a valid %s for %q", cond.Value, leaf.Kind, cond.Path)
			continue
		}
		if !compiler.Supports(leaf.Category, cond.Operator) {
			add(field, ErrUnsupportedOperator, "%s cannot be used with the %s field %q", cond.Operator, leaf.Category, cond.Path)
			continue
		}
		if ir.IsNull(value) && cond.Operator.Positive() != query.Equals {
			add(field, ErrNullNotAllowed, "null cannot be used with %s on %q", cond.Operator, cond.Path)
		}
	}

	if sortPath := strings.TrimSpace(ins.SortPath); sortPath != "" {
		path, err := v.resolver().ResolvePath(t, sortPath)
		switch {
		case err != nil:
			add("sort", ErrUnknownSortPath, "%v", err)
		case !path.Leaf().Scalar():
			add("sort", ErrSortNotScalar, "%q is a %s and cannot be sorted", sortPath, path.Leaf().Category)
		}
	}

	return errs
}

func (v Validator) resolver() *resolver.Resolver {
	if v.Resolver == nil {
		return resolver.Default
	}
	return v.Resolver
}
