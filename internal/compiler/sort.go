package compiler

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"unsafe"

	"github.com/roach88/fspquery/internal/ir"
	"github.com/roach88/fspquery/internal/query"
	"github.com/roach88/fspquery/internal/queryir"
)

// Ordering is a compiled sort key. Compare returns a negative number when a
// sorts before b. Sources must sort stably so equal keys keep source order.
type Ordering[T any] struct {
	Expr    queryir.Order
	Compare func(a, b T) int
}

type ordering struct {
	expr    queryir.Order
	compare func(a, b unsafe.Pointer) int
}

// CompileOrdering compiles the sort path and direction of ins. The second
// result is false when ins has no sort path.
func CompileOrdering[T any](c *Compiler, ins *query.Instruction) (Ordering[T], bool, error) {
	c = c.orDefault()
	if strings.TrimSpace(ins.SortPath) == "" {
		return Ordering[T]{}, false, nil
	}
	rt, addr, err := access[T](c)
	if err != nil {
		return Ordering[T]{}, false, sortPathError(ins.SortPath, err)
	}
	o, err := c.compileOrdering(rt, ins.SortPath, ins.SortDirection)
	if err != nil {
		return Ordering[T]{}, false, err
	}
	return Ordering[T]{
		Expr:    o.expr,
		Compare: func(a, b T) int { return o.compare(addr(a), addr(b)) },
	}, true, nil
}

// compileOrdering orders by a scalar path. Nulls sort first ascending, which
// puts them last descending.
func (c *Compiler) compileOrdering(rt reflect.Type, sortPath string, dir query.Direction) (ordering, error) {
	path, err := c.resolver.ResolvePath(rt, sortPath)
	if err != nil {
		return ordering{}, sortPathError(sortPath, err)
	}
	if !path.Leaf().Scalar() {
		return ordering{}, sortPathError(sortPath, fmt.Errorf("%s is a %s field and cannot be sorted", path, path.Leaf().Category))
	}

	descending := dir == query.Descending
	slog.Debug("compiler: ordering compiled", "type", rt.String(), "path", path.String(), "direction", dir.String())

	return ordering{
		expr: queryir.Order{
			Field:      queryir.Field{Path: path.String(), Column: path.Column()},
			Descending: descending,
		},
		compare: func(a, b unsafe.Pointer) int {
			n := ir.Compare(path.Value(a), path.Value(b))
			if descending {
				return -n
			}
			return n
		},
	}, nil
}

func sortPathError(sortPath string, err error) *Error {
	return &Error{
		Kind:    InvalidFilterPath,
		Path:    sortPath,
		Message: fmt.Sprintf("The sort property accessor %q is invalid.", sortPath),
		Err:     err,
	}
}
