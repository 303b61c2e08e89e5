package compiler

import (
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"unsafe"

	"github.com/roach88/fspquery/internal/ir"
	"github.com/roach88/fspquery/internal/query"
	"github.com/roach88/fspquery/internal/queryir"
	"github.com/roach88/fspquery/internal/resolver"
)

// Predicate is one compiled filter condition.
type Predicate[T any] struct {
	Expr  queryir.Predicate
	Match func(T) bool
}

// filter is a compiled condition over a record address.
type filter struct {
	expr  queryir.Predicate
	match func(record unsafe.Pointer) bool
}

// categoryOps lists the positive operators each field category supports.
// The Not form of a listed operator is supported as well.
var categoryOps = map[resolver.Category][]query.Operator{
	resolver.Text:    {query.Equals, query.Contains, query.StartsWith, query.EndsWith},
	resolver.Ordered: {query.Equals, query.GreaterThan, query.GreaterThanOrEqual, query.LessThan, query.LessThanOrEqual},
	resolver.Boolean: {query.Equals},
}

var (
	textOps = map[query.Operator]queryir.TextOp{
		query.Equals:     queryir.TextEqual,
		query.Contains:   queryir.TextContains,
		query.StartsWith: queryir.TextPrefix,
		query.EndsWith:   queryir.TextSuffix,
	}
	compareOps = map[query.Operator]queryir.CompareOp{
		query.Equals:             queryir.OpEqual,
		query.GreaterThan:        queryir.OpGreater,
		query.GreaterThanOrEqual: queryir.OpGreaterOrEqual,
		query.LessThan:           queryir.OpLess,
		query.LessThanOrEqual:    queryir.OpLessOrEqual,
	}
)

// Supports reports whether op can be applied to fields of the category.
func Supports(category resolver.Category, op query.Operator) bool {
	return slices.Contains(categoryOps[category], op.Positive())
}

// CompileFilter compiles one condition for records of type T.
func CompileFilter[T any](c *Compiler, cond query.FilterCondition) (Predicate[T], error) {
	c = c.orDefault()
	rt, addr, err := access[T](c)
	if err != nil {
		return Predicate[T]{}, invalidPath(cond, err)
	}
	f, err := c.compileFilter(rt, cond)
	if err != nil {
		return Predicate[T]{}, err
	}
	return wrapFilter(f, addr), nil
}

// CompileFilters compiles every condition of ins in set order. It fails on
// the first condition that does not compile.
func CompileFilters[T any](c *Compiler, ins *query.Instruction) ([]Predicate[T], error) {
	c = c.orDefault()
	conditions := ins.Filters.Conditions()
	if len(conditions) == 0 {
		return nil, nil
	}
	rt, addr, err := access[T](c)
	if err != nil {
		return nil, invalidPath(conditions[0], err)
	}

	out := make([]Predicate[T], 0, len(conditions))
	for _, cond := range conditions {
		f, err := c.compileFilter(rt, cond)
		if err != nil {
			return nil, err
		}
		out = append(out, wrapFilter(f, addr))
	}
	return out, nil
}

func wrapFilter[T any](f filter, addr func(T) unsafe.Pointer) Predicate[T] {
	return Predicate[T]{
		Expr:  f.expr,
		Match: func(v T) bool { return f.match(addr(v)) },
	}
}

// compileFilter resolves, coerces and builds one condition.
func (c *Compiler) compileFilter(rt reflect.Type, cond query.FilterCondition) (filter, error) {
	path, err := c.resolver.ResolvePath(rt, cond.Path)
	if err != nil {
		return filter{}, invalidPath(cond, err)
	}
	leaf := path.Leaf()

	supported, ok := categoryOps[leaf.Category]
	if !ok {
		return filter{}, unsupportedOperator(cond, leaf.Category)
	}

	value, err := ir.Coerce(cond.Value, leaf.Kind)
	if err != nil {
		return filter{}, typeMismatch(cond, err)
	}

	positive := cond.Operator.Positive()
	if !slices.Contains(supported, positive) {
		return filter{}, unsupportedOperator(cond, leaf.Category)
	}

	field := queryir.Field{Path: path.String(), Column: path.Column()}
	var f filter
	switch {
	case ir.IsNull(value):
		if positive != query.Equals {
			return filter{}, nullNotAllowed(cond)
		}
		f = filter{
			expr:  queryir.IsNull{Field: field},
			match: func(p unsafe.Pointer) bool { return ir.IsNull(path.Value(p)) },
		}
	case leaf.Category == resolver.Text:
		f = textFilter(path, field, textOps[positive], string(value.(ir.String)), cond.IgnoreCase)
	default:
		f = compareFilter(path, field, compareOps[positive], value)
	}

	if cond.Operator.Negated() {
		f = negate(f)
	}

	slog.Debug("compiler: filter compiled",
		"type", rt.String(),
		"path", field.Path,
		"operator", cond.Operator.String(),
		"category", leaf.Category.String())
	return f, nil
}

func negate(f filter) filter {
	return filter{
		expr:  queryir.Not{Predicate: f.expr},
		match: func(p unsafe.Pointer) bool { return !f.match(p) },
	}
}

func compareFilter(path resolver.Path, field queryir.Field, op queryir.CompareOp, value ir.Value) filter {
	var test func(int) bool
	switch op {
	case queryir.OpLess:
		test = func(c int) bool { return c < 0 }
	case queryir.OpLessOrEqual:
		test = func(c int) bool { return c <= 0 }
	case queryir.OpGreater:
		test = func(c int) bool { return c > 0 }
	case queryir.OpGreaterOrEqual:
		test = func(c int) bool { return c >= 0 }
	default:
		test = func(c int) bool { return c == 0 }
	}

	return filter{
		expr: queryir.Compare{Field: field, Op: op, Value: value},
		match: func(p unsafe.Pointer) bool {
			v := path.Value(p)
			if ir.IsNull(v) {
				return false
			}
			return test(ir.Compare(v, value))
		},
	}
}

func textFilter(path resolver.Path, field queryir.Field, op queryir.TextOp, needle string, ignoreCase bool) filter {
	prepare := func(s string) string { return s }
	if ignoreCase {
		prepare = ir.FoldText
	}
	want := prepare(needle)

	var test func(s string) bool
	switch op {
	case queryir.TextContains:
		test = func(s string) bool { return strings.Contains(s, want) }
	case queryir.TextPrefix:
		test = func(s string) bool { return strings.HasPrefix(s, want) }
	case queryir.TextSuffix:
		test = func(s string) bool { return strings.HasSuffix(s, want) }
	default:
		test = func(s string) bool { return s == want }
	}

	return filter{
		expr: queryir.Text{Field: field, Op: op, Value: needle, IgnoreCase: ignoreCase},
		match: func(p unsafe.Pointer) bool {
			s, ok := path.Value(p).(ir.String)
			if !ok {
				return false
			}
			return test(prepare(string(s)))
		},
	}
}
