package compiler

import (
	"reflect"
	"strings"

	"github.com/roach88/fspquery/internal/query"
	"github.com/roach88/fspquery/internal/queryir"
)

// ApplyFiltering conjoins every filter of ins onto src, in set order.
func ApplyFiltering[T any](c *Compiler, src Queryable[T], ins *query.Instruction) (Queryable[T], error) {
	filters, err := CompileFilters[T](c, ins)
	if err != nil {
		return nil, err
	}
	for _, f := range filters {
		src = src.Where(f)
	}
	return src, nil
}

// ApplySorting orders src by the sort path of ins. It is a no-op without a
// sort path.
func ApplySorting[T any](c *Compiler, src Queryable[T], ins *query.Instruction) (Queryable[T], error) {
	o, ok, err := CompileOrdering[T](c, ins)
	if err != nil {
		return nil, err
	}
	if ok {
		src = src.OrderBy(o)
	}
	return src, nil
}

// ApplyPaging skips pageSize*(page-1) records and takes pageSize. The
// values are not clamped; sources treat a negative skip as zero and a
// non-positive take as empty.
func ApplyPaging[T any](src Queryable[T], ins *query.Instruction) Queryable[T] {
	return src.Skip(ins.Skip()).Take(ins.Take())
}

// ApplyFilteringSortingPaging applies filter, sort and page, in that order.
// Nothing is applied unless every step compiles.
func ApplyFilteringSortingPaging[T any](c *Compiler, src Queryable[T], ins *query.Instruction) (Queryable[T], error) {
	filters, err := CompileFilters[T](c, ins)
	if err != nil {
		return nil, err
	}
	o, sorted, err := CompileOrdering[T](c, ins)
	if err != nil {
		return nil, err
	}

	for _, f := range filters {
		src = src.Where(f)
	}
	if sorted {
		src = src.OrderBy(o)
	}
	return ApplyPaging(src, ins), nil
}

// CompileQuery compiles ins for record type t into a single Select with the
// filters conjoined, the ordering, and the page as offset and limit. From is
// left nil for the caller to set.
func (c *Compiler) CompileQuery(t reflect.Type, ins *query.Instruction) (queryir.Select, error) {
	c = c.orDefault()
	st := t
	for st != nil && st.Kind() == reflect.Pointer {
		st = st.Elem()
	}

	var preds []queryir.Predicate
	for _, cond := range ins.Filters.Conditions() {
		f, err := c.compileFilter(st, cond)
		if err != nil {
			return queryir.Select{}, err
		}
		preds = append(preds, f.expr)
	}

	sel := queryir.Select{Offset: ins.Skip()}
	limit := ins.Take()
	sel.Limit = &limit
	if len(preds) > 0 {
		sel.Filter = queryir.And{Predicates: preds}
	}
	if strings.TrimSpace(ins.SortPath) != "" {
		o, err := c.compileOrdering(st, ins.SortPath, ins.SortDirection)
		if err != nil {
			return queryir.Select{}, err
		}
		sel.Order = []queryir.Order{o.expr}
	}
	return sel, nil
}
