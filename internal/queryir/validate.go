package queryir

import (
	"fmt"

	"github.com/roach88/fspquery/internal/ir"
)

// ValidationResult lists the structural problems found in a query.
//
// Backends reject queries with problems instead of guessing what a
// malformed node meant.
type ValidationResult struct {
	// IsValid is true when Problems is empty.
	IsValid bool

	// Problems describes each malformed node, in traversal order.
	Problems []string
}

// Validate checks a query tree for nodes no backend can translate.
//
// Rules:
//  1. Every Select has a source; every Table has a name and at least one column
//  2. Fields name a column
//  3. Compare values are non-null scalars (null equality is IsNull)
//  4. Compare on a boolean value only uses OpEqual
//  5. Not and And contain no nil predicates
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{
		problems: []string{},
	}
	v.validateQuery(query)

	return ValidationResult{
		IsValid:  len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addProblem("nil query")
	case Table:
		v.validateTable(query)
	case *Table:
		v.validateTable(*query)
	case Select:
		v.validateSelect(query)
	case *Select:
		v.validateSelect(*query)
	default:
		v.addProblem("unknown query type: %T", q)
	}
}

func (v *validator) validateTable(t Table) {
	if t.Name == "" {
		v.addProblem("table without a name")
	}
	if len(t.Columns) == 0 {
		v.addProblem("table %q has no columns", t.Name)
	}
	for _, f := range t.Columns {
		v.validateField(f)
	}
}

func (v *validator) validateSelect(sel Select) {
	if sel.From == nil {
		v.addProblem("select without a source")
	} else {
		v.validateQuery(sel.From)
	}
	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
	for _, o := range sel.Order {
		v.validateField(o.Field)
	}
}

func (v *validator) validateField(f Field) {
	if f.Column == "" {
		v.addProblem("field %q has no column", f.Path)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		v.addProblem("nil predicate")
	case Compare:
		v.validateCompare(pred)
	case *Compare:
		v.validateCompare(*pred)
	case Text:
		v.validateField(pred.Field)
	case *Text:
		v.validateField(pred.Field)
	case IsNull:
		v.validateField(pred.Field)
	case *IsNull:
		v.validateField(pred.Field)
	case Not:
		v.validatePredicate(pred.Predicate)
	case *Not:
		v.validatePredicate(pred.Predicate)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case *And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	default:
		v.addProblem("unknown predicate type: %T", p)
	}
}

func (v *validator) validateCompare(c Compare) {
	v.validateField(c.Field)
	if ir.IsNull(c.Value) {
		v.addProblem("compare on %q against null (use IsNull)", c.Field.Path)
		return
	}
	if c.Value.Kind() == ir.KindBool && c.Op != OpEqual {
		v.addProblem("boolean field %q compared with %s", c.Field.Path, c.Op)
	}
}
