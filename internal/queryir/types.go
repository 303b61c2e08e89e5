package queryir

import "github.com/roach88/fspquery/internal/ir"

// Query represents an abstract query in the QueryIR.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Predicate represents a filter condition in the QueryIR.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Field identifies a record field by its external property path and the
// storage column backends should read.
type Field struct {
	Path   string // dotted external names, e.g. "lovedOne.nickname"
	Column string // e.g. "pet_nickname"
}

// Table is a named source with an explicit column list.
//
// Translates to SQL:
//
//	SELECT name, tier, pet_nickname FROM customers
type Table struct {
	Name    string
	Columns []Field
}

func (Table) queryNode() {}

// Select filters, orders and pages its source.
//
// Semantics:
//
//	SELECT * FROM <from> WHERE <filter> ORDER BY <order> LIMIT <limit> OFFSET <offset>
//
// Steps run in that order: Filter, then Order, then Offset and Limit. From
// is a Table or another Select.
type Select struct {
	From   Query
	Filter Predicate // nil = no filter
	Order  []Order   // empty = source order
	Offset int       // negative is treated as 0
	Limit  *int      // nil = unbounded; negative is treated as 0
}

func (Select) queryNode() {}

// Order sorts by one field. Nulls sort before values ascending and after
// values descending.
type Order struct {
	Field      Field
	Descending bool
}

// CompareOp is a comparison between an ordered or boolean field and a
// literal.
type CompareOp int

const (
	OpEqual CompareOp = iota
	OpLess
	OpLessOrEqual
	OpGreater
	OpGreaterOrEqual
)

func (op CompareOp) String() string {
	switch op {
	case OpLess:
		return "<"
	case OpLessOrEqual:
		return "<="
	case OpGreater:
		return ">"
	case OpGreaterOrEqual:
		return ">="
	default:
		return "="
	}
}

// Compare is "<field> <op> <value>". Value is never null; a null field makes
// the predicate false.
//
// Example:
//
//	Compare{Field: Field{Path: "tier", Column: "tier"}, Op: OpGreater, Value: ir.Int(1)}
//
// Translates to SQL:
//
//	tier > ?
type Compare struct {
	Field Field
	Op    CompareOp
	Value ir.Value
}

func (Compare) predicateNode() {}

// TextOp is a string match.
type TextOp int

const (
	TextEqual TextOp = iota
	TextContains
	TextPrefix
	TextSuffix
)

func (op TextOp) String() string {
	switch op {
	case TextContains:
		return "contains"
	case TextPrefix:
		return "starts with"
	case TextSuffix:
		return "ends with"
	default:
		return "equals"
	}
}

// Text matches a text field against Value. IgnoreCase compares with Unicode
// case folding. A null field makes the predicate false.
type Text struct {
	Field      Field
	Op         TextOp
	Value      string
	IgnoreCase bool
}

func (Text) predicateNode() {}

// IsNull is true when the field, or any record on its path, is null.
type IsNull struct {
	Field Field
}

func (IsNull) predicateNode() {}

// Not negates a predicate with two-valued logic: Not{p} is true whenever p
// is false, including for null fields.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

// And represents a conjunction of predicates (all must be true).
// Empty Predicates slice means "always true".
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}
