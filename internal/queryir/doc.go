// Package queryir provides the abstract query representation produced by the
// filter/sort/page compiler.
//
// The IR is the boundary between the compiler and translating backends:
//
//	[Instruction] → [compiler] → [Query IR] → [SQL backend]
//	                           → [in-memory evaluator]
//
// A backend that understands the IR never sees property paths resolution,
// value coercion or operator tables; it only renders fields, literals and
// the handful of predicate shapes below.
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed interfaces using the marker method pattern.
// Only types in this package can implement them, so backends can switch
// exhaustively:
//
//	switch p := pred.(type) {
//	case Compare:
//	case Text:
//	case IsNull:
//	case Not:
//	case And:
//	}
//
// NULL SEMANTICS:
//
// A Compare or Text predicate is false when the field is null. Not is plain
// boolean negation and therefore true for a null field; backends with
// three-valued logic must render it accordingly (SQL: NOT COALESCE(p, 0)).
// Null equality is expressed only with IsNull, never as Compare against a
// null literal.
//
// PAGING AFTER FILTERING:
//
// Select applies Filter, then Order, then Offset/Limit. A filter that must
// run after paging wraps the paged Select as the From of an outer Select.
package queryir
