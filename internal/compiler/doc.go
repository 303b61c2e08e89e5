// Package compiler turns a query.Instruction into filter predicates, one
// ordering and a skip/take pair, and applies them to a Queryable source.
//
// Every compiled step carries two forms:
//
//	Expr   queryir node, for backends that translate queries (SQL)
//	Match  / Compare, for sources that evaluate in process
//
// Both forms implement the same semantics, including nulls: a null field
// (or a null record on the way to it) only matches Equals(nil); every other
// positive comparison is false for it, and the Not operators are the exact
// negation of their positive forms.
//
// Steps are applied in the fixed order filter → sort → page. Compilation is
// all-or-nothing: when any condition fails to compile nothing is applied and
// only the error is returned.
package compiler
