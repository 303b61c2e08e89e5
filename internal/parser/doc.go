// Package parser turns flat query parameters into a query.Instruction.
//
// Reserved keys, matched exactly and ignoring case:
//
//	page      page number (integer)
//	pagesize  page size (integer)
//	order     "asc" or "desc"; empty means asc
//	sort      property path to sort by
//
// Every other key is a filter. A key may start with an operator prefix
// (in^name=bo means name contains "bo"); without one the filter is Equals.
// Negated prefixes start with "!" (!gt^tier=2).
//
// Parsing stops at the first problem and reports it as a *ParseError.
package parser
