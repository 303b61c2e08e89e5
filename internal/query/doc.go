// Package query defines the query instruction: page number, page size, one
// sort path and direction, and an ordered set of filter conditions.
//
// An Instruction is built once per request by the parser (or decoded from
// JSON/YAML), optionally checked by the validator, then handed to the
// compiler. It is not safe for concurrent mutation; treat it as read-only
// after parsing.
//
// Operators and directions serialize by name:
//
//	{"page":2,"pageSize":10,"sort":"name","order":"desc",
//	 "filters":[{"path":"name","operator":"Contains","value":"bo","ignoreCase":true}]}
package query
