// Package resolver maps external property names and dot-separated paths to
// typed struct fields.
//
// The external name of a field is its serialization alias (the first present
// tag in Introspector.TagKeys, "json" by default) or, without one, its Go
// name. Lookups ignore case: "lovedOne", "LOVEDONE" and "lovedone" resolve to
// the same field.
//
// CACHE:
//
// Field tables are built once per record type and cached for the life of the
// Resolver. Population of one type runs exactly once even under concurrent
// first use; readers of an already populated type never block, and distinct
// types populate in parallel. Entries are never evicted or mutated.
//
// ACCESS:
//
// Descriptors carry precomputed xunsafe field accessors, so reading a field
// value from a record pointer does not go through reflect.Value.
package resolver
