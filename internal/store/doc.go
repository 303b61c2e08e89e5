// Package store keeps records in SQLite and queries them with compiled
// filter, sort and page instructions.
//
// A Table[T] is a compiler.Queryable: the compiler's abstract predicates and
// orderings are collected into a queryir.Select and rendered by querysql
// when All or Count runs. Results match the in-memory sequence for the same
// instruction, including null handling and stable ordering.
//
// # Layout
//
// One column per scalar leaf path, named by resolver.Path.Column
// ("lovedOne.nickname" → pet_nickname with a db:"pet" tag on lovedOne).
// The fsp_tables catalog records each table's columns and a fingerprint of
// them, so a table is never reused for a record type with another layout.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - fsp_fold(text): Unicode case folding, registered on every connection
package store
