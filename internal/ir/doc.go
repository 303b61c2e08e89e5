// Package ir provides the scalar value model shared by the query pipeline.
//
// This package contains value types and conversions only. All other internal
// packages may import ir; ir imports nothing internal. This keeps IR the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Filter values arrive untyped (usually strings) and are coerced to the
//     Kind of the field they are compared against, never the other way round
//   - Coercion never panics; a failed conversion is an error value
//   - Null is an explicit Value, distinct from the zero value of any kind
//   - Canonical JSON (RFC 8785 ordering, NFC strings) is the only encoding used
//     for fingerprints
package ir
