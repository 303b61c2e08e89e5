// Package harness runs conformance scenarios for fspquery.
//
// A scenario loads a record schema, inserts records and runs query strings
// through the parser, the optional validator and the compiler. Every query
// is applied to the SQLite table and to the in-memory sequence; the two
// backends must return the same rows, and the rows must meet the query's
// expect clause.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario checks"
//	schema: ../schemas/customer.yaml
//	validate: false
//	max_page_size: 50
//	records:
//	  - {name: john, tier: 1, lovedOne: {nickname: scratch, ageInYears: 2}}
//	queries:
//	  - query: "pre^name=jo&sort=tier"
//	    expect:
//	      names: [john]
//	      total: 1
//	  - query: "tier=abc"
//	    expect:
//	      error: E202
//
// # Expectations
//
//   - names: values of name_field (default "name") in row order
//   - rows: per-row subset match keyed by dotted property path
//   - count: number of rows returned
//   - total: number of matching records before paging
//   - error: "parse", a validator code (E1xx) or a compiler code (E2xx)
//
// Results can be compared against golden files with RunWithGolden.
package harness
