// Package harness runs compile scenarios: YAML files listing queries and
// the outcome each must reach against a seeded catalog.
//
// A scenario looks like:
//
//	name: illust-basics
//	description: author, tag and field elements on illusts
//	catalog: ../../catalog/testdata/catalog.yaml
//	dialect: illust
//	cases:
//	  - query: "@ali"
//	    expect:
//	      results: [1, 3]
//	  - query: "& score:"
//	    expect:
//	      stage: failed
//	      failed_at: parsing
//	      warnings: [W101]
//	      errors: [E204]
//
// Every case is compiled, and the ones that compile are executed against a
// fresh SQLite store seeded from the catalog. Run checks each outcome
// against its expectation; RunWithGolden also snapshots the whole run.
package harness
