// Package semantic types a parsed query against a dialect.
//
// A Dialect is a plain value describing an entity's fields, sort keys and
// the element kinds it accepts. Analysis is a single pass over the clauses
// that reports every problem it finds.
package semantic
