// Package translator resolves a semantic plan against a Queryer and builds
// the storage-agnostic query plan.
//
// Every meta-tag item becomes a correlated lookup on its relation table, so
// negating an element is a plain NOT of the same predicate. Only positive
// source tags join, and they make the plan distinct.
package translator
