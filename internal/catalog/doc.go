// Package catalog resolves query names against a set of authors, topics,
// tags and annotations.
//
// A Catalog is the YAML fixture form of that set. Resolver implements the
// translator's Queryer over any Source, which is either a Catalog held in
// memory or the SQLite store. CachedQueryer memoizes lookups until the
// writer flushes the kind it changed.
package catalog
