// Package store keeps the metadata catalog and the entities it classifies
// in SQLite.
//
// Authors and topics share the meta table and its id space; tags,
// annotations, illusts and albums have tables of their own, with one
// relation table per entity and meta kind. The store is a catalog.Source
// for name resolution and executes compiled plans through querysql.
//
// # Times
//
// Times are stored as "2006-01-02 15:04:05" in UTC so that they compare
// correctly as text. A missing partition time falls back to the creation
// day, and missing update and order times fall back to the creation time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Seed runs in a single transaction with foreign key checks deferred to
// commit, so a catalog may list rows in any order.
package store
