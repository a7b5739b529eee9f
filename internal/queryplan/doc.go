// Package queryplan defines the VisualQueryPlan: the storage-agnostic output
// of the HQL compiler.
//
// A Plan names a base entity and carries:
//   - Joins: auxiliary tables the conditions read from
//   - Where: predicates combined with AND (an empty list matches everything)
//   - Orders: sort keys in priority order
//   - Distinct: set when a join may duplicate base rows
//
// Predicate is a sealed interface using the marker method pattern, so
// backends can switch over it exhaustively:
//
//	[HQL text] → lexer → grammar → semantic → translator → [Plan] → querysql (SQLite)
//	                                                              → any other backend
//
// Columns are qualified by table alias. The base entity's alias is the
// entity name itself; join and Exists aliases are assigned by the
// translator and are unique within a plan.
//
// Every predicate type is a plain value type. Backends only ever see the
// value form; never construct pointers to predicates.
package queryplan
