package queryplan

import (
	"github.com/roach88/hql/internal/ir"
)

// Plan is the compiled form of one query.
type Plan struct {
	Entity   string      // base table, also its alias
	Joins    []Join      // in the order they were first needed
	Where    []Predicate // combined with AND
	Orders   []Order     // highest priority first
	Distinct bool        // deduplicate base rows
}

// Column is a column qualified by a table alias.
type Column struct {
	Table string
	Name  string
}

// Col is shorthand for Column{Table: table, Name: name}.
func Col(table, name string) Column {
	return Column{Table: table, Name: name}
}

func (c Column) String() string {
	return c.Table + "." + c.Name
}

// Join attaches an auxiliary table to the base entity.
//
// Single-valued joins (one row per base row) never duplicate results;
// multi-valued joins require Plan.Distinct.
type Join struct {
	Table     string
	Alias     string
	Condition Predicate
	LeftJoin  bool // keep base rows without a matching row
}

// Order is one sort key.
type Order struct {
	Field  string // dialect order item name, e.g. orderTime
	Column Column
	Desc   bool
}

// Op is a comparison operator.
type Op string

const (
	OpEq  Op = "="
	OpNeq Op = "!="
	OpLt  Op = "<"
	OpLte Op = "<="
	OpGt  Op = ">"
	OpGte Op = ">="
)

// Valid reports whether o is one of the declared operators.
func (o Op) Valid() bool {
	switch o {
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte:
		return true
	}
	return false
}

// Predicate is a sealed interface over filter conditions.
//
// Predicate types:
//   - Const: always true or always false
//   - And, Or, Not: logical connectives (empty And is true, empty Or is false)
//   - Compare: column <op> literal
//   - ColumnEquals: column = column (join conditions)
//   - In: column in a literal set
//   - Like: column matches a LIKE pattern (% and _ wildcards, \ escape)
//   - Exists: a correlated row exists in a relation table
type Predicate interface {
	predicateNode()
}

// Const is a predicate with a fixed truth value. A blank or unresolvable
// term contributes Const{Value: false}.
type Const struct {
	Value bool
}

// And holds when every predicate holds.
type And struct {
	Predicates []Predicate
}

// Or holds when at least one predicate holds.
type Or struct {
	Predicates []Predicate
}

// Not inverts a predicate.
type Not struct {
	Predicate Predicate
}

// Compare tests a column against a literal.
type Compare struct {
	Column Column
	Op     Op
	Value  ir.IRValue
}

// ColumnEquals tests two columns for equality.
type ColumnEquals struct {
	Left  Column
	Right Column
}

// In tests a column for membership in a literal set.
type In struct {
	Column Column
	Values []ir.IRValue
}

// Like matches a column against a pattern.
type Like struct {
	Column  Column
	Pattern string
}

// Exists holds when Table contains at least one row, aliased Alias, whose
// Local column equals the Outer column of the enclosing row and which
// satisfies Where. Exists nodes nest to follow relation chains.
//
// Semantics:
//
//	EXISTS (SELECT 1 FROM <table> AS <alias>
//	        WHERE <alias>.<local> = <outer> AND <where>)
type Exists struct {
	Table string
	Alias string
	Local string
	Outer Column
	Where Predicate
}

func (Const) predicateNode()        {}
func (And) predicateNode()          {}
func (Or) predicateNode()           {}
func (Not) predicateNode()          {}
func (Compare) predicateNode()      {}
func (ColumnEquals) predicateNode() {}
func (In) predicateNode()           {}
func (Like) predicateNode()         {}
func (Exists) predicateNode()       {}

// AllOf combines predicates with AND, flattening nested Ands and folding
// constants: a false member makes the whole conjunction false, true
// members are dropped, and a single survivor is returned unwrapped.
func AllOf(ps ...Predicate) Predicate {
	out := make([]Predicate, 0, len(ps))
	for _, p := range ps {
		switch pred := p.(type) {
		case Const:
			if !pred.Value {
				return Const{Value: false}
			}
		case And:
			flat := AllOf(pred.Predicates...)
			if c, ok := flat.(Const); ok {
				if !c.Value {
					return c
				}
				continue
			}
			if inner, ok := flat.(And); ok {
				out = append(out, inner.Predicates...)
			} else {
				out = append(out, flat)
			}
		default:
			out = append(out, p)
		}
	}
	switch len(out) {
	case 0:
		return Const{Value: true}
	case 1:
		return out[0]
	default:
		return And{Predicates: out}
	}
}

// AnyOf combines predicates with OR, the dual of AllOf.
func AnyOf(ps ...Predicate) Predicate {
	out := make([]Predicate, 0, len(ps))
	for _, p := range ps {
		switch pred := p.(type) {
		case Const:
			if pred.Value {
				return Const{Value: true}
			}
		case Or:
			flat := AnyOf(pred.Predicates...)
			if c, ok := flat.(Const); ok {
				if c.Value {
					return c
				}
				continue
			}
			if inner, ok := flat.(Or); ok {
				out = append(out, inner.Predicates...)
			} else {
				out = append(out, flat)
			}
		default:
			out = append(out, p)
		}
	}
	switch len(out) {
	case 0:
		return Const{Value: false}
	case 1:
		return out[0]
	default:
		return Or{Predicates: out}
	}
}
