package queryplan

import (
	"fmt"
)

// ValidationResult lists structural problems found in a plan.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems describes each violation found. Empty when Valid is true.
	Problems []string
}

// Validate checks the structural rules every backend relies on:
//  1. The base entity is named
//  2. Join and Exists aliases are unique and never shadow the entity
//  3. Every column references an alias in scope (entity, joins, enclosing Exists)
//  4. Operators are known, In sets and Like patterns are non-empty
//  5. No nil predicates
//
// Validate is a pure function. The translator's output always passes;
// it exists for backends that accept plans from elsewhere.
func Validate(plan *Plan) ValidationResult {
	v := &validator{
		problems: []string{},
		aliases:  map[string]bool{},
	}
	v.validatePlan(plan)
	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

type validator struct {
	problems []string
	aliases  map[string]bool
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) declare(alias string) {
	if v.aliases[alias] {
		v.addProblem("alias %q declared more than once", alias)
		return
	}
	v.aliases[alias] = true
}

func (v *validator) validatePlan(plan *Plan) {
	if plan == nil {
		v.addProblem("nil plan")
		return
	}
	if plan.Entity == "" {
		v.addProblem("plan has no entity")
		return
	}
	v.declare(plan.Entity)

	// Join conditions may reference any join, so declare them all first.
	for _, j := range plan.Joins {
		if j.Table == "" || j.Alias == "" {
			v.addProblem("join needs a table and an alias: %+v", j)
			continue
		}
		v.declare(j.Alias)
	}
	for _, j := range plan.Joins {
		if j.Condition == nil {
			v.addProblem("join %q has no condition", j.Alias)
			continue
		}
		v.validatePredicate(j.Condition)
	}
	for _, p := range plan.Where {
		v.validatePredicate(p)
	}
	for _, o := range plan.Orders {
		if o.Field == "" {
			v.addProblem("order on %s has no field name", o.Column)
		}
		v.validateColumn(o.Column)
	}
}

func (v *validator) validateColumn(c Column) {
	if c.Name == "" {
		v.addProblem("column without a name on %q", c.Table)
	}
	if !v.aliases[c.Table] {
		v.addProblem("column %s references unknown alias %q", c, c.Table)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		v.addProblem("nil predicate")
	case Const:
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case Or:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case Not:
		v.validatePredicate(pred.Predicate)
	case Compare:
		v.validateColumn(pred.Column)
		if !pred.Op.Valid() {
			v.addProblem("unknown operator %q on %s", pred.Op, pred.Column)
		}
		if pred.Value == nil {
			v.addProblem("comparison on %s has no value", pred.Column)
		}
	case ColumnEquals:
		v.validateColumn(pred.Left)
		v.validateColumn(pred.Right)
	case In:
		v.validateColumn(pred.Column)
		if len(pred.Values) == 0 {
			v.addProblem("empty set on %s: use Const{false}", pred.Column)
		}
	case Like:
		v.validateColumn(pred.Column)
		if pred.Pattern == "" {
			v.addProblem("empty pattern on %s", pred.Column)
		}
	case Exists:
		v.validateColumn(pred.Outer)
		if pred.Table == "" || pred.Alias == "" || pred.Local == "" {
			v.addProblem("exists needs a table, alias and local column: %+v", pred)
			return
		}
		v.declare(pred.Alias)
		if pred.Where != nil {
			v.validatePredicate(pred.Where)
		}
		// The alias is only visible inside the subquery.
		delete(v.aliases, pred.Alias)
	default:
		v.addProblem("unknown predicate type: %T", p)
	}
}
