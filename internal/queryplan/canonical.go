package queryplan

import (
	"fmt"
	"strings"

	"github.com/roach88/hql/internal/ir"
)

// ToIR converts a plan to its canonical object form. JSON output, golden
// files and fingerprints are all derived from this one shape.
func ToIR(plan *Plan) ir.IRObject {
	joins := ir.IRArray{}
	for _, j := range plan.Joins {
		joins = append(joins, ir.IRObject{
			"table":     ir.IRString(j.Table),
			"alias":     ir.IRString(j.Alias),
			"condition": PredicateToIR(j.Condition),
			"left_join": ir.IRBool(j.LeftJoin),
		})
	}
	where := ir.IRArray{}
	for _, p := range plan.Where {
		where = append(where, PredicateToIR(p))
	}
	orders := ir.IRArray{}
	for _, o := range plan.Orders {
		orders = append(orders, ir.IRObject{
			"field":  ir.IRString(o.Field),
			"column": ir.IRString(o.Column.String()),
			"desc":   ir.IRBool(o.Desc),
		})
	}
	return ir.IRObject{
		"entity":   ir.IRString(plan.Entity),
		"joins":    joins,
		"where":    where,
		"orders":   orders,
		"distinct": ir.IRBool(plan.Distinct),
	}
}

// PredicateToIR converts one predicate to canonical object form.
func PredicateToIR(p Predicate) ir.IRObject {
	list := func(ps []Predicate) ir.IRArray {
		out := make(ir.IRArray, len(ps))
		for i, sub := range ps {
			out[i] = PredicateToIR(sub)
		}
		return out
	}
	switch pred := p.(type) {
	case Const:
		return ir.IRObject{"type": ir.IRString("const"), "value": ir.IRBool(pred.Value)}
	case And:
		return ir.IRObject{"type": ir.IRString("and"), "predicates": list(pred.Predicates)}
	case Or:
		return ir.IRObject{"type": ir.IRString("or"), "predicates": list(pred.Predicates)}
	case Not:
		return ir.IRObject{"type": ir.IRString("not"), "predicate": PredicateToIR(pred.Predicate)}
	case Compare:
		return ir.IRObject{
			"type":   ir.IRString("compare"),
			"column": ir.IRString(pred.Column.String()),
			"op":     ir.IRString(string(pred.Op)),
			"value":  pred.Value,
		}
	case ColumnEquals:
		return ir.IRObject{
			"type":  ir.IRString("column_equals"),
			"left":  ir.IRString(pred.Left.String()),
			"right": ir.IRString(pred.Right.String()),
		}
	case In:
		return ir.IRObject{
			"type":   ir.IRString("in"),
			"column": ir.IRString(pred.Column.String()),
			"values": ir.IRArray(pred.Values),
		}
	case Like:
		return ir.IRObject{
			"type":    ir.IRString("like"),
			"column":  ir.IRString(pred.Column.String()),
			"pattern": ir.IRString(pred.Pattern),
		}
	case Exists:
		obj := ir.IRObject{
			"type":  ir.IRString("exists"),
			"table": ir.IRString(pred.Table),
			"alias": ir.IRString(pred.Alias),
			"local": ir.IRString(pred.Local),
			"outer": ir.IRString(pred.Outer.String()),
		}
		if pred.Where != nil {
			obj["where"] = PredicateToIR(pred.Where)
		}
		return obj
	default:
		return ir.IRObject{"type": ir.IRString(fmt.Sprintf("unknown(%T)", p))}
	}
}

// MarshalCanonical renders the plan as canonical JSON.
func MarshalCanonical(plan *Plan) ([]byte, error) {
	return ir.MarshalCanonical(ToIR(plan))
}

// Fingerprint returns a stable hash of the plan's structure.
func Fingerprint(plan *Plan) (string, error) {
	return ir.Fingerprint(ToIR(plan))
}

// Describe renders a predicate as compact pseudo-SQL for text output.
func Describe(p Predicate) string {
	join := func(ps []Predicate, sep string) string {
		parts := make([]string, len(ps))
		for i, sub := range ps {
			parts[i] = Describe(sub)
		}
		return "(" + strings.Join(parts, sep) + ")"
	}
	switch pred := p.(type) {
	case Const:
		if pred.Value {
			return "TRUE"
		}
		return "FALSE"
	case And:
		return join(pred.Predicates, " AND ")
	case Or:
		return join(pred.Predicates, " OR ")
	case Not:
		return "NOT " + Describe(pred.Predicate)
	case Compare:
		return fmt.Sprintf("%s %s %s", pred.Column, pred.Op, ir.FormatValue(pred.Value))
	case ColumnEquals:
		return fmt.Sprintf("%s = %s", pred.Left, pred.Right)
	case In:
		return fmt.Sprintf("%s IN %s", pred.Column, ir.FormatValue(ir.IRArray(pred.Values)))
	case Like:
		return fmt.Sprintf("%s LIKE %q", pred.Column, pred.Pattern)
	case Exists:
		inner := fmt.Sprintf("%s.%s = %s", pred.Alias, pred.Local, pred.Outer)
		if pred.Where != nil {
			inner += " AND " + Describe(pred.Where)
		}
		return fmt.Sprintf("EXISTS(%s %s: %s)", pred.Table, pred.Alias, inner)
	default:
		return fmt.Sprintf("<%T>", p)
	}
}
