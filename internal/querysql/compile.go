package querysql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/hql/internal/ir"
	"github.com/roach88/hql/internal/queryplan"
)

// SQLCompiler renders query plans to parameterized SQL for SQLite.
//
// All literal values are bound as ? parameters, never interpolated. Every
// statement ends with ORDER BY <entity>.id as the last key so results are
// deterministic even when the plan's own orders tie.
type SQLCompiler struct {
	// Limit caps the number of rows returned. Zero means no limit.
	Limit int
	// Offset skips rows before the first returned one.
	Offset int
}

// NewSQLCompiler creates a new SQLCompiler with no limit.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Compile converts a plan to a SELECT returning the ids of matching entity
// rows. The first result column is always <entity>.id; order columns follow
// it when the plan is distinct.
func (c *SQLCompiler) Compile(plan *queryplan.Plan) (string, []any, error) {
	if plan == nil {
		return "", nil, fmt.Errorf("cannot compile nil plan")
	}
	if res := queryplan.Validate(plan); !res.Valid {
		return "", nil, fmt.Errorf("invalid plan: %s", strings.Join(res.Problems, "; "))
	}

	w := &writer{}
	entity, err := ident(plan.Entity)
	if err != nil {
		return "", nil, err
	}

	columns := []string{entity + ".id"}
	if plan.Distinct {
		// DISTINCT needs every ORDER BY term in the result set.
		for _, o := range plan.Orders {
			col, err := column(o.Column)
			if err != nil {
				return "", nil, err
			}
			columns = append(columns, col)
		}
	}

	w.WriteString("SELECT ")
	if plan.Distinct {
		w.WriteString("DISTINCT ")
	}
	w.WriteString(strings.Join(columns, ", "))
	fmt.Fprintf(w, " FROM %s AS %s", entity, entity)

	for _, j := range plan.Joins {
		if err := c.compileJoin(w, j); err != nil {
			return "", nil, err
		}
	}

	if len(plan.Where) > 0 {
		w.WriteString(" WHERE ")
		if err := c.compilePredicate(w, queryplan.AllOf(plan.Where...)); err != nil {
			return "", nil, fmt.Errorf("compile where: %w", err)
		}
	}

	w.WriteString(" ORDER BY ")
	if err := c.stableOrderKey(w, plan); err != nil {
		return "", nil, err
	}

	if c.Limit > 0 {
		w.WriteString(" LIMIT ?")
		w.params = append(w.params, int64(c.Limit))
		if c.Offset > 0 {
			w.WriteString(" OFFSET ?")
			w.params = append(w.params, int64(c.Offset))
		}
	}
	return w.String(), w.params, nil
}

// writer accumulates SQL text and its parameters in order.
type writer struct {
	strings.Builder
	params []any
}

func ident(name string) (string, error) {
	if !identifier.MatchString(name) {
		return "", fmt.Errorf("invalid identifier %q", name)
	}
	return name, nil
}

func column(c queryplan.Column) (string, error) {
	t, err := ident(c.Table)
	if err != nil {
		return "", err
	}
	n, err := ident(c.Name)
	if err != nil {
		return "", err
	}
	return t + "." + n, nil
}

func (c *SQLCompiler) compileJoin(w *writer, j queryplan.Join) error {
	table, err := ident(j.Table)
	if err != nil {
		return err
	}
	alias, err := ident(j.Alias)
	if err != nil {
		return err
	}
	kind := "INNER JOIN"
	if j.LeftJoin {
		kind = "LEFT JOIN"
	}
	fmt.Fprintf(w, " %s %s AS %s ON ", kind, table, alias)
	if err := c.compilePredicate(w, j.Condition); err != nil {
		return fmt.Errorf("compile join %s: %w", alias, err)
	}
	return nil
}

// stableOrderKey writes the plan's orders, then the entity id unless an
// order already sorts by it. COLLATE BINARY keeps text ordering identical
// across SQLite builds.
func (c *SQLCompiler) stableOrderKey(w *writer, plan *queryplan.Plan) error {
	id := plan.Entity + ".id"
	keys := make([]string, 0, len(plan.Orders)+1)
	sawID := false
	for _, o := range plan.Orders {
		col, err := column(o.Column)
		if err != nil {
			return err
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		sawID = sawID || col == id
		keys = append(keys, fmt.Sprintf("%s COLLATE BINARY %s", col, dir))
	}
	if !sawID {
		keys = append(keys, id+" ASC")
	}
	w.WriteString(strings.Join(keys, ", "))
	return nil
}

func (c *SQLCompiler) compilePredicate(w *writer, p queryplan.Predicate) error {
	switch pred := p.(type) {
	case nil:
		return fmt.Errorf("nil predicate")
	case queryplan.Const:
		if pred.Value {
			w.WriteString("1 = 1")
		} else {
			w.WriteString("1 = 0")
		}
	case queryplan.And:
		return c.compileList(w, pred.Predicates, " AND ", "1 = 1")
	case queryplan.Or:
		return c.compileList(w, pred.Predicates, " OR ", "1 = 0")
	case queryplan.Not:
		w.WriteString("NOT (")
		if err := c.compilePredicate(w, pred.Predicate); err != nil {
			return err
		}
		w.WriteString(")")
	case queryplan.Compare:
		col, err := column(pred.Column)
		if err != nil {
			return err
		}
		if !pred.Op.Valid() {
			return fmt.Errorf("unknown operator %q", pred.Op)
		}
		param, err := irValueToParam(pred.Value)
		if err != nil {
			return fmt.Errorf("convert %s: %w", col, err)
		}
		fmt.Fprintf(w, "%s %s ?", col, pred.Op)
		w.params = append(w.params, param)
	case queryplan.ColumnEquals:
		l, err := column(pred.Left)
		if err != nil {
			return err
		}
		r, err := column(pred.Right)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s = %s", l, r)
	case queryplan.In:
		col, err := column(pred.Column)
		if err != nil {
			return err
		}
		if len(pred.Values) == 0 {
			w.WriteString("1 = 0")
			return nil
		}
		marks := make([]string, len(pred.Values))
		for i, v := range pred.Values {
			param, err := irValueToParam(v)
			if err != nil {
				return fmt.Errorf("convert %s: %w", col, err)
			}
			marks[i] = "?"
			w.params = append(w.params, param)
		}
		fmt.Fprintf(w, "%s IN (%s)", col, strings.Join(marks, ", "))
	case queryplan.Like:
		col, err := column(pred.Column)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, `%s LIKE ? ESCAPE '\'`, col)
		w.params = append(w.params, pred.Pattern)
	case queryplan.Exists:
		table, err := ident(pred.Table)
		if err != nil {
			return err
		}
		alias, err := ident(pred.Alias)
		if err != nil {
			return err
		}
		local, err := ident(pred.Local)
		if err != nil {
			return err
		}
		outer, err := column(pred.Outer)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "EXISTS (SELECT 1 FROM %s AS %s WHERE %s.%s = %s", table, alias, alias, local, outer)
		if k, ok := pred.Where.(queryplan.Const); pred.Where != nil && (!ok || !k.Value) {
			w.WriteString(" AND ")
			if err := c.compilePredicate(w, pred.Where); err != nil {
				return err
			}
		}
		w.WriteString(")")
	default:
		return fmt.Errorf("unsupported predicate type: %T", p)
	}
	return nil
}

func (c *SQLCompiler) compileList(w *writer, ps []queryplan.Predicate, sep, empty string) error {
	if len(ps) == 0 {
		w.WriteString(empty)
		return nil
	}
	w.WriteString("(")
	for i, p := range ps {
		if i > 0 {
			w.WriteString(sep)
		}
		if err := c.compilePredicate(w, p); err != nil {
			return err
		}
	}
	w.WriteString(")")
	return nil
}

// irValueToParam converts a plan literal to a driver parameter. Booleans
// bind as 0 or 1, the way SQLite stores them.
func irValueToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRBool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	case ir.IRArray:
		return nil, fmt.Errorf("IRArray cannot be used as SQL parameter directly")
	case ir.IRObject:
		return nil, fmt.Errorf("IRObject cannot be used as SQL parameter directly")
	default:
		return nil, fmt.Errorf("unsupported IRValue type for SQL parameter: %T", v)
	}
}
