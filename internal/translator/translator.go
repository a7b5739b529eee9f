package translator

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/hql/internal/ir"
	"github.com/roach88/hql/internal/queryplan"
	"github.com/roach88/hql/internal/semantic"
)

// Translate turns a semantic plan into a query plan, resolving every name
// through q.
//
// Resolution problems are diagnostics in the returned analysis. The error
// is non-nil only when q itself failed; the analysis is then empty.
func Translate(ctx context.Context, res *semantic.Result, q Queryer, opts Options) (ir.Analysis[*queryplan.Plan], error) {
	d := res.Dialect
	t := &translator{
		ctx:     ctx,
		q:       q,
		opts:    opts,
		dialect: d,
		c:       ir.NewCollector(ir.StageTranslator),
		plan:    &queryplan.Plan{Entity: d.Entity, Joins: []queryplan.Join{}, Where: []queryplan.Predicate{}, Orders: []queryplan.Order{}},
		joined:  map[string]bool{},
	}
	if err := t.run(res.Elements); err != nil {
		return ir.Analysis[*queryplan.Plan]{}, err
	}
	return ir.Finish(t.c, t.plan), nil
}

type translator struct {
	ctx     context.Context
	q       Queryer
	opts    Options
	dialect *semantic.Dialect
	c       *ir.Collector
	plan    *queryplan.Plan

	joined      map[string]bool
	relations   int
	sourceTags  int
	intersect   int
	warnedWidth bool
	orders      []semantic.OrderSpec
	ordered     bool
}

func (t *translator) run(elements []semantic.Element) error {
	for _, e := range elements {
		if o, ok := e.(semantic.OrderElement); ok {
			t.order(o)
			continue
		}
		p, err := t.element(e)
		if err != nil {
			return err
		}
		if p == nil {
			continue
		}
		if e.Negated() {
			p = negate(p)
		}
		if c, ok := p.(queryplan.Const); ok && c.Value {
			continue
		}
		t.plan.Where = append(t.plan.Where, p)
	}
	t.finishOrders()
	return nil
}

func negate(p queryplan.Predicate) queryplan.Predicate {
	if c, ok := p.(queryplan.Const); ok {
		return queryplan.Const{Value: !c.Value}
	}
	return queryplan.Not{Predicate: p}
}

// countIntersect records n more AND-combined conditions and warns once
// when the total passes the limit.
func (t *translator) countIntersect(n int, at ir.Span) {
	t.intersect += n
	if !t.warnedWidth && t.opts.WarningLimitOfIntersectItems > 0 && t.intersect > t.opts.WarningLimitOfIntersectItems {
		t.warnedWidth = true
		t.c.Warnf(ir.WarnTooManyIntersect, at, "query combines %d conditions, more than %d, and may be slow",
			t.intersect, t.opts.WarningLimitOfIntersectItems)
	}
}

func (t *translator) checkUnion(ids int, at ir.Span) {
	if t.opts.WarningLimitOfUnionItems > 0 && ids > t.opts.WarningLimitOfUnionItems {
		t.c.Warnf(ir.WarnTooManyUnionItems, at, "element matches %d entities, more than %d, and may be slow",
			ids, t.opts.WarningLimitOfUnionItems)
	}
}

func (t *translator) element(e semantic.Element) (queryplan.Predicate, error) {
	switch el := e.(type) {
	case semantic.AuthorElement:
		values := make([]ir.MetaValue, len(el.Items))
		for i, v := range el.Items {
			values[i] = v
		}
		return t.metaTag(values, el.ItemSpans, el.Conjunctive, ir.MetaTypeAuthor, el.Span)
	case semantic.TopicElement:
		values := make([]ir.MetaValue, len(el.Items))
		for i, v := range el.Items {
			values[i] = v
		}
		return t.metaTag(values, el.ItemSpans, el.Conjunctive, ir.MetaTypeTopic, el.Span)
	case semantic.TagElement:
		return t.metaTag(el.Items, el.ItemSpans, el.Conjunctive, ir.MetaTypeTag, el.Span)
	case semantic.AnnotationElement:
		return t.annotation(el)
	case semantic.SourceTagElement:
		return t.sourceTag(el), nil
	case semantic.NameElement:
		t.countIntersect(1, el.Span)
		if t.dialect.Names == nil {
			t.c.Errorf(ir.ErrUnconvertibleValue, el.Span, "dialect %s has no name column", t.dialect.ID)
			return nil, nil
		}
		col := *t.dialect.Names
		return t.matchAny(el.Items, el.ItemSpans, func(ir.MetaString) queryplan.Column { return col }), nil
	case semantic.FlagElement:
		t.countIntersect(1, el.Span)
		t.join(el.Field.Join)
		return queryplan.Compare{Column: el.Field.Column, Op: queryplan.OpEq, Value: ir.IRBool(true)}, nil
	case semantic.FieldElement:
		t.countIntersect(1, el.Span)
		t.join(el.Field.Join)
		return t.field(el), nil
	default:
		t.c.Errorf(ir.ErrUnconvertibleValue, e.Pos(), "cannot translate element %T", e)
		return nil, nil
	}
}

// lookup resolves one value of kind. Unsupported primary lookups are E401;
// unsupported secondary lookups (a bare word also tried as a tag) are
// skipped. failed reports that the lookup recorded an error of its own.
func (t *translator) lookup(kind ir.MetaType, v ir.MetaValue, at ir.Span, primary bool) (preds []queryplan.Predicate, n int, failed bool, err error) {
	sub := ir.NewCollector(ir.StageTranslator)
	defer func() {
		failed = sub.HasErrors()
		t.c.Absorb(sub, at)
	}()

	limit := t.opts.QueryLimitOfQueryItems
	var refs []ElementRef
	switch kind {
	case ir.MetaTypeAuthor:
		single, ok := v.(ir.SingleMetaValue)
		if !ok {
			return nil, 0, false, nil
		}
		refs, err = t.q.FindAuthor(t.ctx, single, limit, sub)
	case ir.MetaTypeTopic:
		switch v.(type) {
		case ir.SingleMetaValue, ir.SimpleMetaValue:
		default:
			return nil, 0, false, nil
		}
		refs, err = t.q.FindTopic(t.ctx, ir.SimpleMetaValue{Value: v.Address()}, limit, sub)
	default:
		refs, err = t.q.FindTag(t.ctx, v, limit, sub)
	}
	if errors.Is(err, ErrUnsupported) {
		if primary {
			sub.Errorf(ir.ErrUnsupportedByQueryer, at, "%s lookup is not supported by this queryer", kind)
		}
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("find %s %s: %w", kind, v, err)
	}
	if len(refs) == 0 {
		return nil, 0, false, nil
	}
	rel, ok := t.dialect.Relations[kind]
	if !ok {
		sub.Errorf(ir.ErrUnconvertibleValue, at, "dialect %s has no %s relation", t.dialect.ID, kind)
		return nil, 0, false, nil
	}
	return []queryplan.Predicate{t.exists(rel, ids(refs))}, len(refs), false, nil
}

func ids(refs []ElementRef) []ir.IRValue {
	out := make([]ir.IRValue, len(refs))
	for i, r := range refs {
		out[i] = ir.IRInt(r.ID)
	}
	return out
}

func (t *translator) nextRelation() string {
	t.relations++
	return fmt.Sprintf("r%d", t.relations)
}

// exists builds a correlated lookup: some row of rel links this entity to
// one of ids.
func (t *translator) exists(rel semantic.Relation, ids []ir.IRValue) queryplan.Exists {
	alias := t.nextRelation()
	return queryplan.Exists{
		Table: rel.Table, Alias: alias, Local: rel.EntityColumn,
		Outer: queryplan.Col(t.dialect.Entity, "id"),
		Where: queryplan.In{Column: queryplan.Col(alias, rel.MetaColumn), Values: ids},
	}
}

// compatibleKinds lists what a value of kind may resolve to. Bare words
// are tried as every kind that can carry them.
func compatibleKinds(kind ir.MetaType, conjunctive bool) []ir.MetaType {
	if !conjunctive {
		return []ir.MetaType{kind}
	}
	switch kind {
	case ir.MetaTypeAuthor:
		return []ir.MetaType{ir.MetaTypeAuthor, ir.MetaTypeTopic, ir.MetaTypeTag}
	case ir.MetaTypeTopic:
		return []ir.MetaType{ir.MetaTypeTopic, ir.MetaTypeTag}
	default:
		return []ir.MetaType{ir.MetaTypeTag}
	}
}

func (t *translator) metaTag(values []ir.MetaValue, spans []ir.Span, conjunctive bool, kind ir.MetaType, at ir.Span) (queryplan.Predicate, error) {
	if conjunctive {
		t.countIntersect(len(values), at)
	} else {
		t.countIntersect(1, at)
	}
	items := make([]queryplan.Predicate, 0, len(values))
	total := 0
	for i, v := range values {
		span := spans[i]
		if blank(v) {
			t.c.Warnf(ir.WarnBlankElement, span, "%s is blank and matches nothing", v)
			items = append(items, queryplan.Const{Value: false})
			continue
		}
		var alternatives []queryplan.Predicate
		reported := false
		for j, k := range compatibleKinds(kind, conjunctive) {
			preds, n, failed, err := t.lookup(k, v, span, j == 0)
			if err != nil {
				return nil, err
			}
			alternatives = append(alternatives, preds...)
			total += n
			reported = reported || failed
		}
		if len(alternatives) == 0 && !reported {
			t.c.Warnf(ir.WarnNoMatch, span, "%s matches no %s", v, kindNoun(kind, conjunctive))
		}
		items = append(items, queryplan.AnyOf(alternatives...))
	}
	t.checkUnion(total, at)
	if conjunctive {
		return queryplan.AllOf(items...), nil
	}
	return queryplan.AnyOf(items...), nil
}

func kindNoun(kind ir.MetaType, conjunctive bool) string {
	if conjunctive && kind != ir.MetaTypeTag {
		return "author, topic or tag"
	}
	return kind.String()
}

// blank reports whether every string a value is anchored on is blank.
func blank(v ir.MetaValue) bool {
	for _, s := range v.Address() {
		if !s.IsBlank() {
			return false
		}
	}
	return true
}

func (t *translator) annotation(el semantic.AnnotationElement) (queryplan.Predicate, error) {
	t.countIntersect(1, el.Span)
	items := make([]queryplan.Predicate, 0, len(el.Items))
	total := 0
	for i, name := range el.Items {
		span := el.ItemSpans[i]
		if name.IsBlank() {
			t.c.Warnf(ir.WarnBlankElement, span, "annotation %s is blank and matches nothing", name)
			items = append(items, queryplan.Const{Value: false})
			continue
		}
		sub := ir.NewCollector(ir.StageTranslator)
		refs, err := t.q.FindAnnotation(t.ctx, name, el.MetaTypes, t.opts.QueryLimitOfQueryItems, sub)
		if errors.Is(err, ErrUnsupported) {
			sub.Errorf(ir.ErrUnsupportedByQueryer, span, "annotation lookup is not supported by this queryer")
			t.c.Absorb(sub, span)
			continue
		}
		t.c.Absorb(sub, span)
		if err != nil {
			return nil, fmt.Errorf("find annotation %s: %w", name, err)
		}
		if len(refs) == 0 {
			t.c.Warnf(ir.WarnNoMatch, span, "annotation %s matches nothing", name)
			items = append(items, queryplan.Const{Value: false})
			continue
		}
		total += len(refs)
		items = append(items, t.annotated(ids(refs), el.MetaTypes, span))
	}
	t.checkUnion(total, el.Span)
	return queryplan.AnyOf(items...), nil
}

// annotated holds when the entity carries one of ids, directly or through
// a related author, topic or tag of the allowed types.
func (t *translator) annotated(ids []ir.IRValue, types ir.MetaTypes, at ir.Span) queryplan.Predicate {
	d := t.dialect
	if d.DirectAnnotation != nil {
		return t.exists(*d.DirectAnnotation, ids)
	}
	var paths []queryplan.Predicate
	for _, k := range types.List() {
		ar, ok := d.AnnotationRelations[k]
		if !ok {
			continue
		}
		via := t.nextRelation()
		inner := t.nextRelation()
		paths = append(paths, queryplan.Exists{
			Table: ar.Via.Table, Alias: via, Local: ar.Via.EntityColumn,
			Outer: queryplan.Col(d.Entity, "id"),
			Where: queryplan.Exists{
				Table: ar.Annotation.Table, Alias: inner, Local: ar.Annotation.EntityColumn,
				Outer: queryplan.Col(via, ar.Via.MetaColumn),
				Where: queryplan.In{Column: queryplan.Col(inner, ar.Annotation.MetaColumn), Values: ids},
			},
		})
	}
	if len(paths) == 0 {
		t.c.Errorf(ir.ErrUnconvertibleValue, at, "dialect %s cannot reach %s annotations", d.ID, types)
	}
	return queryplan.AnyOf(paths...)
}

// matchAny ORs a string match per item. Blank items match nothing.
func (t *translator) matchAny(items []ir.MetaString, spans []ir.Span, column func(ir.MetaString) queryplan.Column) queryplan.Predicate {
	preds := make([]queryplan.Predicate, 0, len(items))
	for i, s := range items {
		if s.IsBlank() {
			t.c.Warnf(ir.WarnBlankElement, spans[i], "%s is blank and matches nothing", s)
			preds = append(preds, queryplan.Const{Value: false})
			continue
		}
		preds = append(preds, match(column(s), s))
	}
	return queryplan.AnyOf(preds...)
}

func match(col queryplan.Column, s ir.MetaString) queryplan.Predicate {
	if s.Precise {
		return queryplan.Compare{Column: col, Op: queryplan.OpEq, Value: ir.IRString(s.Value)}
	}
	return queryplan.Like{Column: col, Pattern: LikePattern(s)}
}

// sourceTag joins the source tag table for positive elements, which can
// multiply rows and so makes the plan distinct. Negated elements are
// correlated lookups wrapped in NOT by the caller.
func (t *translator) sourceTag(el semantic.SourceTagElement) queryplan.Predicate {
	t.countIntersect(1, el.Span)
	rel := t.dialect.SourceTagRelation
	if rel == nil {
		t.c.Errorf(ir.ErrUnconvertibleValue, el.Span, "dialect %s has no source tags", t.dialect.ID)
		return nil
	}
	if el.Minus {
		alias := t.nextRelation()
		where := t.matchAny(el.Items, el.ItemSpans, func(ir.MetaString) queryplan.Column { return queryplan.Col(alias, rel.MetaColumn) })
		return queryplan.Exists{
			Table: rel.Table, Alias: alias, Local: rel.EntityColumn,
			Outer: queryplan.Col(t.dialect.Entity, "id"), Where: where,
		}
	}
	t.sourceTags++
	alias := fmt.Sprintf("s%d", t.sourceTags)
	t.plan.Joins = append(t.plan.Joins, queryplan.Join{
		Table: rel.Table, Alias: alias,
		Condition: queryplan.ColumnEquals{
			Left:  queryplan.Col(alias, rel.EntityColumn),
			Right: queryplan.Col(t.dialect.Entity, "id"),
		},
	})
	t.plan.Distinct = true
	return t.matchAny(el.Items, el.ItemSpans, func(ir.MetaString) queryplan.Column { return queryplan.Col(alias, rel.MetaColumn) })
}

// join adds a field's auxiliary table the first time it is needed.
func (t *translator) join(j *queryplan.Join) {
	if j == nil || t.joined[j.Alias] {
		return
	}
	t.joined[j.Alias] = true
	t.plan.Joins = append(t.plan.Joins, *j)
}

func (t *translator) field(el semantic.FieldElement) queryplan.Predicate {
	f := el.Field
	alternatives := make([]queryplan.Predicate, 0, len(el.Items))
	for _, item := range el.Items {
		if item.Range {
			alternatives = append(alternatives, t.fieldRange(f, item))
			continue
		}
		alternatives = append(alternatives, t.fieldEquals(f, item))
	}
	return queryplan.AnyOf(alternatives...)
}

func (t *translator) fieldEquals(f *semantic.Field, item semantic.FieldItem) queryplan.Predicate {
	col := f.Column
	switch f.Kind {
	case semantic.FieldNumber, semantic.FieldEnum:
		values := make([]ir.IRValue, 0, len(item.Equals))
		for _, s := range item.Equals {
			if s.Value == nil {
				t.c.Errorf(ir.ErrUnconvertibleValue, item.Span, "value %s of %s was not parsed", s.Text, f.Key)
				return queryplan.Const{Value: false}
			}
			values = append(values, s.Value)
		}
		if len(values) == 1 {
			return queryplan.Compare{Column: col, Op: queryplan.OpEq, Value: values[0]}
		}
		return queryplan.In{Column: col, Values: values}
	case semantic.FieldDate:
		preds := make([]queryplan.Predicate, 0, len(item.Equals))
		for _, s := range item.Equals {
			if s.Value == nil || s.Upper == nil {
				t.c.Errorf(ir.ErrUnconvertibleValue, item.Span, "date %s of %s was not parsed", s.Text, f.Key)
				return queryplan.Const{Value: false}
			}
			preds = append(preds, queryplan.AllOf(
				queryplan.Compare{Column: col, Op: queryplan.OpGte, Value: s.Value},
				queryplan.Compare{Column: col, Op: queryplan.OpLt, Value: s.Upper},
			))
		}
		return queryplan.AnyOf(preds...)
	case semantic.FieldPattern:
		texts := make([]ir.MetaString, len(item.Equals))
		spans := make([]ir.Span, len(item.Equals))
		for i, s := range item.Equals {
			texts[i] = s.Text
			spans[i] = item.Span
		}
		return t.matchAny(texts, spans, func(ir.MetaString) queryplan.Column { return col })
	default:
		t.c.Errorf(ir.ErrUnconvertibleValue, item.Span, "%s field %s takes no value", f.Kind, f.Key)
		return queryplan.Const{Value: false}
	}
}

// fieldRange bounds a number or date column. A date bound names an
// interval: > 2024 means after the whole year, <= 2024 up to its end.
func (t *translator) fieldRange(f *semantic.Field, item semantic.FieldItem) queryplan.Predicate {
	col := f.Column
	var preds []queryplan.Predicate
	date := f.Kind == semantic.FieldDate
	if b := item.Begin; b != nil {
		switch {
		case date && !item.IncludeBegin:
			preds = append(preds, queryplan.Compare{Column: col, Op: queryplan.OpGte, Value: b.Upper})
		case date || item.IncludeBegin:
			preds = append(preds, queryplan.Compare{Column: col, Op: queryplan.OpGte, Value: b.Value})
		default:
			preds = append(preds, queryplan.Compare{Column: col, Op: queryplan.OpGt, Value: b.Value})
		}
	}
	if e := item.End; e != nil {
		switch {
		case date && item.IncludeEnd:
			preds = append(preds, queryplan.Compare{Column: col, Op: queryplan.OpLt, Value: e.Upper})
		case date || !item.IncludeEnd:
			preds = append(preds, queryplan.Compare{Column: col, Op: queryplan.OpLt, Value: e.Value})
		default:
			preds = append(preds, queryplan.Compare{Column: col, Op: queryplan.OpLte, Value: e.Value})
		}
	}
	return queryplan.AllOf(preds...)
}

// order merges sort keys. A key given twice keeps its last direction and
// position.
func (t *translator) order(o semantic.OrderElement) {
	t.ordered = true
	for _, spec := range o.Items {
		for i, prev := range t.orders {
			if prev.Item == spec.Item {
				t.c.Warnf(ir.WarnDuplicateOrder, spec.Span, "order %s is given more than once, the last one wins", spec.Item.Key)
				t.orders = append(t.orders[:i], t.orders[i+1:]...)
				break
			}
		}
		t.orders = append(t.orders, spec)
	}
}

func (t *translator) finishOrders() {
	specs := t.orders
	if !t.ordered {
		specs = t.dialect.DefaultOrder
	}
	for _, spec := range specs {
		t.join(spec.Item.Join)
		t.plan.Orders = append(t.plan.Orders, queryplan.Order{
			Field: spec.Item.Key, Column: spec.Item.Column, Desc: spec.Desc,
		})
	}
}
