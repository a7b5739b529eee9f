package semantic

import (
	"strings"

	"github.com/roach88/hql/internal/grammar"
	"github.com/roach88/hql/internal/ir"
)

// AnalyzeFor looks up the dialect by id and analyzes q against it.
func AnalyzeFor(q *grammar.Query, id DialectID) ir.Analysis[*Result] {
	d, ok := Lookup(id)
	if !ok {
		c := ir.NewCollector(ir.StageSemantic)
		c.Errorf(ir.ErrUnknownDialect, ir.Span{}, "unknown dialect %q", id)
		return ir.Finish[*Result](c, nil)
	}
	return Analyze(q, d)
}

// Analyze types every clause of q against dialect d.
//
// Unlike the parser, analysis does not stop at the first error: each clause
// is checked so that one pass reports every problem.
func Analyze(q *grammar.Query, d *Dialect) ir.Analysis[*Result] {
	a := &analyzer{dialect: d, c: ir.NewCollector(ir.StageSemantic)}
	res := &Result{Dialect: d, Elements: []Element{}}
	for _, clause := range q.Clauses {
		if e := a.clause(clause); e != nil {
			res.Elements = append(res.Elements, e)
		}
	}
	return ir.Finish(a.c, res)
}

type analyzer struct {
	dialect *Dialect
	c       *ir.Collector
}

func (a *analyzer) clause(clause grammar.Clause) Element {
	switch cl := clause.(type) {
	case grammar.Sort:
		spec, ok := a.orderSpec(cl.Item)
		if !ok {
			return nil
		}
		return OrderElement{ElementBase: ElementBase{Span: cl.Span}, Items: []OrderSpec{spec}}
	case grammar.Annotation:
		return a.annotation(cl)
	case grammar.Element:
		return a.element(cl)
	default:
		a.c.Errorf(ir.ErrUnsupportedElementKind, clause.Pos(), "unsupported clause %T", clause)
		return nil
	}
}

func (a *analyzer) orderSpec(item grammar.SortItem) (OrderSpec, bool) {
	o := a.dialect.Order(item.Value.Value)
	if o == nil {
		a.c.Errorf(ir.ErrUnknownOrderItem, item.Value.Span, "unknown order item %q in dialect %s", item.Value.Value, a.dialect.ID)
		return OrderSpec{}, false
	}
	return OrderSpec{Item: o, Desc: item.Desc, Span: item.Span}, true
}

func (a *analyzer) annotation(an grammar.Annotation) Element {
	d := a.dialect
	if !d.Annotations {
		a.c.Errorf(ir.ErrUnsupportedElementKind, an.Span, "annotation elements are not supported by dialect %s", d.ID)
		return nil
	}
	var types ir.MetaTypes
	ok := true
	for _, p := range an.Prefixes {
		if d.DirectAnnotation != nil {
			a.c.Errorf(ir.ErrInvalidAnnotationPrefix, p.Span, "annotations of dialect %s take no prefix", d.ID)
			ok = false
			continue
		}
		switch p.Value {
		case "@":
			types = types.With(ir.MetaTypeAuthor)
		case "#":
			types = types.With(ir.MetaTypeTopic)
		case "$":
			types = types.With(ir.MetaTypeTag)
		default:
			a.c.Errorf(ir.ErrInvalidAnnotationPrefix, p.Span, "prefix %q has no meaning on an annotation", p.Value)
			ok = false
		}
	}
	if !ok {
		return nil
	}
	e := AnnotationElement{ElementBase: ElementBase{Minus: an.Minus, Span: an.Span}, MetaTypes: types}
	for _, s := range an.Items {
		e.Items = append(e.Items, s.Meta())
		e.ItemSpans = append(e.ItemSpans, s.Span)
	}
	return e
}

func (a *analyzer) element(el grammar.Element) Element {
	d := a.dialect
	base := ElementBase{Minus: el.Minus, Span: el.Span}
	if el.Prefix != nil {
		switch el.Prefix.Value {
		case "^":
			if !d.SourceTags {
				a.c.Errorf(ir.ErrUnsupportedElementKind, el.Span, "source-tag elements are not supported by dialect %s", d.ID)
				return nil
			}
			items, spans, ok := a.plainItems(el)
			if !ok {
				return nil
			}
			return SourceTagElement{ElementBase: base, Items: items, ItemSpans: spans}
		default:
			if !d.MetaTags {
				if name := a.fieldLike(el); name != "" {
					a.c.Errorf(ir.ErrElementPrefixNotRequired, el.Prefix.Span, "%s takes no prefix", name)
				} else {
					a.c.Errorf(ir.ErrUnsupportedElementKind, el.Span, "%s elements are not supported by dialect %s",
						prefixKind(el.Prefix.Value), d.ID)
				}
				return nil
			}
			return a.metaTag(el, base)
		}
	}

	first := el.Items[0]
	if name, ok := bareWord(first); ok {
		if f := d.Field(name); f != nil {
			return a.field(el, base, f)
		}
		// A bare o, sort or order is an ordinary name.
		if d.IsOrderKeyword(name) && first.Family != nil {
			return a.orderList(el, base)
		}
		if owners := fieldOwners(name); len(owners) > 0 && (first.Family != nil || isFlagElsewhere(name)) {
			a.c.Errorf(ir.ErrUnsupportedElementKind, first.Subject.Span, "field %s is not available in dialect %s (declared by %s)",
				name, d.ID, joinIDs(owners))
			return nil
		}
	}
	if d.Names != nil {
		items, spans, ok := a.plainItems(el)
		if !ok {
			return nil
		}
		return NameElement{ElementBase: base, Items: items, ItemSpans: spans}
	}
	if !d.MetaTags {
		a.c.Errorf(ir.ErrUnsupportedElementKind, el.Span, "meta-tag elements are not supported by dialect %s", d.ID)
		return nil
	}
	return a.metaTag(el, base)
}

// fieldLike returns the field or order keyword the element's first subject
// names, or "".
func (a *analyzer) fieldLike(el grammar.Element) string {
	name, ok := bareWord(el.Items[0])
	if !ok {
		return ""
	}
	if f := a.dialect.Field(name); f != nil {
		return "field " + f.Key
	}
	if a.dialect.IsOrderKeyword(name) {
		return "order list"
	}
	return ""
}

// bareWord returns the subject of sfp when it is a single non-precise string.
func bareWord(sfp grammar.SFP) (string, bool) {
	items := sfp.Subject.Items
	if len(items) != 1 || items[0].Precise {
		return "", false
	}
	return items[0].Value, true
}

func isFlagElsewhere(name string) bool {
	for _, d := range Dialects() {
		if f := d.Field(name); f != nil && f.Kind == FieldFlag {
			return true
		}
	}
	return false
}

func joinIDs(ids []DialectID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return strings.Join(names, ", ")
}

func prefixKind(p string) string {
	switch p {
	case "@":
		return "author"
	case "#":
		return "topic"
	default:
		return "tag"
	}
}

// plainItems collects the subjects of a name or source-tag element, which
// take neither a family nor an address.
func (a *analyzer) plainItems(el grammar.Element) ([]ir.MetaString, []ir.Span, bool) {
	ok := true
	var items []ir.MetaString
	var spans []ir.Span
	for _, sfp := range el.Items {
		if sfp.Family != nil {
			a.c.Errorf(ir.ErrElementValueNotRequired, sfp.Family.Span, "%q takes no family or value here", sfp.Subject.Address())
			ok = false
			continue
		}
		if len(sfp.Subject.Items) != 1 {
			a.c.Errorf(ir.ErrValueCannotBeAddress, sfp.Subject.Span, "%s cannot be an address, write a single string", sfp.Subject.Address())
			ok = false
			continue
		}
		items = append(items, sfp.Subject.Items[0].Meta())
		spans = append(spans, sfp.Span)
	}
	return items, spans, ok
}

func (a *analyzer) metaTag(el grammar.Element, base ElementBase) Element {
	values := make([]ir.MetaValue, 0, len(el.Items))
	spans := make([]ir.Span, 0, len(el.Items))
	ok := true
	for _, sfp := range el.Items {
		v, good := toMetaValue(sfp, a.c)
		if !good {
			ok = false
			continue
		}
		values = append(values, v)
		spans = append(spans, sfp.Span)
	}
	if !ok {
		return nil
	}

	kind := metaKind(values)
	conjunctive := el.Prefix == nil
	if el.Prefix != nil {
		switch el.Prefix.Value {
		case "@":
			if kind != ir.MetaTypeAuthor {
				a.c.Errorf(ir.ErrInvalidMetaTagForPrefix, el.Span, "author addresses must be single-segment strings without a family")
				return nil
			}
		case "#":
			if kind == ir.MetaTypeTag {
				a.c.Errorf(ir.ErrInvalidMetaTagForPrefix, el.Span, "topic addresses take no family")
				return nil
			}
			kind = ir.MetaTypeTopic
		default:
			kind = ir.MetaTypeTag
		}
	}

	switch kind {
	case ir.MetaTypeAuthor:
		items := make([]ir.SingleMetaValue, len(values))
		for i, v := range values {
			items[i] = v.(ir.SingleMetaValue)
		}
		return AuthorElement{ElementBase: base, Items: items, ItemSpans: spans, Conjunctive: conjunctive}
	case ir.MetaTypeTopic:
		items := make([]ir.SimpleMetaValue, len(values))
		for i, v := range values {
			items[i] = ir.SimpleMetaValue{Value: v.Address()}
		}
		return TopicElement{ElementBase: base, Items: items, ItemSpans: spans, Conjunctive: conjunctive}
	default:
		return TagElement{ElementBase: base, Items: values, ItemSpans: spans, Conjunctive: conjunctive}
	}
}

func (a *analyzer) field(el grammar.Element, base ElementBase, f *Field) Element {
	ok := true
	for _, sfp := range el.Items[1:] {
		name, bare := bareWord(sfp)
		if !bare || a.dialect.Field(name) != f {
			a.c.Errorf(ir.ErrMixedFieldItems, sfp.Subject.Span, "alternatives of field %s must all name %s", f.Key, f.Key)
			ok = false
		}
	}
	if !ok {
		return nil
	}

	if f.Kind == FieldFlag {
		for _, sfp := range el.Items {
			if sfp.Family != nil {
				a.c.Errorf(ir.ErrElementValueNotRequired, sfp.Family.Span, "flag %s takes no value", f.Key)
				ok = false
			}
		}
		if !ok {
			return nil
		}
		return FlagElement{ElementBase: base, Field: f}
	}

	e := FieldElement{ElementBase: base, Field: f}
	for _, sfp := range el.Items {
		item, good := a.fieldItem(sfp, f)
		if !good {
			ok = false
			continue
		}
		e.Items = append(e.Items, item)
	}
	if !ok {
		return nil
	}
	return e
}

func (a *analyzer) fieldItem(sfp grammar.SFP, f *Field) (FieldItem, bool) {
	if sfp.Family == nil {
		a.c.Errorf(ir.ErrFieldValueRequired, sfp.Span, "field %s needs a value, e.g. %s:value", f.Key, f.Key)
		return FieldItem{}, false
	}
	if v := sfp.Family.Value; v == "~" || v == "~+" || v == "~-" {
		a.c.Errorf(ir.ErrUnsupportedFamily, sfp.Family.Span, "%q has no meaning for field %s", v, f.Key)
		return FieldItem{}, false
	}
	mv, ok := toMetaValue(sfp, a.c)
	if !ok {
		return FieldItem{}, false
	}
	at := sfp.Span
	if sfp.Predicative != nil {
		at = sfp.Predicative.Pos()
	}
	parse := func(ms ir.MetaString) (Scalar, bool) {
		s, err := f.Parse(ms)
		if err != nil {
			a.c.Errorf(ir.ErrInvalidFieldValue, at, "invalid value for %s field %s: %v", f.Kind, f.Key, err)
			return s, false
		}
		return s, true
	}

	item := FieldItem{Value: mv, Span: sfp.Span}
	switch v := mv.(type) {
	case ir.SequentialMetaValueOfCollection:
		for _, ms := range v.Values {
			s, good := parse(ms)
			if !good {
				return FieldItem{}, false
			}
			item.Equals = append(item.Equals, s)
		}
		return item, true
	case ir.SequentialMetaValueOfRange:
		if f.Kind != FieldNumber && f.Kind != FieldDate {
			a.c.Errorf(ir.ErrUnsupportedValueType, at, "%s field %s cannot be compared as a range", f.Kind, f.Key)
			return FieldItem{}, false
		}
		item.Range = true
		item.IncludeBegin, item.IncludeEnd = v.IncludeBegin, v.IncludeEnd
		if v.Begin != nil {
			s, good := parse(*v.Begin)
			if !good {
				return FieldItem{}, false
			}
			item.Begin = &s
		}
		if v.End != nil {
			s, good := parse(*v.End)
			if !good {
				return FieldItem{}, false
			}
			item.End = &s
		}
		return item, true
	default:
		a.c.Errorf(ir.ErrUnsupportedFamily, sfp.Family.Span, "%q has no meaning for field %s", sfp.Family.Value, f.Key)
		return FieldItem{}, false
	}
}

// orderList handles order:-score,+ct and order:score.
func (a *analyzer) orderList(el grammar.Element, base ElementBase) Element {
	e := OrderElement{ElementBase: base}
	ok := true
	for _, sfp := range el.Items {
		if sfp.Family == nil || sfp.Family.Value != ":" {
			a.c.Errorf(ir.ErrUnsupportedValueType, sfp.Span, "order list must be written as order:item or order:+a,-b")
			ok = false
			continue
		}
		var items []grammar.SortItem
		switch p := sfp.Predicative.(type) {
		case grammar.SortList:
			items = p.Items
		case grammar.StrList:
			v, good := singleValue(p, a.c)
			if !good {
				ok = false
				continue
			}
			items = []grammar.SortItem{{Value: grammar.Str{Value: v.Value, Precise: v.Precise, Span: p.Span}, Span: p.Span}}
		default:
			a.c.Errorf(ir.ErrUnsupportedValueType, sfp.Predicative.Pos(), "%s is not an order list", predicativeKind(sfp.Predicative))
			ok = false
			continue
		}
		for _, it := range items {
			spec, good := a.orderSpec(it)
			if !good {
				ok = false
				continue
			}
			e.Items = append(e.Items, spec)
		}
	}
	if !ok {
		return nil
	}
	return e
}
