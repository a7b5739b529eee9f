package semantic

import (
	"github.com/roach88/hql/internal/grammar"
	"github.com/roach88/hql/internal/ir"
)

// predicativeKind names a predicative shape for messages.
func predicativeKind(p grammar.Predicative) string {
	switch p.(type) {
	case grammar.StrList:
		return "string"
	case grammar.Range:
		return "range"
	case grammar.Col:
		return "collection"
	case grammar.SortList:
		return "sort list"
	default:
		return "value"
	}
}

// singleValue returns the one string of a predicative address, or records
// E306 when the address has more segments.
func singleValue(l grammar.StrList, c *ir.Collector) (ir.MetaString, bool) {
	if len(l.Items) != 1 {
		c.Errorf(ir.ErrValueCannotBeAddress, l.Span, "value %s cannot be an address, write a single string", l.Address())
		return ir.MetaString{}, false
	}
	return l.Items[0].Meta(), true
}

// toMetaValue applies the subject/family/predicative table. Every invalid
// combination records exactly one error and returns false.
func toMetaValue(sfp grammar.SFP, c *ir.Collector) (ir.MetaValue, bool) {
	tag := sfp.Subject.Address()
	if sfp.Family == nil {
		if len(tag) == 1 {
			return ir.SingleMetaValue{Value: tag[0]}, true
		}
		return ir.SimpleMetaValue{Value: tag}, true
	}

	family := *sfp.Family
	if family.IsUnary() {
		return ir.SequentialItemMetaValueToDirection{Tag: tag, Desc: family.Value == "~-"}, true
	}

	if sl, ok := sfp.Predicative.(grammar.SortList); ok {
		c.Errorf(ir.ErrUnsupportedValueType, sl.Span, "sort list is not a value, it cannot follow %q", family.Value)
		return nil, false
	}

	switch family.Value {
	case ":":
		switch p := sfp.Predicative.(type) {
		case grammar.StrList:
			v, ok := singleValue(p, c)
			if !ok {
				return nil, false
			}
			return ir.NewCollection(tag, []ir.MetaString{v}), true
		case grammar.Col:
			values := make([]ir.MetaString, len(p.Items))
			for i, s := range p.Items {
				values[i] = s.Meta()
			}
			return ir.NewCollection(tag, values), true
		case grammar.Range:
			from, to := p.From.Meta(), p.To.Meta()
			return ir.SequentialMetaValueOfRange{
				Tag: tag, Begin: &from, End: &to,
				IncludeBegin: p.IncludeFrom, IncludeEnd: p.IncludeTo,
			}, true
		}
	case ">", ">=", "<", "<=", "~":
		p, ok := sfp.Predicative.(grammar.StrList)
		if !ok {
			c.Errorf(ir.ErrUnsupportedValueTypeOfRelation, sfp.Predicative.Pos(),
				"%s cannot follow %q, write a single string", predicativeKind(sfp.Predicative), family.Value)
			return nil, false
		}
		v, ok := singleValue(p, c)
		if !ok {
			return nil, false
		}
		switch family.Value {
		case ">":
			return ir.SequentialMetaValueOfRange{Tag: tag, Begin: &v}, true
		case ">=":
			return ir.SequentialMetaValueOfRange{Tag: tag, Begin: &v, IncludeBegin: true}, true
		case "<":
			return ir.SequentialMetaValueOfRange{Tag: tag, End: &v}, true
		case "<=":
			return ir.SequentialMetaValueOfRange{Tag: tag, End: &v, IncludeEnd: true}, true
		default:
			return ir.SequentialItemMetaValueToOther{Tag: tag, Other: v}, true
		}
	}
	c.Errorf(ir.ErrUnsupportedValueType, family.Span, "%s cannot follow %q", predicativeKind(sfp.Predicative), family.Value)
	return nil, false
}

// metaKind classifies a list of values: all single means author, all
// single or simple means topic, anything else is a tag.
func metaKind(values []ir.MetaValue) ir.MetaType {
	kind := ir.MetaTypeAuthor
	for _, v := range values {
		switch v.(type) {
		case ir.SingleMetaValue:
		case ir.SimpleMetaValue:
			kind = ir.MetaTypeTopic
		default:
			return ir.MetaTypeTag
		}
	}
	return kind
}
