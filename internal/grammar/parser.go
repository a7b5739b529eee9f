package grammar

import (
	"github.com/roach88/hql/internal/ir"
	"github.com/roach88/hql/internal/lexer"
)

// Parse builds a clause tree from tokens.
//
// The first error aborts parsing: a broken clause leaves no reliable place
// to resume. Stylistic redundancies (a repeated prefix or negation) are
// warnings and parsing continues.
func Parse(tokens []lexer.Token) ir.Analysis[*Query] {
	p := &parser{
		tokens: tokens,
		c:      ir.NewCollector(ir.StageGrammar),
	}
	if len(tokens) > 0 {
		p.eof = tokens[len(tokens)-1].Span.End
	}
	q := p.parseQuery()
	return ir.Finish(p.c, q)
}

type parser struct {
	tokens []lexer.Token
	pos    int
	eof    int
	c      *ir.Collector
}

func (p *parser) done() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) peek() lexer.Token {
	return p.tokens[p.pos]
}

func (p *parser) next() lexer.Token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) peekKind(kinds ...lexer.Kind) bool {
	if p.done() {
		return false
	}
	k := p.peek().Kind
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

func (p *parser) peekIs(kind lexer.Kind, value string) bool {
	return !p.done() && p.peek().Is(kind, value)
}

func (p *parser) eofSpan() ir.Span {
	return ir.NewSpan(p.eof, p.eof)
}

// fail records an error at the current token, or at the end of input.
func (p *parser) fail(expected string) {
	if p.done() {
		p.c.Errorf(ir.ErrUnexpectedEnd, p.eofSpan(), "expected %s, reached end of query", expected)
		return
	}
	t := p.peek()
	p.c.Errorf(ir.ErrUnexpectedToken, t.Span, "expected %s, got %s %q", expected, t.Kind, t.Value)
}

func (p *parser) parseQuery() *Query {
	q := &Query{Clauses: []Clause{}}
	for !p.done() {
		if p.peekKind(lexer.KindAnd) {
			p.pos++
			if p.done() {
				break
			}
		}
		cl, ok := p.parseClause()
		if !ok {
			return nil
		}
		q.Clauses = append(q.Clauses, cl)
	}
	return q
}

func (p *parser) parseClause() (Clause, bool) {
	begin := p.peek().Span
	minus := false
	for p.peekKind(lexer.KindMinus, lexer.KindNot) {
		t := p.next()
		if minus {
			p.c.Warnf(ir.WarnRepeatedNegation, t.Span, "repeated negation %q has no extra effect", t.Value)
		}
		minus = true
	}
	if p.done() {
		p.fail("an element after the negation")
		return nil, false
	}

	if t := p.peek(); t.Kind == lexer.KindFamily && (t.Value == "~+" || t.Value == "~-") {
		if minus {
			p.c.Errorf(ir.ErrUnexpectedToken, begin.Join(t.Span), "an order directive cannot be negated")
			return nil, false
		}
		return p.parseSort()
	}

	var prefixes []Prefix
	for p.peekKind(lexer.KindPrefix) {
		t := p.next()
		prefixes = append(prefixes, Prefix{Value: t.Value, Span: t.Span})
	}

	if p.peekIs(lexer.KindBracket, "[") {
		ann, ok := p.parseAnnotation(prefixes)
		if !ok {
			return nil, false
		}
		ann.Minus = minus
		ann.Span = begin.Join(ann.Span)
		return ann, true
	}

	prefix, ok := p.elementPrefix(prefixes)
	if !ok {
		return nil, false
	}
	el := Element{Minus: minus, Prefix: prefix}
	for {
		item, ok := p.parseSFP()
		if !ok {
			return nil, false
		}
		el.Items = append(el.Items, item)
		if !p.peekKind(lexer.KindOr) {
			break
		}
		p.pos++
	}
	el.Span = begin.Join(el.Items[len(el.Items)-1].Span)
	return el, true
}

// elementPrefix reduces the prefix glyphs written before an element to one.
// Repeating the same glyph is harmless; mixing glyphs is an error.
func (p *parser) elementPrefix(prefixes []Prefix) (*Prefix, bool) {
	if len(prefixes) == 0 {
		return nil, true
	}
	first := prefixes[0]
	for _, other := range prefixes[1:] {
		if other.Value != first.Value {
			p.c.Errorf(ir.ErrConflictingPrefix, first.Span.Join(other.Span),
				"prefixes %q and %q cannot be combined on one element", first.Value, other.Value)
			return nil, false
		}
		p.c.Warnf(ir.WarnRepeatedPrefix, other.Span, "repeated prefix %q has no extra effect", other.Value)
	}
	return &first, true
}

func (p *parser) parseSort() (Clause, bool) {
	fam := p.next()
	if !p.peekKind(lexer.KindString, lexer.KindBacktick) {
		p.fail("an order item after " + fam.Value)
		return nil, false
	}
	s := p.str()
	span := fam.Span.Join(s.Span)
	return Sort{
		Item: SortItem{Value: s, Desc: fam.Value == "~-", Span: span},
		Span: span,
	}, true
}

func (p *parser) parseAnnotation(prefixes []Prefix) (Annotation, bool) {
	open := p.next()
	ann := Annotation{Prefixes: prefixes, Span: open.Span}
	if len(prefixes) > 0 {
		ann.Span = prefixes[0].Span.Join(open.Span)
	}
	for {
		if p.done() {
			p.c.Errorf(ir.ErrUnclosedBracket, open.Span, "annotation bracket is never closed")
			return ann, false
		}
		t := p.peek()
		switch {
		case t.Is(lexer.KindBracket, "]"):
			p.pos++
			if len(ann.Items) == 0 {
				p.c.Errorf(ir.ErrUnexpectedToken, open.Span.Join(t.Span), "annotation needs at least one name")
				return ann, false
			}
			ann.Span = ann.Span.Join(t.Span)
			return ann, true
		case t.IsString():
			ann.Items = append(ann.Items, p.str())
			if p.peekKind(lexer.KindOr, lexer.KindComma) {
				sep := p.next()
				if p.peekIs(lexer.KindBracket, "]") {
					p.c.Warnf(ir.WarnEmptyItem, sep.Span, "empty annotation name after %q was ignored", sep.Value)
				}
			} else if !p.peekIs(lexer.KindBracket, "]") {
				if p.done() {
					continue
				}
				p.fail(`"|", "," or "]"`)
				return ann, false
			}
		case (t.Kind == lexer.KindOr || t.Kind == lexer.KindComma) && len(ann.Items) == 0:
			p.c.Warnf(ir.WarnEmptyItem, t.Span, "empty annotation name before %q was ignored", t.Value)
			p.pos++
		default:
			p.fail("an annotation name")
			return ann, false
		}
	}
}

func (p *parser) str() Str {
	t := p.next()
	return Str{Value: t.Value, Precise: t.Kind == lexer.KindBacktick, Span: t.Span}
}

func (p *parser) parseStrList() (StrList, bool) {
	if !p.peekKind(lexer.KindString, lexer.KindBacktick) {
		if p.peekKind(lexer.KindFamily) {
			p.c.Errorf(ir.ErrEmptySubject, p.peek().Span, "%q needs a subject before it", p.peek().Value)
			return StrList{}, false
		}
		p.fail("a string")
		return StrList{}, false
	}
	first := p.str()
	l := StrList{Items: []Str{first}, Span: first.Span}
	for p.peekKind(lexer.KindDot) {
		dot := p.next()
		if !p.peekKind(lexer.KindString, lexer.KindBacktick) {
			p.fail("a string after " + `"."`)
			return StrList{}, false
		}
		s := p.str()
		l.Items = append(l.Items, s)
		l.Span = l.Span.Join(dot.Span).Join(s.Span)
	}
	return l, true
}

var comparators = map[string]bool{">": true, ">=": true, "<": true, "<=": true}

func (p *parser) parseSFP() (SFP, bool) {
	subject, ok := p.parseStrList()
	if !ok {
		return SFP{}, false
	}
	sfp := SFP{Subject: subject, Span: subject.Span}
	if !p.peekKind(lexer.KindFamily) {
		return sfp, true
	}
	// "cat ~-score" is an element followed by an order directive; only
	// "cat~-" binds the directive to the subject.
	if t := p.peek(); t.Spaced && (Family{Value: t.Value}).IsUnary() {
		return sfp, true
	}

	t := p.next()
	fam := Family{Value: t.Value, Span: t.Span}
	// score:>=8 reads the same as score>=8.
	if fam.Value == ":" && p.peekKind(lexer.KindFamily) && comparators[p.peek().Value] {
		cmp := p.next()
		fam = Family{Value: cmp.Value, Span: fam.Span.Join(cmp.Span)}
	}
	sfp.Family = &fam
	sfp.Span = sfp.Span.Join(fam.Span)
	if fam.IsUnary() {
		return sfp, true
	}

	pred, ok := p.parsePredicative(fam)
	if !ok {
		return SFP{}, false
	}
	sfp.Predicative = pred
	sfp.Span = sfp.Span.Join(pred.Pos())
	return sfp, true
}

func (p *parser) parsePredicative(fam Family) (Predicative, bool) {
	if p.done() {
		p.c.Errorf(ir.ErrMissingPredicative, fam.Span, "%q needs a value after it", fam.Value)
		return nil, false
	}
	t := p.peek()
	switch {
	case t.Is(lexer.KindBracket, "[") || t.Is(lexer.KindBracket, "("):
		return p.parseRange()
	case t.Is(lexer.KindBracket, "{"):
		return p.parseCol()
	case (t.Kind == lexer.KindMinus || t.Kind == lexer.KindPlus) && comparators[fam.Value]:
		return p.parseSigned()
	case t.Kind == lexer.KindMinus || t.Kind == lexer.KindPlus:
		return p.parseSortList(nil)
	case t.IsString():
		l, ok := p.parseStrList()
		if !ok {
			return nil, false
		}
		if !p.peekKind(lexer.KindComma) {
			return l, true
		}
		if len(l.Items) > 1 {
			p.c.Errorf(ir.ErrUnexpectedToken, l.Span, "sort list items cannot be addresses")
			return nil, false
		}
		first := SortItem{Value: l.Items[0], Span: l.Span}
		return p.parseSortList(&first)
	default:
		p.c.Errorf(ir.ErrMissingPredicative, fam.Span.Join(t.Span), "%q needs a value after it, got %s %q", fam.Value, t.Kind, t.Value)
		return nil, false
	}
}

// parseSigned reads a sign glued to the string after a comparator, as in
// id:<-1.
func (p *parser) parseSigned() (Predicative, bool) {
	sign := p.next()
	if !p.peekKind(lexer.KindString) || p.peek().Spaced {
		p.fail("a number after " + `"` + sign.Value + `"`)
		return nil, false
	}
	s := p.str()
	if sign.Kind == lexer.KindMinus {
		s.Value = "-" + s.Value
	}
	s.Span = sign.Span.Join(s.Span)
	return StrList{Items: []Str{s}, Span: s.Span}, true
}

func (p *parser) parseRange() (Predicative, bool) {
	open := p.next()
	r := Range{IncludeFrom: open.Value == "[", Span: open.Span}
	if !p.peekKind(lexer.KindString, lexer.KindBacktick) {
		p.fail("the lower bound of a range")
		return nil, false
	}
	r.From = p.str()
	if !p.peekKind(lexer.KindComma) {
		p.fail(`"," between range bounds`)
		return nil, false
	}
	p.pos++
	if !p.peekKind(lexer.KindString, lexer.KindBacktick) {
		p.fail("the upper bound of a range")
		return nil, false
	}
	r.To = p.str()
	switch {
	case p.peekIs(lexer.KindBracket, "]"):
		r.IncludeTo = true
	case p.peekIs(lexer.KindBracket, ")"):
	default:
		p.c.Errorf(ir.ErrUnclosedBracket, open.Span, "range opened with %q is never closed with ] or )", open.Value)
		return nil, false
	}
	r.Span = r.Span.Join(p.next().Span)
	return r, true
}

func (p *parser) parseCol() (Predicative, bool) {
	open := p.next()
	c := Col{Span: open.Span}
	for {
		if !p.peekKind(lexer.KindString, lexer.KindBacktick) {
			p.fail("a collection item")
			return nil, false
		}
		c.Items = append(c.Items, p.str())
		if p.peekKind(lexer.KindComma) {
			p.pos++
			continue
		}
		if !p.peekIs(lexer.KindBracket, "}") {
			p.c.Errorf(ir.ErrUnclosedBracket, open.Span, "collection opened with { is never closed")
			return nil, false
		}
		c.Span = c.Span.Join(p.next().Span)
		return c, true
	}
}

func (p *parser) parseSortList(first *SortItem) (Predicative, bool) {
	var l SortList
	if first != nil {
		l.Items = append(l.Items, *first)
		l.Span = first.Span
		// The caller stopped at the comma after the first item.
		p.pos++
	}
	for {
		item, ok := p.parseSortItem()
		if !ok {
			return nil, false
		}
		if len(l.Items) == 0 {
			l.Span = item.Span
		}
		l.Items = append(l.Items, item)
		l.Span = l.Span.Join(item.Span)
		if !p.peekKind(lexer.KindComma) {
			return l, true
		}
		p.pos++
	}
}

func (p *parser) parseSortItem() (SortItem, bool) {
	var item SortItem
	begin := ir.Span{}
	hasSign := false
	if p.peekKind(lexer.KindMinus, lexer.KindPlus) {
		sign := p.next()
		item.Desc = sign.Kind == lexer.KindMinus
		begin = sign.Span
		hasSign = true
	}
	if !p.peekKind(lexer.KindString, lexer.KindBacktick) {
		p.fail("a sort item")
		return SortItem{}, false
	}
	item.Value = p.str()
	item.Span = item.Value.Span
	if hasSign {
		item.Span = begin.Join(item.Span)
	}
	return item, true
}
