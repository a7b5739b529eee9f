package grammar

import (
	"github.com/roach88/hql/internal/ir"
)

// Str is one string of the query.
type Str struct {
	Value   string  `json:"value"`
	Precise bool    `json:"precise,omitempty"` // written in backticks
	Span    ir.Span `json:"span"`
}

// Meta converts the string to the value form later stages use.
func (s Str) Meta() ir.MetaString {
	return ir.MetaString{Value: s.Value, Precise: s.Precise}
}

// StrList is a dotted address: a.b.c.
type StrList struct {
	Items []Str   `json:"items"`
	Span  ir.Span `json:"span"`
}

// Address converts the list to an ir.MetaAddress.
func (l StrList) Address() ir.MetaAddress {
	out := make(ir.MetaAddress, len(l.Items))
	for i, s := range l.Items {
		out[i] = s.Meta()
	}
	return out
}

// Predicative is a sealed interface over the value forms that may follow a
// family. Only StrList, Range, Col and SortList implement it.
type Predicative interface {
	predicative()
	Pos() ir.Span
}

// Range is [a,b], (a,b), [a,b) or (a,b].
type Range struct {
	From        Str     `json:"from"`
	To          Str     `json:"to"`
	IncludeFrom bool    `json:"include_from"`
	IncludeTo   bool    `json:"include_to"`
	Span        ir.Span `json:"span"`
}

// Col is a collection {a,b,c}.
type Col struct {
	Items []Str   `json:"items"`
	Span  ir.Span `json:"span"`
}

// SortItem is one entry of a sort list; a leading - sorts descending.
type SortItem struct {
	Value Str     `json:"value"`
	Desc  bool    `json:"desc"`
	Span  ir.Span `json:"span"`
}

// SortList is +a,-b,c.
type SortList struct {
	Items []SortItem `json:"items"`
	Span  ir.Span    `json:"span"`
}

func (StrList) predicative()  {}
func (Range) predicative()    {}
func (Col) predicative()      {}
func (SortList) predicative() {}

func (l StrList) Pos() ir.Span  { return l.Span }
func (r Range) Pos() ir.Span    { return r.Span }
func (c Col) Pos() ir.Span      { return c.Span }
func (l SortList) Pos() ir.Span { return l.Span }

// Family is the operator between subject and predicative.
type Family struct {
	Value string  `json:"value"`
	Span  ir.Span `json:"span"`
}

// IsUnary reports whether the family takes no predicative (~+ and ~-).
func (f Family) IsUnary() bool {
	return f.Value == "~+" || f.Value == "~-"
}

// SFP is a subject, an optional family and an optional predicative.
// Predicative is nil when Family is nil or unary.
type SFP struct {
	Subject     StrList     `json:"subject"`
	Family      *Family     `json:"family,omitempty"`
	Predicative Predicative `json:"predicative,omitempty"`
	Span        ir.Span     `json:"span"`
}

// Prefix is one of @ # $ ^.
type Prefix struct {
	Value string  `json:"value"`
	Span  ir.Span `json:"span"`
}

// Clause is a sealed interface over the top-level items of a query.
// Only Element, Annotation and Sort implement it.
type Clause interface {
	clause()
	Pos() ir.Span
}

// Element is an optional negation, optional prefix and one or more SFP
// alternatives separated by |.
type Element struct {
	Minus  bool    `json:"minus,omitempty"`
	Prefix *Prefix `json:"prefix,omitempty"`
	Items  []SFP   `json:"items"`
	Span   ir.Span `json:"span"`
}

// Annotation is [name|name] with zero or more prefix glyphs before it.
type Annotation struct {
	Minus    bool     `json:"minus,omitempty"`
	Prefixes []Prefix `json:"prefixes,omitempty"`
	Items    []Str    `json:"items"`
	Span     ir.Span  `json:"span"`
}

// Sort is an order directive: ~+name or ~-name.
type Sort struct {
	Item SortItem `json:"item"`
	Span ir.Span  `json:"span"`
}

func (Element) clause()    {}
func (Annotation) clause() {}
func (Sort) clause()       {}

func (e Element) Pos() ir.Span    { return e.Span }
func (a Annotation) Pos() ir.Span { return a.Span }
func (s Sort) Pos() ir.Span       { return s.Span }

// Query is the parsed clause list. Adjacent clauses combine with AND.
type Query struct {
	Clauses []Clause `json:"clauses"`
}
