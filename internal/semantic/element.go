package semantic

import (
	"github.com/roach88/hql/internal/ir"
)

// Element is a sealed interface over the typed units of a semantic plan.
type Element interface {
	element()
	Pos() ir.Span
	// Negated reports whether the element was written with - or !.
	Negated() bool
}

// ElementBase carries what every element has.
type ElementBase struct {
	Minus bool    `json:"minus,omitempty"`
	Span  ir.Span `json:"span"`
}

func (b ElementBase) Pos() ir.Span  { return b.Span }
func (b ElementBase) Negated() bool { return b.Minus }

// AuthorElement references authors by one-segment names.
//
// Conjunctive is true when no prefix glyph was written: every item then
// must match, and each may resolve to an author, topic or tag.
type AuthorElement struct {
	ElementBase
	Items       []ir.SingleMetaValue `json:"items"`
	ItemSpans   []ir.Span            `json:"item_spans"`
	Conjunctive bool                 `json:"conjunctive"`
}

// TopicElement references topics by address.
type TopicElement struct {
	ElementBase
	Items       []ir.SimpleMetaValue `json:"items"`
	ItemSpans   []ir.Span            `json:"item_spans"`
	Conjunctive bool                 `json:"conjunctive"`
}

// TagElement references tags by any meta value shape.
type TagElement struct {
	ElementBase
	Items       []ir.MetaValue `json:"items"`
	ItemSpans   []ir.Span      `json:"item_spans"`
	Conjunctive bool           `json:"conjunctive"`
}

// AnnotationElement references annotations by name. MetaTypes restricts
// which kinds the annotation must be attached through; empty means any.
type AnnotationElement struct {
	ElementBase
	Items     []ir.MetaString `json:"items"`
	ItemSpans []ir.Span       `json:"item_spans"`
	MetaTypes ir.MetaTypes    `json:"meta_types"`
}

// SourceTagElement matches tags copied from the image source, by name.
type SourceTagElement struct {
	ElementBase
	Items     []ir.MetaString `json:"items"`
	ItemSpans []ir.Span       `json:"item_spans"`
}

// NameElement matches the entity's own name column.
type NameElement struct {
	ElementBase
	Items     []ir.MetaString `json:"items"`
	ItemSpans []ir.Span       `json:"item_spans"`
}

// FlagElement tests a boolean field.
type FlagElement struct {
	ElementBase
	Field *Field `json:"-"`
}

// FieldItem is one alternative of a field element: either a set of values
// (Equals) or a range. Range bounds may be nil for open ends.
type FieldItem struct {
	Value        ir.MetaValue `json:"value"`
	Equals       []Scalar     `json:"equals,omitempty"`
	Range        bool         `json:"range,omitempty"`
	Begin        *Scalar      `json:"begin,omitempty"`
	End          *Scalar      `json:"end,omitempty"`
	IncludeBegin bool         `json:"include_begin,omitempty"`
	IncludeEnd   bool         `json:"include_end,omitempty"`
	Span         ir.Span      `json:"span"`
}

// FieldElement compares a scalar field. Items combine with OR.
type FieldElement struct {
	ElementBase
	Field *Field      `json:"-"`
	Items []FieldItem `json:"items"`
}

// OrderElement lists sort keys in the order written.
type OrderElement struct {
	ElementBase
	Items []OrderSpec `json:"items"`
}

func (AuthorElement) element()     {}
func (TopicElement) element()      {}
func (TagElement) element()        {}
func (AnnotationElement) element() {}
func (SourceTagElement) element()  {}
func (NameElement) element()       {}
func (FlagElement) element()       {}
func (FieldElement) element()      {}
func (OrderElement) element()      {}

// Result is a semantic plan: the dialect it was analyzed for and its
// elements in source order.
type Result struct {
	Dialect  *Dialect  `json:"-"`
	Elements []Element `json:"elements"`
}
