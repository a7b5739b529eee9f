package ir

import (
	"strconv"
	"strings"
)

// MetaString is one string value written by the user.
//
// Precise strings (written in backticks) match exactly; all others are
// patterns where * and ? are wildcards.
type MetaString struct {
	Value   string `json:"value"`
	Precise bool   `json:"precise,omitempty"`
}

// IsBlank reports whether the value has no visible content.
func (m MetaString) IsBlank() bool {
	return strings.TrimSpace(m.Value) == ""
}

func (m MetaString) String() string {
	if m.Precise {
		return "`" + m.Value + "`"
	}
	return strconv.Quote(m.Value)
}

// MetaAddress is a dotted path of strings, e.g. parent.child.leaf.
type MetaAddress []MetaString

func (a MetaAddress) String() string {
	parts := make([]string, len(a))
	for i, s := range a {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// Last returns the final segment. An address always has at least one
// segment; calling Last on an empty address panics.
func (a MetaAddress) Last() MetaString {
	return a[len(a)-1]
}

// MetaValue is a sealed interface over the shapes a meta-tag reference can take.
// Only the six types in this file implement it.
type MetaValue interface {
	metaValue()
	// Address is the tag path the value is anchored on.
	Address() MetaAddress
	// String is a canonical rendering, stable enough to use as a cache key.
	String() string
}

// SingleMetaValue is a one-segment address with no family, e.g. alice.
type SingleMetaValue struct {
	Value MetaString `json:"value"`
}

// SimpleMetaValue is an address of any length with no family, e.g. series.vol1.
type SimpleMetaValue struct {
	Value MetaAddress `json:"value"`
}

// SequentialMetaValueOfCollection selects named members of a sequence group,
// e.g. series:{vol1,vol3}. Values is a set: duplicates are dropped.
type SequentialMetaValueOfCollection struct {
	Tag    MetaAddress  `json:"tag"`
	Values []MetaString `json:"values"`
}

// SequentialMetaValueOfRange selects the members of a sequence group between
// two bounds. A nil bound is open.
type SequentialMetaValueOfRange struct {
	Tag          MetaAddress `json:"tag"`
	Begin        *MetaString `json:"begin,omitempty"`
	End          *MetaString `json:"end,omitempty"`
	IncludeBegin bool        `json:"include_begin"`
	IncludeEnd   bool        `json:"include_end"`
}

// SequentialItemMetaValueToOther selects the members between the member Tag
// points at and the sibling named Other, e.g. series.vol1~vol4.
type SequentialItemMetaValueToOther struct {
	Tag   MetaAddress `json:"tag"`
	Other MetaString  `json:"other"`
}

// SequentialItemMetaValueToDirection selects the member Tag points at and
// every member after it (ascending) or before it (descending).
type SequentialItemMetaValueToDirection struct {
	Tag  MetaAddress `json:"tag"`
	Desc bool        `json:"desc"`
}

func (SingleMetaValue) metaValue()                    {}
func (SimpleMetaValue) metaValue()                    {}
func (SequentialMetaValueOfCollection) metaValue()    {}
func (SequentialMetaValueOfRange) metaValue()         {}
func (SequentialItemMetaValueToOther) metaValue()     {}
func (SequentialItemMetaValueToDirection) metaValue() {}

func (v SingleMetaValue) Address() MetaAddress                    { return MetaAddress{v.Value} }
func (v SimpleMetaValue) Address() MetaAddress                    { return v.Value }
func (v SequentialMetaValueOfCollection) Address() MetaAddress    { return v.Tag }
func (v SequentialMetaValueOfRange) Address() MetaAddress         { return v.Tag }
func (v SequentialItemMetaValueToOther) Address() MetaAddress     { return v.Tag }
func (v SequentialItemMetaValueToDirection) Address() MetaAddress { return v.Tag }

func (v SingleMetaValue) String() string { return v.Value.String() }
func (v SimpleMetaValue) String() string { return v.Value.String() }

func (v SequentialMetaValueOfCollection) String() string {
	parts := make([]string, len(v.Values))
	for i, s := range v.Values {
		parts[i] = s.String()
	}
	return v.Tag.String() + ":{" + strings.Join(parts, ",") + "}"
}

func (v SequentialMetaValueOfRange) String() string {
	var b strings.Builder
	b.WriteString(v.Tag.String())
	b.WriteByte(':')
	if v.IncludeBegin {
		b.WriteByte('[')
	} else {
		b.WriteByte('(')
	}
	if v.Begin != nil {
		b.WriteString(v.Begin.String())
	}
	b.WriteByte(',')
	if v.End != nil {
		b.WriteString(v.End.String())
	}
	if v.IncludeEnd {
		b.WriteByte(']')
	} else {
		b.WriteByte(')')
	}
	return b.String()
}

func (v SequentialItemMetaValueToOther) String() string {
	return v.Tag.String() + "~" + v.Other.String()
}

func (v SequentialItemMetaValueToDirection) String() string {
	if v.Desc {
		return v.Tag.String() + "~-"
	}
	return v.Tag.String() + "~+"
}

// NewCollection builds a SequentialMetaValueOfCollection, dropping repeated
// values while keeping first-occurrence order.
func NewCollection(tag MetaAddress, values []MetaString) SequentialMetaValueOfCollection {
	seen := make(map[MetaString]bool, len(values))
	out := make([]MetaString, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return SequentialMetaValueOfCollection{Tag: tag, Values: out}
}

// MetaType is a kind of meta entity an annotation can apply to.
type MetaType uint8

const (
	MetaTypeAuthor MetaType = 1 << iota
	MetaTypeTopic
	MetaTypeTag
)

func (t MetaType) String() string {
	switch t {
	case MetaTypeAuthor:
		return "author"
	case MetaTypeTopic:
		return "topic"
	case MetaTypeTag:
		return "tag"
	default:
		return "unknown"
	}
}

// MetaTypes is a set of MetaType. The empty set means "any".
type MetaTypes uint8

// AllMetaTypes lists every MetaType in declaration order.
var AllMetaTypes = []MetaType{MetaTypeAuthor, MetaTypeTopic, MetaTypeTag}

// Has reports whether t is in the set.
func (s MetaTypes) Has(t MetaType) bool {
	return uint8(s)&uint8(t) != 0
}

// With returns the set plus t.
func (s MetaTypes) With(t MetaType) MetaTypes {
	return MetaTypes(uint8(s) | uint8(t))
}

// List returns the members in declaration order; the empty set lists all types.
func (s MetaTypes) List() []MetaType {
	if s == 0 {
		return AllMetaTypes
	}
	var out []MetaType
	for _, t := range AllMetaTypes {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s MetaTypes) String() string {
	if s == 0 {
		return "any"
	}
	names := make([]string, 0, 3)
	for _, t := range s.List() {
		names = append(names, t.String())
	}
	return strings.Join(names, "|")
}
