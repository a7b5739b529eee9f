package semantic

import (
	"slices"
	"strings"

	"github.com/roach88/hql/internal/ir"
	"github.com/roach88/hql/internal/queryplan"
)

// DialectID names a registered dialect.
type DialectID string

const (
	DialectIllust         DialectID = "illust"
	DialectAlbum          DialectID = "album"
	DialectAuthorAndTopic DialectID = "author-and-topic"
	DialectAnnotation     DialectID = "annotation"
)

// Dialect describes what a query may say about one kind of entity.
//
// Dialects are immutable values: the registry hands out pointers to
// package-level descriptors and nothing mutates them after init.
type Dialect struct {
	ID     DialectID
	Entity string // base table and alias of the plan

	// Element kinds. MetaTags covers @ # $ and unprefixed meta-tags;
	// SourceTags covers ^.
	MetaTags    bool
	Annotations bool
	SourceTags  bool
	// Names, when set, makes unprefixed words match this column instead of
	// resolving meta-tags.
	Names *queryplan.Column

	// Relations link the entity to authors, topics and tags.
	Relations map[ir.MetaType]Relation
	// AnnotationRelations link the entity to annotations through a meta kind.
	AnnotationRelations map[ir.MetaType]AnnotationRelation
	// DirectAnnotation links the entity to annotations without a meta hop.
	DirectAnnotation *Relation
	// SourceTagRelation holds the entity's source tags, matched by name.
	SourceTagRelation *Relation

	Fields       []*Field
	Orders       []*OrderItem
	DefaultOrder []OrderSpec
}

// Relation is a table linking entity rows to related rows.
type Relation struct {
	Table        string
	EntityColumn string // references the owning row's id
	MetaColumn   string // references the related row, or holds the value
}

// AnnotationRelation is a two-hop path: entity to meta row, then meta row
// to annotation.
type AnnotationRelation struct {
	Via        Relation
	Annotation Relation
}

// FieldKind is the value type of a scalar field.
type FieldKind int

const (
	FieldFlag    FieldKind = iota // bare word, boolean column
	FieldNumber                   // int64
	FieldDate                     // year, month, day or instant
	FieldEnum                     // one of Values, case-insensitive
	FieldPattern                  // string matched like a meta name
)

func (k FieldKind) String() string {
	switch k {
	case FieldFlag:
		return "flag"
	case FieldNumber:
		return "number"
	case FieldDate:
		return "date"
	case FieldEnum:
		return "enum"
	case FieldPattern:
		return "pattern"
	default:
		return "unknown"
	}
}

// Field is a scalar column a query can filter on.
type Field struct {
	Key     string
	Aliases []string
	Kind    FieldKind
	Column  queryplan.Column
	// Join is required before Column can be read. Nil for base columns.
	Join *queryplan.Join
	// Values lists the canonical enum values. Enum fields only.
	Values []string
}

// Matches reports whether name refers to the field.
func (f *Field) Matches(name string) bool {
	return matchesName(name, f.Key, f.Aliases)
}

// OrderItem is a sort key a query can name.
type OrderItem struct {
	Key     string
	Aliases []string
	Column  queryplan.Column
	Join    *queryplan.Join
}

// Matches reports whether name refers to the order item.
func (o *OrderItem) Matches(name string) bool {
	return matchesName(name, o.Key, o.Aliases)
}

// OrderSpec is an order item with a direction.
type OrderSpec struct {
	Item *OrderItem
	Desc bool
	Span ir.Span
}

// orderKeywords introduce an order list: order:-score,+ct.
var orderKeywords = []string{"order", "sort", "o"}

// normalizeName folds case and separators so that create-time, createTime
// and create_time name the same thing.
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r == '-' || r == '_' || r == ' ' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func matchesName(name, key string, aliases []string) bool {
	n := normalizeName(name)
	if n == normalizeName(key) {
		return true
	}
	return slices.ContainsFunc(aliases, func(a string) bool { return normalizeName(a) == n })
}

// Field returns the field name refers to, or nil.
func (d *Dialect) Field(name string) *Field {
	for _, f := range d.Fields {
		if f.Matches(name) {
			return f
		}
	}
	return nil
}

// Order returns the order item name refers to, or nil.
func (d *Dialect) Order(name string) *OrderItem {
	for _, o := range d.Orders {
		if o.Matches(name) {
			return o
		}
	}
	return nil
}

// IsOrderKeyword reports whether name introduces an order list in d.
func (d *Dialect) IsOrderKeyword(name string) bool {
	if len(d.Orders) == 0 {
		return false
	}
	n := normalizeName(name)
	return slices.Contains(orderKeywords, n)
}

// ElementKinds lists the element kinds the dialect accepts. Fields and
// order directives are accepted by every dialect and are not listed.
func (d *Dialect) ElementKinds() []string {
	out := []string{}
	if d.MetaTags {
		out = append(out, "meta-tag")
	}
	if d.Names != nil {
		out = append(out, "name")
	}
	if d.Annotations {
		out = append(out, "annotation")
	}
	if d.SourceTags {
		out = append(out, "source-tag")
	}
	return out
}
