package translator

import (
	"context"
	"errors"
	"strings"

	"github.com/roach88/hql/internal/ir"
)

// ElementRef is an entity a name resolved to.
type ElementRef struct {
	ID   int64  `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

type (
	ElementTag        = ElementRef
	ElementTopic      = ElementRef
	ElementAuthor     = ElementRef
	ElementAnnotation = ElementRef
)

// ErrUnsupported is returned by a Queryer that cannot resolve a kind of
// value at all. The translator reports it as E401, not as a failure.
var ErrUnsupported = errors.New("not supported by queryer")

// Queryer resolves names to entity ids.
//
// Each lookup returns at most limit entities. Lookups may record warnings
// on c (which may be nil). Any error other than ErrUnsupported means the
// backing store failed and aborts the compile.
type Queryer interface {
	FindTag(ctx context.Context, v ir.MetaValue, limit int, c *ir.Collector) ([]ElementTag, error)
	FindTopic(ctx context.Context, v ir.SimpleMetaValue, limit int, c *ir.Collector) ([]ElementTopic, error)
	FindAuthor(ctx context.Context, v ir.SingleMetaValue, limit int, c *ir.Collector) ([]ElementAuthor, error)
	FindAnnotation(ctx context.Context, name ir.MetaString, types ir.MetaTypes, limit int, c *ir.Collector) ([]ElementAnnotation, error)
}

// Options are the translator's tunables.
type Options struct {
	// QueryLimitOfQueryItems caps the ids one item may resolve to.
	QueryLimitOfQueryItems int `json:"query_limit_of_query_items" yaml:"query_limit_of_query_items"`
	// WarningLimitOfUnionItems warns when one element's alternatives
	// resolve to more ids than this.
	WarningLimitOfUnionItems int `json:"warning_limit_of_union_items" yaml:"warning_limit_of_union_items"`
	// WarningLimitOfIntersectItems warns when the query ANDs more
	// conditions than this.
	WarningLimitOfIntersectItems int `json:"warning_limit_of_intersect_items" yaml:"warning_limit_of_intersect_items"`
}

// DefaultOptions returns the stock limits.
func DefaultOptions() Options {
	return Options{
		QueryLimitOfQueryItems:       20,
		WarningLimitOfUnionItems:     15,
		WarningLimitOfIntersectItems: 8,
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern converts a non-precise value to a substring LIKE pattern:
// * matches any run, ? any one character. Literal % _ and \ are escaped
// with a backslash.
func LikePattern(ms ir.MetaString) string {
	escaped := likeEscaper.Replace(ms.Value)
	escaped = strings.NewReplacer("*", "%", "?", "_").Replace(escaped)
	return "%" + escaped + "%"
}
