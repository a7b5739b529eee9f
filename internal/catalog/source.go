package catalog

import (
	"context"
)

// Source lists the meta entities of a catalog. The resolver scans these
// lists, so implementations should return them in id order.
type Source interface {
	ListAuthors(ctx context.Context) ([]Author, error)
	ListTopics(ctx context.Context) ([]Topic, error)
	ListTags(ctx context.Context) ([]Tag, error)
	ListAnnotations(ctx context.Context) ([]Annotation, error)
}

// A *Catalog is a Source over its own fixtures.
var _ Source = (*Catalog)(nil)

func (c *Catalog) ListAuthors(context.Context) ([]Author, error) { return c.Authors, nil }

func (c *Catalog) ListTopics(context.Context) ([]Topic, error) { return c.Topics, nil }

func (c *Catalog) ListTags(context.Context) ([]Tag, error) { return c.Tags, nil }

func (c *Catalog) ListAnnotations(context.Context) ([]Annotation, error) { return c.Annotations, nil }
