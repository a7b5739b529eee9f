package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Kind names a kind of resolvable entity.
type Kind string

const (
	KindAuthor     Kind = "author"
	KindTopic      Kind = "topic"
	KindTag        Kind = "tag"
	KindAnnotation Kind = "annotation"
)

// Kinds lists every Kind.
var Kinds = []Kind{KindAuthor, KindTopic, KindTag, KindAnnotation}

// Author is a flat named entity.
type Author struct {
	ID         int64    `yaml:"id" json:"id"`
	Name       string   `yaml:"name" json:"name"`
	OtherNames []string `yaml:"other_names,omitempty" json:"other_names,omitempty"`
	Type       string   `yaml:"type,omitempty" json:"type,omitempty"`
	Score      int64    `yaml:"score,omitempty" json:"score,omitempty"`
	Favorite   bool     `yaml:"favorite,omitempty" json:"favorite,omitempty"`
}

// Topic is a hierarchical named entity.
type Topic struct {
	ID         int64    `yaml:"id" json:"id"`
	Name       string   `yaml:"name" json:"name"`
	OtherNames []string `yaml:"other_names,omitempty" json:"other_names,omitempty"`
	ParentID   int64    `yaml:"parent_id,omitempty" json:"parent_id,omitempty"`
	Type       string   `yaml:"type,omitempty" json:"type,omitempty"`
	Score      int64    `yaml:"score,omitempty" json:"score,omitempty"`
	Favorite   bool     `yaml:"favorite,omitempty" json:"favorite,omitempty"`
}

// Tag is a hierarchical named entity. The children of a Sequence tag are
// ordered by Ordinal and can be addressed by range.
type Tag struct {
	ID         int64    `yaml:"id" json:"id"`
	Name       string   `yaml:"name" json:"name"`
	OtherNames []string `yaml:"other_names,omitempty" json:"other_names,omitempty"`
	ParentID   int64    `yaml:"parent_id,omitempty" json:"parent_id,omitempty"`
	Ordinal    int      `yaml:"ordinal,omitempty" json:"ordinal,omitempty"`
	Sequence   bool     `yaml:"sequence,omitempty" json:"sequence,omitempty"`
}

// Annotation labels authors, topics or tags. Target lists what it may be
// attached to: TAG, AUTHOR, TOPIC or a specific author or topic type.
type Annotation struct {
	ID            int64    `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	Target        []string `yaml:"target,omitempty" json:"target,omitempty"`
	CanBeExported bool     `yaml:"can_be_exported,omitempty" json:"can_be_exported,omitempty"`
	Authors       []int64  `yaml:"authors,omitempty" json:"authors,omitempty"`
	Topics        []int64  `yaml:"topics,omitempty" json:"topics,omitempty"`
	Tags          []int64  `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// Illust is a searchable image.
type Illust struct {
	ID            int64    `yaml:"id" json:"id"`
	Score         int64    `yaml:"score,omitempty" json:"score,omitempty"`
	Favorite      bool     `yaml:"favorite,omitempty" json:"favorite,omitempty"`
	Description   string   `yaml:"description,omitempty" json:"description,omitempty"`
	PartitionTime string   `yaml:"partition_time" json:"partition_time"`
	CreateTime    string   `yaml:"create_time" json:"create_time"`
	UpdateTime    string   `yaml:"update_time,omitempty" json:"update_time,omitempty"`
	OrderTime     string   `yaml:"order_time,omitempty" json:"order_time,omitempty"`
	Extension     string   `yaml:"extension,omitempty" json:"extension,omitempty"`
	Site          string   `yaml:"site,omitempty" json:"site,omitempty"`
	SourceID      int64    `yaml:"source_id,omitempty" json:"source_id,omitempty"`
	Authors       []int64  `yaml:"authors,omitempty" json:"authors,omitempty"`
	Topics        []int64  `yaml:"topics,omitempty" json:"topics,omitempty"`
	Tags          []int64  `yaml:"tags,omitempty" json:"tags,omitempty"`
	SourceTags    []string `yaml:"source_tags,omitempty" json:"source_tags,omitempty"`
}

// Album is a named collection of illusts.
type Album struct {
	ID          int64   `yaml:"id" json:"id"`
	Title       string  `yaml:"title" json:"title"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
	Score       int64   `yaml:"score,omitempty" json:"score,omitempty"`
	Favorite    bool    `yaml:"favorite,omitempty" json:"favorite,omitempty"`
	CreateTime  string  `yaml:"create_time" json:"create_time"`
	UpdateTime  string  `yaml:"update_time,omitempty" json:"update_time,omitempty"`
	Images      []int64 `yaml:"images,omitempty" json:"images,omitempty"`
	Authors     []int64 `yaml:"authors,omitempty" json:"authors,omitempty"`
	Topics      []int64 `yaml:"topics,omitempty" json:"topics,omitempty"`
	Tags        []int64 `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// Catalog is a complete fixture: the meta entities names resolve to and
// the illusts and albums a plan is run against.
type Catalog struct {
	Authors     []Author     `yaml:"authors,omitempty"`
	Topics      []Topic      `yaml:"topics,omitempty"`
	Tags        []Tag        `yaml:"tags,omitempty"`
	Annotations []Annotation `yaml:"annotations,omitempty"`
	Illusts     []Illust     `yaml:"illusts,omitempty"`
	Albums      []Album      `yaml:"albums,omitempty"`
}

// Load reads a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a catalog. Unknown keys are errors.
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var c Catalog
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks ids are unique per kind and that author and topic ids
// are disjoint. Every parent and relation must name an existing entity.
func (c *Catalog) Validate() error {
	var errs []error
	unique := func(kind string, ids []int64) map[int64]bool {
		seen := make(map[int64]bool, len(ids))
		for _, id := range ids {
			if id <= 0 {
				errs = append(errs, fmt.Errorf("%s id %d must be positive", kind, id))
			}
			if seen[id] {
				errs = append(errs, fmt.Errorf("duplicate %s id %d", kind, id))
			}
			seen[id] = true
		}
		return seen
	}
	authors := unique("author", collectIDs(c.Authors, func(a Author) int64 { return a.ID }))
	topics := unique("topic", collectIDs(c.Topics, func(t Topic) int64 { return t.ID }))
	tags := unique("tag", collectIDs(c.Tags, func(t Tag) int64 { return t.ID }))
	unique("annotation", collectIDs(c.Annotations, func(a Annotation) int64 { return a.ID }))
	illusts := unique("illust", collectIDs(c.Illusts, func(i Illust) int64 { return i.ID }))
	unique("album", collectIDs(c.Albums, func(a Album) int64 { return a.ID }))

	for _, t := range c.Topics {
		// Authors and topics share one id space in the store.
		if authors[t.ID] {
			errs = append(errs, fmt.Errorf("author and topic share id %d", t.ID))
		}
		if t.ParentID != 0 && !topics[t.ParentID] {
			errs = append(errs, fmt.Errorf("topic %d: unknown parent %d", t.ID, t.ParentID))
		}
	}
	for _, t := range c.Tags {
		if t.ParentID != 0 && !tags[t.ParentID] {
			errs = append(errs, fmt.Errorf("tag %d: unknown parent %d", t.ID, t.ParentID))
		}
	}
	refs := func(owner string, id int64, kind string, ids []int64, known map[int64]bool) {
		for _, ref := range ids {
			if !known[ref] {
				errs = append(errs, fmt.Errorf("%s %d: unknown %s %d", owner, id, kind, ref))
			}
		}
	}
	for _, a := range c.Annotations {
		refs("annotation", a.ID, "author", a.Authors, authors)
		refs("annotation", a.ID, "topic", a.Topics, topics)
		refs("annotation", a.ID, "tag", a.Tags, tags)
	}
	for _, i := range c.Illusts {
		refs("illust", i.ID, "author", i.Authors, authors)
		refs("illust", i.ID, "topic", i.Topics, topics)
		refs("illust", i.ID, "tag", i.Tags, tags)
	}
	for _, a := range c.Albums {
		refs("album", a.ID, "illust", a.Images, illusts)
		refs("album", a.ID, "author", a.Authors, authors)
		refs("album", a.ID, "topic", a.Topics, topics)
		refs("album", a.ID, "tag", a.Tags, tags)
	}
	return errors.Join(errs...)
}

func collectIDs[T any](items []T, id func(T) int64) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = id(it)
	}
	return out
}
