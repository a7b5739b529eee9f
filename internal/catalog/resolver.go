package catalog

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/roach88/hql/internal/ir"
	"github.com/roach88/hql/internal/translator"
)

// Resolver answers translator lookups by scanning a Source.
type Resolver struct {
	src     Source
	matcher *Matcher
}

var _ translator.Queryer = (*Resolver)(nil)

// NewResolver returns a resolver over src sharing matcher's pattern cache.
func NewResolver(src Source, matcher *Matcher) *Resolver {
	if matcher == nil {
		matcher = NewMatcher(256)
	}
	return &Resolver{src: src, matcher: matcher}
}

// node is the shape topics and tags share.
type node struct {
	id       int64
	parent   int64
	names    []string
	ordinal  int
	sequence bool
}

type tree struct {
	byID     map[int64]node
	children map[int64][]node
	all      []node
}

func newTree(nodes []node) *tree {
	t := &tree{byID: make(map[int64]node, len(nodes)), children: map[int64][]node{}, all: nodes}
	for _, n := range nodes {
		t.byID[n.id] = n
		t.children[n.parent] = append(t.children[n.parent], n)
	}
	for _, kids := range t.children {
		slices.SortFunc(kids, func(a, b node) int {
			return cmp.Or(cmp.Compare(a.ordinal, b.ordinal), cmp.Compare(a.id, b.id))
		})
	}
	return t
}

// resolve finds the nodes an address names: the last segment matches the
// node, each earlier segment matches the next ancestor up.
func (r *Resolver) resolve(t *tree, addr ir.MetaAddress) []node {
	var out []node
	for _, n := range t.all {
		if !r.matcher.MatchAny(addr.Last(), n.names...) {
			continue
		}
		cur, ok := n, true
		for i := len(addr) - 2; i >= 0 && ok; i-- {
			cur, ok = t.byID[cur.parent]
			ok = ok && r.matcher.MatchAny(addr[i], cur.names...)
		}
		if ok {
			out = append(out, n)
		}
	}
	return out
}

func refs(nodes []node, limit int) []translator.ElementRef {
	seen := map[int64]bool{}
	out := []translator.ElementRef{}
	for _, n := range nodes {
		if seen[n.id] {
			continue
		}
		seen[n.id] = true
		name := ""
		if len(n.names) > 0 {
			name = n.names[0]
		}
		out = append(out, translator.ElementRef{ID: n.id, Name: name})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (r *Resolver) tagTree(ctx context.Context) (*tree, error) {
	tags, err := r.src.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	nodes := make([]node, len(tags))
	for i, t := range tags {
		nodes[i] = node{id: t.ID, parent: t.ParentID, names: append([]string{t.Name}, t.OtherNames...), ordinal: t.Ordinal, sequence: t.Sequence}
	}
	return newTree(nodes), nil
}

// FindAuthor matches author names and other names.
func (r *Resolver) FindAuthor(ctx context.Context, v ir.SingleMetaValue, limit int, _ *ir.Collector) ([]translator.ElementAuthor, error) {
	authors, err := r.src.ListAuthors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	var nodes []node
	for _, a := range authors {
		names := append([]string{a.Name}, a.OtherNames...)
		if r.matcher.MatchAny(v.Value, names...) {
			nodes = append(nodes, node{id: a.ID, names: names})
		}
	}
	return refs(nodes, limit), nil
}

// FindTopic matches topic addresses through the parent chain.
func (r *Resolver) FindTopic(ctx context.Context, v ir.SimpleMetaValue, limit int, _ *ir.Collector) ([]translator.ElementTopic, error) {
	topics, err := r.src.ListTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	nodes := make([]node, len(topics))
	for i, t := range topics {
		nodes[i] = node{id: t.ID, parent: t.ParentID, names: append([]string{t.Name}, t.OtherNames...)}
	}
	return refs(r.resolve(newTree(nodes), v.Value), limit), nil
}

// FindTag resolves every meta value shape. Sequence forms select the
// ordered children of a sequence tag.
func (r *Resolver) FindTag(ctx context.Context, v ir.MetaValue, limit int, c *ir.Collector) ([]translator.ElementTag, error) {
	t, err := r.tagTree(ctx)
	if err != nil {
		return nil, err
	}
	var found []node
	switch mv := v.(type) {
	case ir.SingleMetaValue, ir.SimpleMetaValue:
		found = r.resolve(t, mv.Address())
	case ir.SequentialMetaValueOfCollection:
		for _, value := range mv.Values {
			var members []node
			for _, group := range r.resolve(t, mv.Tag) {
				for _, kid := range t.children[group.id] {
					if r.matcher.MatchAny(value, kid.names...) {
						members = append(members, kid)
					}
				}
			}
			if len(members) == 0 {
				c.Warnf(ir.WarnSequenceMember, ir.Span{}, "%s has no member %s", mv.Tag, value)
			}
			found = append(found, members...)
		}
	case ir.SequentialMetaValueOfRange:
		for _, group := range r.resolve(t, mv.Tag) {
			if group.sequence {
				found = append(found, r.between(t.children[group.id], mv, c)...)
			}
		}
	case ir.SequentialItemMetaValueToOther:
		for _, member := range r.sequenceMembers(t, mv.Tag) {
			siblings := t.children[member.parent]
			from := slices.IndexFunc(siblings, func(n node) bool { return n.id == member.id })
			to := slices.IndexFunc(siblings, func(n node) bool { return r.matcher.MatchAny(mv.Other, n.names...) })
			if to < 0 {
				c.Warnf(ir.WarnSequenceMember, ir.Span{}, "%s has no sibling %s", mv.Tag, mv.Other)
				continue
			}
			if from > to {
				from, to = to, from
			}
			found = append(found, siblings[from:to+1]...)
		}
	case ir.SequentialItemMetaValueToDirection:
		for _, member := range r.sequenceMembers(t, mv.Tag) {
			siblings := t.children[member.parent]
			at := slices.IndexFunc(siblings, func(n node) bool { return n.id == member.id })
			if mv.Desc {
				found = append(found, siblings[:at+1]...)
			} else {
				found = append(found, siblings[at:]...)
			}
		}
	default:
		return nil, fmt.Errorf("find tag: %T: %w", v, translator.ErrUnsupported)
	}
	return refs(found, limit), nil
}

// sequenceMembers resolves addr to tags whose parent is a sequence.
func (r *Resolver) sequenceMembers(t *tree, addr ir.MetaAddress) []node {
	var out []node
	for _, n := range r.resolve(t, addr) {
		if p, ok := t.byID[n.parent]; ok && p.sequence {
			out = append(out, n)
		}
	}
	return out
}

func (r *Resolver) between(kids []node, rng ir.SequentialMetaValueOfRange, c *ir.Collector) []node {
	lo, hi := 0, len(kids)-1
	if rng.Begin != nil {
		i := slices.IndexFunc(kids, func(n node) bool { return r.matcher.MatchAny(*rng.Begin, n.names...) })
		if i < 0 {
			c.Warnf(ir.WarnSequenceMember, ir.Span{}, "%s has no member %s", rng.Tag, *rng.Begin)
			return nil
		}
		lo = i
		if !rng.IncludeBegin {
			lo++
		}
	}
	if rng.End != nil {
		i := slices.IndexFunc(kids, func(n node) bool { return r.matcher.MatchAny(*rng.End, n.names...) })
		if i < 0 {
			c.Warnf(ir.WarnSequenceMember, ir.Span{}, "%s has no member %s", rng.Tag, *rng.End)
			return nil
		}
		hi = i
		if !rng.IncludeEnd {
			hi--
		}
	}
	if lo > hi {
		return nil
	}
	return kids[lo : hi+1]
}

var (
	authorTypes = []string{"AUTHOR", "ARTIST", "STUDIO", "PUBLISH"}
	topicTypes  = []string{"TOPIC", "COPYRIGHT", "WORK", "CHARACTER"}
)

// targets reports whether an annotation may be attached to kind t.
func targets(a Annotation, t ir.MetaType) bool {
	if len(a.Target) == 0 {
		return true
	}
	var accepted []string
	switch t {
	case ir.MetaTypeAuthor:
		accepted = authorTypes
	case ir.MetaTypeTopic:
		accepted = topicTypes
	default:
		accepted = []string{"TAG"}
	}
	return slices.ContainsFunc(a.Target, func(s string) bool { return slices.Contains(accepted, s) })
}

// FindAnnotation matches annotation names, keeping those that can be
// attached to at least one of types.
func (r *Resolver) FindAnnotation(ctx context.Context, name ir.MetaString, types ir.MetaTypes, limit int, _ *ir.Collector) ([]translator.ElementAnnotation, error) {
	annotations, err := r.src.ListAnnotations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	var nodes []node
	for _, a := range annotations {
		if !r.matcher.Match(name, a.Name) {
			continue
		}
		if types != 0 && !slices.ContainsFunc(types.List(), func(t ir.MetaType) bool { return targets(a, t) }) {
			continue
		}
		nodes = append(nodes, node{id: a.ID, names: []string{a.Name}})
	}
	return refs(nodes, limit), nil
}
