package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/hql/internal/catalog"
	"github.com/roach88/hql/internal/queryplan"
	"github.com/roach88/hql/internal/querysql"
)

// The store is a Source: name lookups scan it directly.
var _ catalog.Source = (*Store)(nil)

// ListAuthors returns every author ordered by id.
// Returns an empty slice (not nil) when there are none.
func (s *Store) ListAuthors(ctx context.Context) ([]catalog.Author, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, other_names, type, score, favorite
		FROM meta
		WHERE kind = 'author'
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query authors: %w", err)
	}
	defer rows.Close()

	authors := []catalog.Author{}
	for rows.Next() {
		var (
			a     catalog.Author
			names string
			score sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &a.Name, &names, &a.Type, &score, &a.Favorite); err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		if a.OtherNames, err = unmarshalNames(names); err != nil {
			return nil, fmt.Errorf("author %d: %w", a.ID, err)
		}
		a.Score = score.Int64
		authors = append(authors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate authors: %w", err)
	}
	return authors, nil
}

// ListTopics returns every topic ordered by id.
func (s *Store) ListTopics(ctx context.Context) ([]catalog.Topic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, other_names, parent_id, type, score, favorite
		FROM meta
		WHERE kind = 'topic'
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	defer rows.Close()

	topics := []catalog.Topic{}
	for rows.Next() {
		var (
			t      catalog.Topic
			names  string
			parent sql.NullInt64
			score  sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.Name, &names, &parent, &t.Type, &score, &t.Favorite); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		if t.OtherNames, err = unmarshalNames(names); err != nil {
			return nil, fmt.Errorf("topic %d: %w", t.ID, err)
		}
		t.ParentID, t.Score = parent.Int64, score.Int64
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topics: %w", err)
	}
	return topics, nil
}

// ListTags returns every tag ordered by id.
func (s *Store) ListTags(ctx context.Context) ([]catalog.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, other_names, parent_id, ordinal, sequence
		FROM tag
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	tags := []catalog.Tag{}
	for rows.Next() {
		var (
			t      catalog.Tag
			names  string
			parent sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.Name, &names, &parent, &t.Ordinal, &t.Sequence); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		if t.OtherNames, err = unmarshalNames(names); err != nil {
			return nil, fmt.Errorf("tag %d: %w", t.ID, err)
		}
		t.ParentID = parent.Int64
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return tags, nil
}

// ListAnnotations returns every annotation with its relations, ordered by id.
func (s *Store) ListAnnotations(ctx context.Context) ([]catalog.Annotation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, target, can_be_exported
		FROM annotation
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query annotations: %w", err)
	}
	defer rows.Close()

	annotations := []catalog.Annotation{}
	index := map[int64]int{}
	for rows.Next() {
		var (
			a      catalog.Annotation
			target string
		)
		if err := rows.Scan(&a.ID, &a.Name, &target, &a.CanBeExported); err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		a.Target = splitTargets(target)
		index[a.ID] = len(annotations)
		annotations = append(annotations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate annotations: %w", err)
	}

	for _, rel := range []struct {
		table, column string
		field         func(*catalog.Annotation) *[]int64
	}{
		{"author_annotation_relation", "author_id", func(a *catalog.Annotation) *[]int64 { return &a.Authors }},
		{"topic_annotation_relation", "topic_id", func(a *catalog.Annotation) *[]int64 { return &a.Topics }},
		{"tag_annotation_relation", "tag_id", func(a *catalog.Annotation) *[]int64 { return &a.Tags }},
	} {
		err := s.scanPairs(ctx, fmt.Sprintf(
			"SELECT annotation_id, %s FROM %s ORDER BY annotation_id ASC, %s ASC", rel.column, rel.table, rel.column,
		), func(owner, id int64) {
			if i, ok := index[owner]; ok {
				ids := rel.field(&annotations[i])
				*ids = append(*ids, id)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", rel.table, err)
		}
	}
	return annotations, nil
}

func (s *Store) scanPairs(ctx context.Context, query string, fn func(a, b int64)) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var a, b int64
		if err := rows.Scan(&a, &b); err != nil {
			return err
		}
		fn(a, b)
	}
	return rows.Err()
}

// Page selects a window of search results. A zero Limit returns every row.
type Page struct {
	Limit  int
	Offset int
}

// Search runs plan and returns the ids of matching rows of the plan's
// entity, in plan order.
func (s *Store) Search(ctx context.Context, plan *queryplan.Plan, page Page) ([]int64, error) {
	c := &querysql.SQLCompiler{Limit: page.Limit, Offset: page.Offset}
	query, params, err := c.Compile(plan)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	dest := make([]any, len(cols))
	for i := range dest {
		dest[i] = new(any)
	}

	ids := []int64{}
	for rows.Next() {
		var id int64
		dest[0] = &id
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("search: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search: iterate: %w", err)
	}
	return ids, nil
}
