package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/hql/internal/catalog"
)

// Seed upserts every entity of c in one transaction. Relations of each
// written entity are replaced, not merged. Foreign keys are checked at
// commit, so the catalog may list children before their parents.
func (s *Store) Seed(ctx context.Context, c *catalog.Catalog) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "PRAGMA defer_foreign_keys = ON"); err != nil {
			return err
		}
		for _, a := range c.Authors {
			if err := putAuthor(ctx, tx, a); err != nil {
				return err
			}
		}
		for _, t := range c.Topics {
			if err := putTopic(ctx, tx, t); err != nil {
				return err
			}
		}
		for _, t := range c.Tags {
			if err := putTag(ctx, tx, t); err != nil {
				return err
			}
		}
		for _, a := range c.Annotations {
			if err := putAnnotation(ctx, tx, a); err != nil {
				return err
			}
		}
		for _, i := range c.Illusts {
			if err := putIllust(ctx, tx, i); err != nil {
				return err
			}
		}
		for _, a := range c.Albums {
			if err := putAlbum(ctx, tx, a); err != nil {
				return err
			}
		}
		return refreshCounts(ctx, tx)
	})
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	s.changed(catalog.Kinds...)
	return nil
}

// PutAuthor inserts or replaces an author.
func (s *Store) PutAuthor(ctx context.Context, a catalog.Author) error {
	if err := s.withTx(ctx, func(tx *sql.Tx) error { return putAuthor(ctx, tx, a) }); err != nil {
		return fmt.Errorf("put author %d: %w", a.ID, err)
	}
	s.changed(catalog.KindAuthor)
	return nil
}

// PutTopic inserts or replaces a topic.
func (s *Store) PutTopic(ctx context.Context, t catalog.Topic) error {
	if err := s.withTx(ctx, func(tx *sql.Tx) error { return putTopic(ctx, tx, t) }); err != nil {
		return fmt.Errorf("put topic %d: %w", t.ID, err)
	}
	s.changed(catalog.KindTopic)
	return nil
}

// PutTag inserts or replaces a tag.
func (s *Store) PutTag(ctx context.Context, t catalog.Tag) error {
	if err := s.withTx(ctx, func(tx *sql.Tx) error { return putTag(ctx, tx, t) }); err != nil {
		return fmt.Errorf("put tag %d: %w", t.ID, err)
	}
	s.changed(catalog.KindTag)
	return nil
}

// PutAnnotation inserts or replaces an annotation and its relations.
func (s *Store) PutAnnotation(ctx context.Context, a catalog.Annotation) error {
	if err := s.withTx(ctx, func(tx *sql.Tx) error { return putAnnotation(ctx, tx, a) }); err != nil {
		return fmt.Errorf("put annotation %d: %w", a.ID, err)
	}
	s.changed(catalog.KindAnnotation)
	return nil
}

// PutIllust inserts or replaces an illust and its relations. Name lookups
// do not depend on illusts, so no change is signalled.
func (s *Store) PutIllust(ctx context.Context, i catalog.Illust) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := putIllust(ctx, tx, i); err != nil {
			return err
		}
		return refreshCounts(ctx, tx)
	})
	if err != nil {
		return fmt.Errorf("put illust %d: %w", i.ID, err)
	}
	return nil
}

// PutAlbum inserts or replaces an album and its relations.
func (s *Store) PutAlbum(ctx context.Context, a catalog.Album) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := putAlbum(ctx, tx, a); err != nil {
			return err
		}
		return refreshCounts(ctx, tx)
	})
	if err != nil {
		return fmt.Errorf("put album %d: %w", a.ID, err)
	}
	return nil
}

// Delete removes the entity of kind with id. Relations go with it.
// Deleting a missing entity is not an error.
func (s *Store) Delete(ctx context.Context, kind catalog.Kind, id int64) error {
	var query string
	args := []any{id}
	switch kind {
	case catalog.KindAuthor, catalog.KindTopic:
		query = "DELETE FROM meta WHERE id = ? AND kind = ?"
		args = append(args, string(kind))
	case catalog.KindTag:
		query = "DELETE FROM tag WHERE id = ?"
	case catalog.KindAnnotation:
		query = "DELETE FROM annotation WHERE id = ?"
	default:
		return fmt.Errorf("delete: unknown kind %q", kind)
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
		return refreshCounts(ctx, tx)
	})
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", kind, id, err)
	}
	s.changed(kind)
	return nil
}

func putMeta(ctx context.Context, tx *sql.Tx, kind catalog.Kind, id int64, name string, otherNames []string, parent int64, metaType string, score int64, favorite bool) error {
	names, err := marshalNames(otherNames)
	if err != nil {
		return err
	}
	if metaType == "" {
		metaType = "UNKNOWN"
	}
	// The WHERE clause keeps an upsert from turning an author into a topic.
	res, err := tx.ExecContext(ctx, `
		INSERT INTO meta (id, kind, name, other_names, parent_id, type, score, favorite)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			other_names = excluded.other_names,
			parent_id = excluded.parent_id,
			type = excluded.type,
			score = excluded.score,
			favorite = excluded.favorite
		WHERE meta.kind = excluded.kind
	`, id, string(kind), name, names, nullInt(parent), metaType, nullInt(score), favorite)
	if err != nil {
		return fmt.Errorf("write %s: %w", kind, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("write %s: id %d belongs to another kind", kind, id)
	}
	return nil
}

func putAuthor(ctx context.Context, tx *sql.Tx, a catalog.Author) error {
	return putMeta(ctx, tx, catalog.KindAuthor, a.ID, a.Name, a.OtherNames, 0, a.Type, a.Score, a.Favorite)
}

func putTopic(ctx context.Context, tx *sql.Tx, t catalog.Topic) error {
	return putMeta(ctx, tx, catalog.KindTopic, t.ID, t.Name, t.OtherNames, t.ParentID, t.Type, t.Score, t.Favorite)
}

func putTag(ctx context.Context, tx *sql.Tx, t catalog.Tag) error {
	names, err := marshalNames(t.OtherNames)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO tag (id, name, other_names, parent_id, ordinal, sequence)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			other_names = excluded.other_names,
			parent_id = excluded.parent_id,
			ordinal = excluded.ordinal,
			sequence = excluded.sequence
	`, t.ID, t.Name, names, nullInt(t.ParentID), t.Ordinal, t.Sequence)
	if err != nil {
		return fmt.Errorf("write tag: %w", err)
	}
	return nil
}

func putAnnotation(ctx context.Context, tx *sql.Tx, a catalog.Annotation) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO annotation (id, name, target, can_be_exported)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			target = excluded.target,
			can_be_exported = excluded.can_be_exported
	`, a.ID, a.Name, joinTargets(a.Target), a.CanBeExported)
	if err != nil {
		return fmt.Errorf("write annotation: %w", err)
	}
	for _, rel := range []struct {
		table, column string
		ids           []int64
	}{
		{"author_annotation_relation", "author_id", a.Authors},
		{"topic_annotation_relation", "topic_id", a.Topics},
		{"tag_annotation_relation", "tag_id", a.Tags},
	} {
		if err := replaceRelation(ctx, tx, rel.table, "annotation_id", a.ID, rel.column, rel.ids); err != nil {
			return err
		}
	}
	return nil
}

func putIllust(ctx context.Context, tx *sql.Tx, i catalog.Illust) error {
	created, err := normalizeTime(i.CreateTime)
	if err != nil {
		return err
	}
	if created == "" {
		return fmt.Errorf("write illust: create_time is required")
	}
	partition, updated, ordered := created[:10]+" 00:00:00", created, created
	for _, tm := range []struct {
		in  string
		out *string
	}{{i.PartitionTime, &partition}, {i.UpdateTime, &updated}, {i.OrderTime, &ordered}} {
		v, err := normalizeTime(tm.in)
		if err != nil {
			return err
		}
		if v != "" {
			*tm.out = v
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO file_record (id, extension) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET extension = excluded.extension
	`, i.ID, i.Extension); err != nil {
		return fmt.Errorf("write file record: %w", err)
	}

	var sourceImage sql.NullInt64
	if i.Site != "" {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO source_image (id, site, source_id) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET site = excluded.site, source_id = excluded.source_id
		`, i.ID, i.Site, nullInt(i.SourceID)); err != nil {
			return fmt.Errorf("write source image: %w", err)
		}
		sourceImage = sql.NullInt64{Int64: i.ID, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO illust (id, score, favorite, description, partition_time, create_time, update_time, order_time, file_id, source_image_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			score = excluded.score,
			favorite = excluded.favorite,
			description = excluded.description,
			partition_time = excluded.partition_time,
			create_time = excluded.create_time,
			update_time = excluded.update_time,
			order_time = excluded.order_time,
			file_id = excluded.file_id,
			source_image_id = excluded.source_image_id
	`, i.ID, nullInt(i.Score), i.Favorite, i.Description, partition, created, updated, ordered, i.ID, sourceImage)
	if err != nil {
		return fmt.Errorf("write illust: %w", err)
	}
	if !sourceImage.Valid {
		if _, err := tx.ExecContext(ctx, "DELETE FROM source_image WHERE id = ?", i.ID); err != nil {
			return fmt.Errorf("write source image: %w", err)
		}
	}

	if err := replaceMetaRelations(ctx, tx, "illust", i.ID, i.Authors, i.Topics, i.Tags); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM illust_source_tag WHERE illust_id = ?", i.ID); err != nil {
		return fmt.Errorf("write source tags: %w", err)
	}
	for _, name := range i.SourceTags {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO illust_source_tag (illust_id, name) VALUES (?, ?)
			ON CONFLICT DO NOTHING
		`, i.ID, name); err != nil {
			return fmt.Errorf("write source tags: %w", err)
		}
	}
	return nil
}

func putAlbum(ctx context.Context, tx *sql.Tx, a catalog.Album) error {
	created, err := normalizeTime(a.CreateTime)
	if err != nil {
		return err
	}
	if created == "" {
		return fmt.Errorf("write album: create_time is required")
	}
	updated, err := normalizeTime(a.UpdateTime)
	if err != nil {
		return err
	}
	if updated == "" {
		updated = created
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO album (id, title, description, score, favorite, create_time, update_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			score = excluded.score,
			favorite = excluded.favorite,
			create_time = excluded.create_time,
			update_time = excluded.update_time
	`, a.ID, a.Title, a.Description, nullInt(a.Score), a.Favorite, created, updated)
	if err != nil {
		return fmt.Errorf("write album: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM album_image WHERE album_id = ?", a.ID); err != nil {
		return fmt.Errorf("write album images: %w", err)
	}
	for n, illust := range a.Images {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO album_image (album_id, illust_id, ordinal) VALUES (?, ?, ?)
			ON CONFLICT DO NOTHING
		`, a.ID, illust, n); err != nil {
			return fmt.Errorf("write album images: %w", err)
		}
	}
	return replaceMetaRelations(ctx, tx, "album", a.ID, a.Authors, a.Topics, a.Tags)
}

func replaceMetaRelations(ctx context.Context, tx *sql.Tx, entity string, id int64, authors, topics, tags []int64) error {
	for _, rel := range []struct {
		column string
		ids    []int64
	}{{"author_id", authors}, {"topic_id", topics}, {"tag_id", tags}} {
		table := entity + "_" + rel.column[:len(rel.column)-3] + "_relation"
		if err := replaceRelation(ctx, tx, table, entity+"_id", id, rel.column, rel.ids); err != nil {
			return err
		}
	}
	return nil
}

// replaceRelation sets the rows of table owned by (ownerColumn = owner) to
// exactly ids. Table and column names are compile-time constants.
func replaceRelation(ctx context.Context, tx *sql.Tx, table, ownerColumn string, owner int64, column string, ids []int64) error {
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, ownerColumn), owner); err != nil {
		return fmt.Errorf("write %s: %w", table, err)
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (?, ?) ON CONFLICT DO NOTHING", table, ownerColumn, column)
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, insert, owner, id); err != nil {
			return fmt.Errorf("write %s: %w", table, err)
		}
	}
	return nil
}

// refreshCounts recomputes the cached image counts of authors, topics and
// albums.
func refreshCounts(ctx context.Context, tx *sql.Tx) error {
	for _, stmt := range []string{
		`UPDATE meta SET cached_count =
			(SELECT COUNT(*) FROM illust_author_relation WHERE author_id = meta.id) +
			(SELECT COUNT(*) FROM illust_topic_relation WHERE topic_id = meta.id)`,
		`UPDATE album SET cached_count =
			(SELECT COUNT(*) FROM album_image WHERE album_id = album.id)`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("refresh counts: %w", err)
		}
	}
	return nil
}
