package semantic

import (
	"sort"

	"github.com/roach88/hql/internal/ir"
	"github.com/roach88/hql/internal/queryplan"
)

func field(key string, kind FieldKind, col queryplan.Column, aliases ...string) *Field {
	return &Field{Key: key, Kind: kind, Column: col, Aliases: aliases}
}

func order(key string, col queryplan.Column, aliases ...string) *OrderItem {
	return &OrderItem{Key: key, Column: col, Aliases: aliases}
}

func metaRelations(entity string) map[ir.MetaType]Relation {
	return map[ir.MetaType]Relation{
		ir.MetaTypeAuthor: {Table: entity + "_author_relation", EntityColumn: entity + "_id", MetaColumn: "author_id"},
		ir.MetaTypeTopic:  {Table: entity + "_topic_relation", EntityColumn: entity + "_id", MetaColumn: "topic_id"},
		ir.MetaTypeTag:    {Table: entity + "_tag_relation", EntityColumn: entity + "_id", MetaColumn: "tag_id"},
	}
}

func annotationRelations(entity string) map[ir.MetaType]AnnotationRelation {
	rel := metaRelations(entity)
	return map[ir.MetaType]AnnotationRelation{
		ir.MetaTypeAuthor: {
			Via:        rel[ir.MetaTypeAuthor],
			Annotation: Relation{Table: "author_annotation_relation", EntityColumn: "author_id", MetaColumn: "annotation_id"},
		},
		ir.MetaTypeTopic: {
			Via:        rel[ir.MetaTypeTopic],
			Annotation: Relation{Table: "topic_annotation_relation", EntityColumn: "topic_id", MetaColumn: "annotation_id"},
		},
		ir.MetaTypeTag: {
			Via:        rel[ir.MetaTypeTag],
			Annotation: Relation{Table: "tag_annotation_relation", EntityColumn: "tag_id", MetaColumn: "annotation_id"},
		},
	}
}

var illustDialect = func() *Dialect {
	c := func(name string) queryplan.Column { return queryplan.Col("illust", name) }
	file := &queryplan.Join{
		Table: "file_record", Alias: "file",
		Condition: queryplan.ColumnEquals{Left: queryplan.Col("file", "id"), Right: c("file_id")},
	}
	source := &queryplan.Join{
		Table: "source_image", Alias: "source", LeftJoin: true,
		Condition: queryplan.ColumnEquals{Left: queryplan.Col("source", "id"), Right: c("source_image_id")},
	}

	extension := field("extension", FieldPattern, queryplan.Col("file", "extension"), "ext")
	extension.Join = file
	site := field("source", FieldPattern, queryplan.Col("source", "site"), "site")
	site.Join = source
	sourceID := field("sourceId", FieldNumber, queryplan.Col("source", "source_id"), "pid")
	sourceID.Join = source

	orderTime := order("orderTime", c("order_time"), "ot", "time")
	return &Dialect{
		ID:                  DialectIllust,
		Entity:              "illust",
		MetaTags:            true,
		Annotations:         true,
		SourceTags:          true,
		Relations:           metaRelations("illust"),
		AnnotationRelations: annotationRelations("illust"),
		SourceTagRelation:   &Relation{Table: "illust_source_tag", EntityColumn: "illust_id", MetaColumn: "name"},
		Fields: []*Field{
			field("id", FieldNumber, c("id")),
			field("score", FieldNumber, c("score")),
			field("favorite", FieldFlag, c("favorite"), "fav"),
			field("partition", FieldDate, c("partition_time"), "pt"),
			field("createTime", FieldDate, c("create_time"), "create", "ct"),
			field("updateTime", FieldDate, c("update_time"), "update", "ut"),
			field("orderTime", FieldDate, c("order_time"), "ot", "time"),
			field("description", FieldPattern, c("description")),
			extension,
			site,
			sourceID,
		},
		Orders: []*OrderItem{
			order("id", c("id")),
			order("score", c("score")),
			order("partition", c("partition_time"), "pt"),
			order("createTime", c("create_time"), "create", "ct"),
			order("updateTime", c("update_time"), "update", "ut"),
			orderTime,
		},
		DefaultOrder: []OrderSpec{{Item: orderTime, Desc: true}},
	}
}()

var albumDialect = func() *Dialect {
	c := func(name string) queryplan.Column { return queryplan.Col("album", name) }
	createTime := order("createTime", c("create_time"), "create", "ct")
	return &Dialect{
		ID:                  DialectAlbum,
		Entity:              "album",
		MetaTags:            true,
		Annotations:         true,
		Relations:           metaRelations("album"),
		AnnotationRelations: annotationRelations("album"),
		Fields: []*Field{
			field("id", FieldNumber, c("id")),
			field("score", FieldNumber, c("score")),
			field("favorite", FieldFlag, c("favorite"), "fav"),
			field("title", FieldPattern, c("title")),
			field("description", FieldPattern, c("description")),
			field("imageCount", FieldNumber, c("cached_count"), "count", "images"),
			field("createTime", FieldDate, c("create_time"), "create", "ct"),
			field("updateTime", FieldDate, c("update_time"), "update", "ut"),
		},
		Orders: []*OrderItem{
			order("id", c("id")),
			order("score", c("score")),
			order("imageCount", c("cached_count"), "count", "images"),
			createTime,
			order("updateTime", c("update_time"), "update", "ut"),
		},
		DefaultOrder: []OrderSpec{{Item: createTime, Desc: true}},
	}
}()

var authorAndTopicDialect = func() *Dialect {
	c := func(name string) queryplan.Column { return queryplan.Col("meta", name) }
	name := c("name")
	metaType := field("type", FieldEnum, c("type"))
	metaType.Values = []string{"ARTIST", "STUDIO", "PUBLISH", "COPYRIGHT", "WORK", "CHARACTER", "UNKNOWN"}
	id := order("id", c("id"))
	return &Dialect{
		ID:               DialectAuthorAndTopic,
		Entity:           "meta",
		Annotations:      true,
		Names:            &name,
		DirectAnnotation: &Relation{Table: "meta_annotation_relation", EntityColumn: "meta_id", MetaColumn: "annotation_id"},
		Fields: []*Field{
			field("favorite", FieldFlag, c("favorite"), "fav"),
			field("score", FieldNumber, c("score")),
			field("count", FieldNumber, c("cached_count"), "imageCount"),
			metaType,
		},
		Orders: []*OrderItem{
			id,
			order("name", c("name")),
			order("score", c("score")),
			order("count", c("cached_count"), "imageCount"),
			order("createTime", c("create_time"), "create", "ct"),
			order("updateTime", c("update_time"), "update", "ut"),
		},
		DefaultOrder: []OrderSpec{{Item: id}},
	}
}()

var annotationDialect = func() *Dialect {
	c := func(name string) queryplan.Column { return queryplan.Col("annotation", name) }
	name := c("name")
	target := field("target", FieldEnum, c("target"))
	target.Values = []string{"TAG", "AUTHOR", "TOPIC", "ARTIST", "STUDIO", "PUBLISH", "COPYRIGHT", "WORK", "CHARACTER"}
	createTime := order("createTime", c("create_time"), "create", "ct")
	return &Dialect{
		ID:     DialectAnnotation,
		Entity: "annotation",
		Names:  &name,
		Fields: []*Field{
			field("canBeExported", FieldFlag, c("can_be_exported"), "exported"),
			target,
			field("createTime", FieldDate, c("create_time"), "create", "ct"),
			field("updateTime", FieldDate, c("update_time"), "update", "ut"),
		},
		Orders: []*OrderItem{
			createTime,
			order("updateTime", c("update_time"), "update", "ut"),
		},
		DefaultOrder: []OrderSpec{{Item: createTime}},
	}
}()

var registry = map[DialectID]*Dialect{
	DialectIllust:         illustDialect,
	DialectAlbum:          albumDialect,
	DialectAuthorAndTopic: authorAndTopicDialect,
	DialectAnnotation:     annotationDialect,
}

// Lookup returns the registered dialect for id.
func Lookup(id DialectID) (*Dialect, bool) {
	d, ok := registry[id]
	return d, ok
}

// Dialects lists every registered dialect sorted by id.
func Dialects() []*Dialect {
	out := make([]*Dialect, 0, len(registry))
	for _, d := range registry {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// fieldOwners finds the dialects declaring a field called name. Used to
// tell "no such field here" apart from "not a field at all".
func fieldOwners(name string) []DialectID {
	var out []DialectID
	for _, d := range Dialects() {
		if d.Field(name) != nil {
			out = append(out, d.ID)
		}
	}
	return out
}
