package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hql/internal/ir"
	"github.com/roach88/hql/internal/queryplan"
)

func illustPlan(where ...queryplan.Predicate) *queryplan.Plan {
	return &queryplan.Plan{
		Entity: "illust",
		Where:  where,
		Orders: []queryplan.Order{{Field: "orderTime", Column: queryplan.Col("illust", "order_time"), Desc: true}},
	}
}

func TestCompile_SimpleSelect(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(illustPlan(
		queryplan.Compare{Column: queryplan.Col("illust", "score"), Op: queryplan.OpGte, Value: ir.IRInt(5)},
	))
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT illust.id FROM illust AS illust WHERE illust.score >= ? "+
			"ORDER BY illust.order_time COLLATE BINARY DESC, illust.id ASC",
		sql)
	assert.Equal(t, []any{int64(5)}, params)
}

func TestCompile_ValuesAreParameterized(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(illustPlan(
		queryplan.Like{Column: queryplan.Col("illust", "description"), Pattern: "%'; DROP TABLE illust; --%"},
		queryplan.Compare{Column: queryplan.Col("illust", "favorite"), Op: queryplan.OpEq, Value: ir.IRBool(true)},
	))
	require.NoError(t, err)

	assert.NotContains(t, sql, "DROP")
	assert.Contains(t, sql, `illust.description LIKE ? ESCAPE '\'`)
	assert.Equal(t, []any{"%'; DROP TABLE illust; --%", int64(1)}, params)
}

func TestCompile_Exists(t *testing.T) {
	plan := illustPlan(queryplan.Not{Predicate: queryplan.Exists{
		Table: "illust_tag_relation",
		Alias: "r1",
		Local: "illust_id",
		Outer: queryplan.Col("illust", "id"),
		Where: queryplan.In{Column: queryplan.Col("r1", "tag_id"), Values: []ir.IRValue{ir.IRInt(2), ir.IRInt(3)}},
	}})
	sql, params, err := NewSQLCompiler().Compile(plan)
	require.NoError(t, err)

	assert.Contains(t, sql,
		"WHERE NOT (EXISTS (SELECT 1 FROM illust_tag_relation AS r1 WHERE r1.illust_id = illust.id AND r1.tag_id IN (?, ?)))")
	assert.Equal(t, []any{int64(2), int64(3)}, params)
}

func TestCompile_NestedExists(t *testing.T) {
	plan := illustPlan(queryplan.Exists{
		Table: "illust_tag_relation", Alias: "r1", Local: "illust_id", Outer: queryplan.Col("illust", "id"),
		Where: queryplan.Exists{
			Table: "tag_annotation_relation", Alias: "r2", Local: "tag_id", Outer: queryplan.Col("r1", "tag_id"),
			Where: queryplan.In{Column: queryplan.Col("r2", "annotation_id"), Values: []ir.IRValue{ir.IRInt(1)}},
		},
	})
	sql, _, err := NewSQLCompiler().Compile(plan)
	require.NoError(t, err)
	assert.Contains(t, sql, "EXISTS (SELECT 1 FROM tag_annotation_relation AS r2 WHERE r2.tag_id = r1.tag_id AND r2.annotation_id IN (?))")
}

func TestCompile_ConnectivesAndConstants(t *testing.T) {
	tests := []struct {
		name string
		pred queryplan.Predicate
		want string
	}{
		{"true", queryplan.Const{Value: true}, "WHERE 1 = 1 "},
		{"false", queryplan.Const{Value: false}, "WHERE 1 = 0 "},
		{"empty or", queryplan.Or{}, "WHERE 1 = 0 "},
		{
			"or",
			queryplan.Or{Predicates: []queryplan.Predicate{
				queryplan.Compare{Column: queryplan.Col("illust", "score"), Op: queryplan.OpLt, Value: ir.IRInt(2)},
				queryplan.Compare{Column: queryplan.Col("illust", "score"), Op: queryplan.OpGt, Value: ir.IRInt(8)},
			}},
			"WHERE (illust.score < ? OR illust.score > ?) ",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, _, err := NewSQLCompiler().Compile(illustPlan(tt.pred))
			require.NoError(t, err)
			assert.Contains(t, sql, tt.want)
		})
	}
}

func TestCompile_JoinsAndDistinct(t *testing.T) {
	plan := &queryplan.Plan{
		Entity: "illust",
		Joins: []queryplan.Join{
			{Table: "file_record", Alias: "file", Condition: queryplan.ColumnEquals{Left: queryplan.Col("file", "id"), Right: queryplan.Col("illust", "file_id")}},
			{Table: "source_image", Alias: "source", LeftJoin: true, Condition: queryplan.ColumnEquals{Left: queryplan.Col("source", "id"), Right: queryplan.Col("illust", "source_image_id")}},
			{Table: "illust_source_tag", Alias: "s1", Condition: queryplan.ColumnEquals{Left: queryplan.Col("s1", "illust_id"), Right: queryplan.Col("illust", "id")}},
		},
		Where:    []queryplan.Predicate{queryplan.Compare{Column: queryplan.Col("s1", "name"), Op: queryplan.OpEq, Value: ir.IRString("neko")}},
		Orders:   []queryplan.Order{{Field: "score", Column: queryplan.Col("illust", "score")}},
		Distinct: true,
	}
	sql, params, err := NewSQLCompiler().Compile(plan)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT DISTINCT illust.id, illust.score FROM illust AS illust"+
			" INNER JOIN file_record AS file ON file.id = illust.file_id"+
			" LEFT JOIN source_image AS source ON source.id = illust.source_image_id"+
			" INNER JOIN illust_source_tag AS s1 ON s1.illust_id = illust.id"+
			" WHERE s1.name = ?"+
			" ORDER BY illust.score COLLATE BINARY ASC, illust.id ASC",
		sql)
	assert.Equal(t, []any{"neko"}, params)
}

func TestCompile_OrderByIDIsNotRepeated(t *testing.T) {
	plan := &queryplan.Plan{
		Entity: "album",
		Orders: []queryplan.Order{{Field: "id", Column: queryplan.Col("album", "id"), Desc: true}},
	}
	sql, _, err := NewSQLCompiler().Compile(plan)
	require.NoError(t, err)
	assert.Equal(t, "SELECT album.id FROM album AS album ORDER BY album.id COLLATE BINARY DESC", sql)
}

func TestCompile_LimitOffset(t *testing.T) {
	c := &SQLCompiler{Limit: 10, Offset: 20}
	sql, params, err := c.Compile(&queryplan.Plan{Entity: "album"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT album.id FROM album AS album ORDER BY album.id ASC LIMIT ? OFFSET ?", sql)
	assert.Equal(t, []any{int64(10), int64(20)}, params)
}

func TestCompile_Rejects(t *testing.T) {
	_, _, err := NewSQLCompiler().Compile(nil)
	require.Error(t, err)

	_, _, err = NewSQLCompiler().Compile(&queryplan.Plan{})
	require.Error(t, err, "plan without an entity")

	_, _, err = NewSQLCompiler().Compile(illustPlan(queryplan.In{Column: queryplan.Col("illust", "id")}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "use Const{false}")

	_, _, err = NewSQLCompiler().Compile(illustPlan(
		queryplan.Compare{Column: queryplan.Col("illust", "score; --"), Op: queryplan.OpEq, Value: ir.IRInt(1)},
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid identifier")

	_, _, err = NewSQLCompiler().Compile(illustPlan(
		queryplan.Compare{Column: queryplan.Col("illust", "score"), Op: queryplan.OpEq, Value: ir.IRArray{ir.IRInt(1)}},
	))
	require.Error(t, err)
}

func TestIRValueToParam(t *testing.T) {
	tests := []struct {
		in   ir.IRValue
		want any
	}{
		{ir.IRString("a"), "a"},
		{ir.IRInt(-3), int64(-3)},
		{ir.IRBool(false), int64(0)},
	}
	for _, tt := range tests {
		got, err := irValueToParam(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	_, err := irValueToParam(ir.IRObject{})
	assert.Error(t, err)
}
