package translator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hql/internal/grammar"
	"github.com/roach88/hql/internal/ir"
	"github.com/roach88/hql/internal/lexer"
	"github.com/roach88/hql/internal/queryplan"
	"github.com/roach88/hql/internal/semantic"
)

// fakeQueryer answers from fixed tables keyed by the value's last segment.
type fakeQueryer struct {
	authors     map[string][]ElementRef
	topics      map[string][]ElementRef
	tags        map[string][]ElementRef
	annotations map[string][]ElementRef
	err         error
	calls       []string
}

func (f *fakeQueryer) find(kind string, table map[string][]ElementRef, key string, limit int) ([]ElementRef, error) {
	f.calls = append(f.calls, kind+":"+key)
	if f.err != nil {
		return nil, f.err
	}
	refs := table[key]
	if len(refs) > limit {
		refs = refs[:limit]
	}
	return refs, nil
}

func (f *fakeQueryer) FindTag(_ context.Context, v ir.MetaValue, limit int, _ *ir.Collector) ([]ElementTag, error) {
	return f.find("tag", f.tags, v.Address().Last().Value, limit)
}

func (f *fakeQueryer) FindTopic(_ context.Context, v ir.SimpleMetaValue, limit int, _ *ir.Collector) ([]ElementTopic, error) {
	return f.find("topic", f.topics, v.Value.Last().Value, limit)
}

func (f *fakeQueryer) FindAuthor(_ context.Context, v ir.SingleMetaValue, limit int, _ *ir.Collector) ([]ElementAuthor, error) {
	return f.find("author", f.authors, v.Value.Value, limit)
}

func (f *fakeQueryer) FindAnnotation(_ context.Context, name ir.MetaString, _ ir.MetaTypes, limit int, c *ir.Collector) ([]ElementAnnotation, error) {
	if name.Value == "legacy" {
		c.Warnf(ir.WarnSequenceMember, ir.Span{}, "annotation %s is deprecated", name)
	}
	return f.find("annotation", f.annotations, name.Value, limit)
}

func newFake() *fakeQueryer {
	return &fakeQueryer{
		authors:     map[string][]ElementRef{"alice": {{ID: 7, Name: "alice"}}},
		topics:      map[string][]ElementRef{"vacation": {{ID: 3, Name: "vacation"}}},
		tags:        map[string][]ElementRef{"alice": {{ID: 11, Name: "alice"}}, "cat": {{ID: 1, Name: "cat"}, {ID: 2, Name: "cats"}}},
		annotations: map[string][]ElementRef{"cute": {{ID: 40, Name: "cute"}}, "legacy": {{ID: 41, Name: "legacy"}}},
	}
}

func translate(t *testing.T, input string, id semantic.DialectID, q Queryer, opts Options) ir.Analysis[*queryplan.Plan] {
	t.Helper()
	lexed := lexer.Lex(input, lexer.Options{})
	require.False(t, lexed.Failed(), "lex: %v", lexed.Errors)
	parsed := grammar.Parse(lexed.Result)
	require.False(t, parsed.Failed(), "parse: %v", parsed.Errors)
	analyzed := semantic.AnalyzeFor(parsed.Result, id)
	require.False(t, analyzed.Failed(), "analyze: %v", analyzed.Errors)
	res, err := Translate(context.Background(), analyzed.Result, q, opts)
	require.NoError(t, err)
	return res
}

func mustTranslate(t *testing.T, input string, q Queryer) *queryplan.Plan {
	t.Helper()
	res := translate(t, input, semantic.DialectIllust, q, DefaultOptions())
	require.Empty(t, res.Errors)
	require.NotNil(t, res.Result)
	assert.True(t, queryplan.Validate(res.Result).Valid, "problems: %v", queryplan.Validate(res.Result).Problems)
	return res.Result
}

func authorExists(alias string, ids ...int64) queryplan.Exists {
	values := make([]ir.IRValue, len(ids))
	for i, id := range ids {
		values[i] = ir.IRInt(id)
	}
	return queryplan.Exists{
		Table: "illust_author_relation", Alias: alias, Local: "illust_id",
		Outer: queryplan.Col("illust", "id"),
		Where: queryplan.In{Column: queryplan.Col(alias, "author_id"), Values: values},
	}
}

func TestLikePattern(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"abc*def?", "%abc%def_%"},
		{"cat", "%cat%"},
		{"100%", `%100\%%`},
		{"snake_case", `%snake\_case%`},
		{`back\slash`, `%back\\slash%`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, LikePattern(ir.MetaString{Value: tt.in}))
		})
	}
}

func TestTranslate_PreciseSkipsWildcards(t *testing.T) {
	plan := mustTranslate(t, "description:`a*b?`", newFake())
	require.Len(t, plan.Where, 1)
	assert.Equal(t, queryplan.Compare{Column: queryplan.Col("illust", "description"), Op: queryplan.OpEq, Value: ir.IRString("a*b?")}, plan.Where[0])

	plan = mustTranslate(t, "description:abc*def?", newFake())
	assert.Equal(t, queryplan.Like{Column: queryplan.Col("illust", "description"), Pattern: "%abc%def_%"}, plan.Where[0])
}

func TestTranslate_Negation(t *testing.T) {
	positive := mustTranslate(t, "@alice", newFake())
	negative := mustTranslate(t, "-@alice", newFake())

	require.Len(t, positive.Where, 1)
	require.Len(t, negative.Where, 1)
	assert.Equal(t, authorExists("r1", 7), positive.Where[0])
	assert.Equal(t, queryplan.Not{Predicate: positive.Where[0]}, negative.Where[0])
}

func TestTranslate_BlankAuthor(t *testing.T) {
	q := newFake()
	res := translate(t, `@""`, semantic.DialectIllust, q, DefaultOptions())
	require.Empty(t, res.Errors)
	require.NotNil(t, res.Result)
	assert.Equal(t, []queryplan.Predicate{queryplan.Const{Value: false}}, res.Result.Where)
	assert.Equal(t, []string{ir.WarnBlankElement}, ir.Codes(res.Warnings))
	assert.Empty(t, q.calls, "blank values are never looked up")
}

func TestTranslate_ScoreRange(t *testing.T) {
	plan := mustTranslate(t, "score:[3,8)", newFake())
	require.Len(t, plan.Where, 1)
	assert.Equal(t, queryplan.And{Predicates: []queryplan.Predicate{
		queryplan.Compare{Column: queryplan.Col("illust", "score"), Op: queryplan.OpGte, Value: ir.IRInt(3)},
		queryplan.Compare{Column: queryplan.Col("illust", "score"), Op: queryplan.OpLt, Value: ir.IRInt(8)},
	}}, plan.Where[0])
}

func TestTranslate_Orders(t *testing.T) {
	plan := mustTranslate(t, "~+orderTime ~-score", newFake())
	assert.Equal(t, []queryplan.Order{
		{Field: "orderTime", Column: queryplan.Col("illust", "order_time")},
		{Field: "score", Column: queryplan.Col("illust", "score"), Desc: true},
	}, plan.Orders)

	plan = mustTranslate(t, "cat", newFake())
	assert.Equal(t, []queryplan.Order{{Field: "orderTime", Column: queryplan.Col("illust", "order_time"), Desc: true}}, plan.Orders)
}

func TestTranslate_DuplicateOrderLastWins(t *testing.T) {
	res := translate(t, "~+score ~-id ~-score", semantic.DialectIllust, newFake(), DefaultOptions())
	require.NotNil(t, res.Result)
	assert.Equal(t, []queryplan.Order{
		{Field: "id", Column: queryplan.Col("illust", "id"), Desc: true},
		{Field: "score", Column: queryplan.Col("illust", "score"), Desc: true},
	}, res.Result.Orders)
	assert.Equal(t, []string{ir.WarnDuplicateOrder}, ir.Codes(res.Warnings))
}

func TestTranslate_ConjunctiveResolvesEveryKind(t *testing.T) {
	q := newFake()
	plan := mustTranslate(t, "alice", q)
	assert.Equal(t, []string{"author:alice", "topic:alice", "tag:alice"}, q.calls)
	require.Len(t, plan.Where, 1)
	assert.Equal(t, queryplan.Or{Predicates: []queryplan.Predicate{
		authorExists("r1", 7),
		queryplan.Exists{
			Table: "illust_tag_relation", Alias: "r2", Local: "illust_id", Outer: queryplan.Col("illust", "id"),
			Where: queryplan.In{Column: queryplan.Col("r2", "tag_id"), Values: []ir.IRValue{ir.IRInt(11)}},
		},
	}}, plan.Where[0])

	q = newFake()
	mustTranslate(t, "@alice", q)
	assert.Equal(t, []string{"author:alice"}, q.calls, "a prefix pins the kind")
}

func TestTranslate_PrefixedItemsCombineWithOr(t *testing.T) {
	plan := mustTranslate(t, "@alice|bob", newFake())
	require.Len(t, plan.Where, 1)
	assert.Equal(t, authorExists("r1", 7), plan.Where[0], "bob matched nothing and folds away")
}

func TestTranslate_NoMatch(t *testing.T) {
	res := translate(t, "#nowhere", semantic.DialectIllust, newFake(), DefaultOptions())
	require.NotNil(t, res.Result)
	assert.Equal(t, []queryplan.Predicate{queryplan.Const{Value: false}}, res.Result.Where)
	assert.Equal(t, []string{ir.WarnNoMatch}, ir.Codes(res.Warnings))
	assert.Equal(t, ir.NewSpan(1, 8), res.Warnings[0].Span)
}

func TestTranslate_Thresholds(t *testing.T) {
	opts := Options{QueryLimitOfQueryItems: 20, WarningLimitOfUnionItems: 1, WarningLimitOfIntersectItems: 2}
	res := translate(t, "$cat fav score:1", semantic.DialectIllust, newFake(), opts)
	require.NotNil(t, res.Result)
	assert.Equal(t, []string{ir.WarnTooManyUnionItems, ir.WarnTooManyIntersect}, ir.Codes(res.Warnings))
}

func TestTranslate_QueryLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.QueryLimitOfQueryItems = 1
	res := translate(t, "$cat", semantic.DialectIllust, newFake(), opts)
	require.NotNil(t, res.Result)
	ex := res.Result.Where[0].(queryplan.Exists)
	assert.Len(t, ex.Where.(queryplan.In).Values, 1)
}

func TestTranslate_SourceTags(t *testing.T) {
	plan := mustTranslate(t, "^cat|`Dog`", newFake())
	assert.True(t, plan.Distinct)
	assert.Equal(t, []queryplan.Join{{
		Table: "illust_source_tag", Alias: "s1",
		Condition: queryplan.ColumnEquals{Left: queryplan.Col("s1", "illust_id"), Right: queryplan.Col("illust", "id")},
	}}, plan.Joins)
	assert.Equal(t, queryplan.Or{Predicates: []queryplan.Predicate{
		queryplan.Like{Column: queryplan.Col("s1", "name"), Pattern: "%cat%"},
		queryplan.Compare{Column: queryplan.Col("s1", "name"), Op: queryplan.OpEq, Value: ir.IRString("Dog")},
	}}, plan.Where[0])

	plan = mustTranslate(t, "-^cat", newFake())
	assert.False(t, plan.Distinct)
	assert.Empty(t, plan.Joins)
	assert.Equal(t, queryplan.Not{Predicate: queryplan.Exists{
		Table: "illust_source_tag", Alias: "r1", Local: "illust_id", Outer: queryplan.Col("illust", "id"),
		Where: queryplan.Like{Column: queryplan.Col("r1", "name"), Pattern: "%cat%"},
	}}, plan.Where[0])
}

func TestTranslate_AuxiliaryJoinsOnce(t *testing.T) {
	plan := mustTranslate(t, "ext:png site:pixiv sourceId:>5", newFake())
	require.Len(t, plan.Joins, 2)
	assert.Equal(t, "file", plan.Joins[0].Alias)
	assert.Equal(t, "source", plan.Joins[1].Alias)
	assert.True(t, plan.Joins[1].LeftJoin)
}

func TestTranslate_Dates(t *testing.T) {
	col := queryplan.Col("illust", "create_time")
	plan := mustTranslate(t, "ct:2024-03 pt:>2023 ut:<=2024", newFake())
	require.Len(t, plan.Where, 3)
	assert.Equal(t, queryplan.And{Predicates: []queryplan.Predicate{
		queryplan.Compare{Column: col, Op: queryplan.OpGte, Value: ir.IRString("2024-03-01 00:00:00")},
		queryplan.Compare{Column: col, Op: queryplan.OpLt, Value: ir.IRString("2024-04-01 00:00:00")},
	}}, plan.Where[0])
	assert.Equal(t, queryplan.Compare{Column: queryplan.Col("illust", "partition_time"), Op: queryplan.OpGte,
		Value: ir.IRString("2024-01-01 00:00:00")}, plan.Where[1])
	assert.Equal(t, queryplan.Compare{Column: queryplan.Col("illust", "update_time"), Op: queryplan.OpLt,
		Value: ir.IRString("2025-01-01 00:00:00")}, plan.Where[2])
}

func TestTranslate_Annotations(t *testing.T) {
	res := translate(t, "$[legacy]", semantic.DialectIllust, newFake(), DefaultOptions())
	require.NotNil(t, res.Result)
	assert.Equal(t, queryplan.Exists{
		Table: "illust_tag_relation", Alias: "r1", Local: "illust_id", Outer: queryplan.Col("illust", "id"),
		Where: queryplan.Exists{
			Table: "tag_annotation_relation", Alias: "r2", Local: "tag_id", Outer: queryplan.Col("r1", "tag_id"),
			Where: queryplan.In{Column: queryplan.Col("r2", "annotation_id"), Values: []ir.IRValue{ir.IRInt(41)}},
		},
	}, res.Result.Where[0])
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, ir.StageTranslator, res.Warnings[0].Stage)
	assert.Equal(t, ir.NewSpan(2, 8), res.Warnings[0].Span, "queryer warnings take the item's span")

	direct := translate(t, "[cute]", semantic.DialectAuthorAndTopic, newFake(), DefaultOptions())
	require.NotNil(t, direct.Result)
	assert.Equal(t, queryplan.Exists{
		Table: "meta_annotation_relation", Alias: "r1", Local: "meta_id", Outer: queryplan.Col("meta", "id"),
		Where: queryplan.In{Column: queryplan.Col("r1", "annotation_id"), Values: []ir.IRValue{ir.IRInt(40)}},
	}, direct.Result.Where[0])
}

func TestTranslate_Names(t *testing.T) {
	res := translate(t, "exported nam?", semantic.DialectAnnotation, newFake(), DefaultOptions())
	require.NotNil(t, res.Result)
	assert.Equal(t, []queryplan.Predicate{
		queryplan.Compare{Column: queryplan.Col("annotation", "can_be_exported"), Op: queryplan.OpEq, Value: ir.IRBool(true)},
		queryplan.Like{Column: queryplan.Col("annotation", "name"), Pattern: "%nam_%"},
	}, res.Result.Where)
}

type unsupportedQueryer struct{ *fakeQueryer }

func (unsupportedQueryer) FindTopic(context.Context, ir.SimpleMetaValue, int, *ir.Collector) ([]ElementTopic, error) {
	return nil, ErrUnsupported
}

func TestTranslate_Unsupported(t *testing.T) {
	q := unsupportedQueryer{newFake()}
	res := translate(t, "#vacation", semantic.DialectIllust, q, DefaultOptions())
	assert.Nil(t, res.Result)
	assert.Equal(t, []string{ir.ErrUnsupportedByQueryer}, ir.Codes(res.Errors))
	assert.Empty(t, res.Warnings, "an unsupported lookup is not also a miss")

	res = translate(t, "alice", semantic.DialectIllust, q, DefaultOptions())
	assert.NotNil(t, res.Result, "secondary kinds may be unsupported")
}

func TestTranslate_QueryerFailure(t *testing.T) {
	q := newFake()
	q.err = errors.New("database is locked")

	lexed := lexer.Lex("@alice", lexer.Options{})
	parsed := grammar.Parse(lexed.Result)
	analyzed := semantic.AnalyzeFor(parsed.Result, semantic.DialectIllust)
	res, err := Translate(context.Background(), analyzed.Result, q, DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, q.err)
	assert.Nil(t, res.Result)
}

func TestTranslate_Deterministic(t *testing.T) {
	input := "alice -#vacation $cat|dog score:>=8 ~+orderTime @[cute]"
	first := mustTranslate(t, input, newFake())
	second := mustTranslate(t, input, newFake())
	assert.Equal(t, first, second)

	a, err := queryplan.Fingerprint(first)
	require.NoError(t, err)
	b, err := queryplan.Fingerprint(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
