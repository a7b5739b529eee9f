package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hql/internal/ir"
	"github.com/roach88/hql/internal/lexer"
)

func parse(t *testing.T, input string) ir.Analysis[*Query] {
	t.Helper()
	lexed := lexer.Lex(input, lexer.Options{})
	require.False(t, lexed.Failed(), "lex errors: %v", lexed.Errors)
	return Parse(lexed.Result)
}

func mustParse(t *testing.T, input string) *Query {
	t.Helper()
	res := parse(t, input)
	require.Empty(t, res.Errors)
	require.NotNil(t, res.Result)
	return res.Result
}

func values(l StrList) []string {
	out := make([]string, len(l.Items))
	for i, s := range l.Items {
		out[i] = s.Value
	}
	return out
}

func TestParse_Empty(t *testing.T) {
	q := mustParse(t, "")
	assert.Empty(t, q.Clauses)
	assert.NotNil(t, q.Clauses)
}

func TestParse_Elements(t *testing.T) {
	q := mustParse(t, "@john #vacation score:>=8 ~+orderTime")
	require.Len(t, q.Clauses, 4)

	author := q.Clauses[0].(Element)
	require.NotNil(t, author.Prefix)
	assert.Equal(t, "@", author.Prefix.Value)
	assert.Equal(t, []string{"john"}, values(author.Items[0].Subject))
	assert.Equal(t, ir.NewSpan(0, 5), author.Span)

	topic := q.Clauses[1].(Element)
	assert.Equal(t, "#", topic.Prefix.Value)

	score := q.Clauses[2].(Element)
	assert.Nil(t, score.Prefix)
	require.NotNil(t, score.Items[0].Family)
	assert.Equal(t, ">=", score.Items[0].Family.Value, "colon before a comparator is absorbed")
	assert.Equal(t, StrList{Items: []Str{{Value: "8", Span: ir.NewSpan(24, 25)}}, Span: ir.NewSpan(24, 25)}, score.Items[0].Predicative)

	sort := q.Clauses[3].(Sort)
	assert.Equal(t, "orderTime", sort.Item.Value.Value)
	assert.False(t, sort.Item.Desc)
	assert.Equal(t, ir.NewSpan(26, 37), sort.Span)
}

func TestParse_Predicatives(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Predicative
	}{
		{
			name:  "half-open range",
			input: "score:[3,8)",
			want: Range{
				From: Str{Value: "3", Span: ir.NewSpan(7, 8)}, To: Str{Value: "8", Span: ir.NewSpan(9, 10)},
				IncludeFrom: true, IncludeTo: false, Span: ir.NewSpan(6, 11),
			},
		},
		{
			name:  "collection",
			input: "s:{a,`b`}",
			want: Col{Items: []Str{
				{Value: "a", Span: ir.NewSpan(3, 4)},
				{Value: "b", Precise: true, Span: ir.NewSpan(5, 8)},
			}, Span: ir.NewSpan(2, 9)},
		},
		{
			name:  "signed sort list",
			input: "order:-score,+ct",
			want: SortList{Items: []SortItem{
				{Value: Str{Value: "score", Span: ir.NewSpan(7, 12)}, Desc: true, Span: ir.NewSpan(6, 12)},
				{Value: Str{Value: "ct", Span: ir.NewSpan(14, 16)}, Span: ir.NewSpan(13, 16)},
			}, Span: ir.NewSpan(6, 16)},
		},
		{
			name:  "unsigned sort list",
			input: "order:score,-ct",
			want: SortList{Items: []SortItem{
				{Value: Str{Value: "score", Span: ir.NewSpan(6, 11)}, Span: ir.NewSpan(6, 11)},
				{Value: Str{Value: "ct", Span: ir.NewSpan(13, 15)}, Desc: true, Span: ir.NewSpan(12, 15)},
			}, Span: ir.NewSpan(6, 15)},
		},
		{
			name:  "address value",
			input: "a~b.c",
			want: StrList{Items: []Str{
				{Value: "b", Span: ir.NewSpan(2, 3)},
				{Value: "c", Span: ir.NewSpan(4, 5)},
			}, Span: ir.NewSpan(2, 5)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := mustParse(t, tt.input)
			require.Len(t, q.Clauses, 1)
			el := q.Clauses[0].(Element)
			assert.Equal(t, tt.want, el.Items[0].Predicative)
		})
	}
}

func TestParse_UnaryFamilyHasNoPredicative(t *testing.T) {
	q := mustParse(t, "$series.vol3~+ next")
	require.Len(t, q.Clauses, 2)
	el := q.Clauses[0].(Element)
	assert.Equal(t, "~+", el.Items[0].Family.Value)
	assert.Nil(t, el.Items[0].Predicative)
	assert.Equal(t, []string{"series", "vol3"}, values(el.Items[0].Subject))
}

func TestParse_SpacedOrderDirectiveEndsElement(t *testing.T) {
	tests := []struct {
		input   string
		subject string
		order   string
		desc    bool
	}{
		{"@alice ~+orderTime", "alice", "orderTime", false},
		{"#vacation ~-score", "vacation", "score", true},
		{"cat ~-score", "cat", "score", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			q := mustParse(t, tt.input)
			require.Len(t, q.Clauses, 2)
			el := q.Clauses[0].(Element)
			assert.Equal(t, []string{tt.subject}, values(el.Items[0].Subject))
			assert.Nil(t, el.Items[0].Family)
			sort := q.Clauses[1].(Sort)
			assert.Equal(t, tt.order, sort.Item.Value.Value)
			assert.Equal(t, tt.desc, sort.Item.Desc)
		})
	}
}

func TestParse_SignedComparatorValue(t *testing.T) {
	q := mustParse(t, "id:<-1 score>+2")
	require.Len(t, q.Clauses, 2)

	id := q.Clauses[0].(Element).Items[0]
	assert.Equal(t, "<", id.Family.Value)
	assert.Equal(t, StrList{Items: []Str{{Value: "-1", Span: ir.NewSpan(4, 6)}}, Span: ir.NewSpan(4, 6)}, id.Predicative)

	score := q.Clauses[1].(Element).Items[0]
	assert.Equal(t, []string{"2"}, values(score.Predicative.(StrList)))
}

func TestParse_AlternativesAndNegation(t *testing.T) {
	q := mustParse(t, "-@alice|bob & !tag")
	require.Len(t, q.Clauses, 2)

	first := q.Clauses[0].(Element)
	assert.True(t, first.Minus)
	require.Len(t, first.Items, 2)
	assert.Equal(t, []string{"bob"}, values(first.Items[1].Subject))
	assert.Equal(t, ir.NewSpan(0, 11), first.Span)

	second := q.Clauses[1].(Element)
	assert.True(t, second.Minus)
	assert.Nil(t, second.Prefix)
}

func TestParse_Annotation(t *testing.T) {
	q := mustParse(t, "-@#[artist|studio]")
	require.Len(t, q.Clauses, 1)
	ann := q.Clauses[0].(Annotation)
	assert.True(t, ann.Minus)
	require.Len(t, ann.Prefixes, 2)
	assert.Equal(t, "@", ann.Prefixes[0].Value)
	assert.Equal(t, "#", ann.Prefixes[1].Value)
	assert.Equal(t, []Str{
		{Value: "artist", Span: ir.NewSpan(4, 10)},
		{Value: "studio", Span: ir.NewSpan(11, 17)},
	}, ann.Items)
	assert.Equal(t, ir.NewSpan(0, 18), ann.Span)
}

func TestParse_Warnings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		codes []string
	}{
		{"repeated prefix", "@@alice", []string{ir.WarnRepeatedPrefix}},
		{"repeated negation", "--alice", []string{ir.WarnRepeatedNegation}},
		{"empty annotation item", "[a|]", []string{ir.WarnEmptyItem}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parse(t, tt.input)
			require.Empty(t, res.Errors)
			require.NotNil(t, res.Result)
			assert.Equal(t, tt.codes, ir.Codes(res.Warnings))
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  string
		span  ir.Span
	}{
		{"family without value", "score:", ir.ErrMissingPredicative, ir.NewSpan(5, 6)},
		{"empty subject", ":3", ir.ErrEmptySubject, ir.NewSpan(0, 1)},
		{"unclosed range", "score:[3,8", ir.ErrUnclosedBracket, ir.NewSpan(6, 7)},
		{"unclosed collection", "s:{a,b", ir.ErrUnclosedBracket, ir.NewSpan(2, 3)},
		{"unclosed annotation", "[a", ir.ErrUnclosedBracket, ir.NewSpan(0, 1)},
		{"range with one bound", "s:[a]", ir.ErrUnexpectedToken, ir.NewSpan(4, 5)},
		{"conflicting prefixes", "@#alice", ir.ErrConflictingPrefix, ir.NewSpan(0, 2)},
		{"dangling dot", "a.", ir.ErrUnexpectedEnd, ir.NewSpan(2, 2)},
		{"negation alone", "-", ir.ErrUnexpectedEnd, ir.NewSpan(1, 1)},
		{"stray bracket", "a ]", ir.ErrUnexpectedToken, ir.NewSpan(2, 3)},
		{"negated order directive", "-~+score", ir.ErrUnexpectedToken, ir.NewSpan(0, 3)},
		{"empty annotation", "[]", ir.ErrUnexpectedToken, ir.NewSpan(0, 2)},
		{"sign without number", "id:<- 1", ir.ErrUnexpectedToken, ir.NewSpan(6, 7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parse(t, tt.input)
			assert.Nil(t, res.Result)
			require.Len(t, res.Errors, 1)
			assert.Equal(t, tt.code, res.Errors[0].Code)
			assert.Equal(t, tt.span, res.Errors[0].Span)
		})
	}
}
