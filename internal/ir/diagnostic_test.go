package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollector(t *testing.T) {
	c := NewCollector(StageLexical)
	c.Warnf(WarnLoneConnective, NewSpan(3, 4), "lone %q dropped", "|")
	assert.False(t, c.HasErrors())

	c.Errorf(ErrUnterminatedString, NewSpan(5, 9), "unterminated string")
	assert.True(t, c.HasErrors())

	errs := c.Errors()
	assert.Len(t, errs, 1)
	assert.Equal(t, ErrUnterminatedString, errs[0].Code)
	assert.Equal(t, StageLexical, errs[0].Stage)
	assert.Equal(t, SeverityError, errs[0].Severity)
	assert.Equal(t, "[E102] 5-9: unterminated string", errs[0].Error())

	warns := c.Warnings()
	assert.Equal(t, []string{WarnLoneConnective}, Codes(warns))
	assert.Equal(t, `lone "|" dropped`, warns[0].Message)
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	c.Warnf(WarnBlankElement, Span{}, "ignored")
	c.Errorf(ErrUnsupportedByQueryer, Span{}, "ignored")
	assert.False(t, c.HasErrors())
	assert.NotNil(t, c.Warnings())
	assert.Empty(t, c.Warnings())
}

func TestCollector_Absorb(t *testing.T) {
	main := NewCollector(StageTranslator)
	port := NewCollector(StageTranslator)
	port.Warnf(WarnSequenceMember, Span{}, "no member")
	port.Warnf(WarnNoMatch, NewSpan(1, 2), "explicit span")

	main.Absorb(port, NewSpan(10, 20))

	warns := main.Warnings()
	assert.Len(t, warns, 2)
	assert.Equal(t, NewSpan(10, 20), warns[0].Span, "spanless diagnostics take the element span")
	assert.Equal(t, NewSpan(1, 2), warns[1].Span)
	assert.Empty(t, port.Warnings(), "absorbed diagnostics leave the source")
}

func TestFinish_DropsResultOnError(t *testing.T) {
	c := NewCollector(StageGrammar)
	ok := Finish(c, []int{1})
	assert.False(t, ok.Failed())
	assert.Equal(t, []int{1}, ok.Result)

	c.Errorf(ErrUnexpectedEnd, NewSpan(0, 0), "unexpected end")
	failed := Finish(c, []int{1})
	assert.True(t, failed.Failed())
	assert.Nil(t, failed.Result)
}

func TestSpan(t *testing.T) {
	s := NewSpan(2, 5).Join(NewSpan(0, 3))
	assert.Equal(t, Span{Begin: 0, End: 5}, s)
	assert.Equal(t, 5, s.Len())
	assert.Panics(t, func() { NewSpan(3, 1) })
}
