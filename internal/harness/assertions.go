package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/hql/internal/compiler"
)

// AssertionError describes one unmet expectation of a case.
type AssertionError struct {
	Type     string // what was checked
	Query    string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s of %q: expected %s, got %s", e.Type, e.Query, e.Expected, e.Actual)
}

// Assertion types.
const (
	AssertStage    = "stage"
	AssertFailedAt = "failed_at"
	AssertWarnings = "warnings"
	AssertErrors   = "errors"
	AssertResults  = "results"
	AssertSQL      = "sql"
)

// check compares a case outcome against its expectation and returns one
// message per mismatch.
func check(cr *CaseResult, want Expect) []string {
	var out []string
	fail := func(kind, expected, actual string) {
		out = append(out, (&AssertionError{Type: kind, Query: cr.Query, Expected: expected, Actual: actual}).Error())
	}

	stage := want.Stage
	if stage == "" {
		stage = compiler.StageDone
	}
	if cr.Stage != stage {
		fail(AssertStage, string(stage), string(cr.Stage))
	}
	if cr.FailedAt != want.FailedAt {
		fail(AssertFailedAt, quoted(string(want.FailedAt)), quoted(string(cr.FailedAt)))
	}
	if !equalCodes(cr.Warnings, want.Warnings) {
		fail(AssertWarnings, list(want.Warnings), list(cr.Warnings))
	}
	if !equalCodes(cr.Errors, want.Errors) {
		fail(AssertErrors, list(want.Errors), list(cr.Errors))
	}
	if want.Results != nil && !slices.Equal(cr.Results, want.Results) {
		fail(AssertResults, fmt.Sprint(want.Results), fmt.Sprint(cr.Results))
	}
	for _, frag := range want.SQLContains {
		if !strings.Contains(cr.SQL, frag) {
			fail(AssertSQL, "a statement containing "+quoted(frag), quoted(cr.SQL))
		}
	}
	return out
}

// equalCodes treats nil and empty as the same list.
func equalCodes(got, want []string) bool {
	if len(got) == 0 && len(want) == 0 {
		return true
	}
	return slices.Equal(got, want)
}

func list(codes []string) string {
	return "[" + strings.Join(codes, " ") + "]"
}

func quoted(s string) string {
	return fmt.Sprintf("%q", s)
}
