package harness

import (
	"github.com/roach88/hql/internal/compiler"
	"github.com/roach88/hql/internal/semantic"
)

// CaseResult is what one query compiled and ran to.
type CaseResult struct {
	Query    string
	Dialect  semantic.DialectID
	Stage    compiler.Stage
	FailedAt compiler.Stage
	Warnings []string
	Errors   []string
	SQL      string
	// Results holds the matching ids, in plan order, when the query
	// compiled. Nil otherwise.
	Results []int64
	// Failures lists the expectations the case did not meet.
	Failures []string
}

// Passed reports whether every expectation held.
func (c *CaseResult) Passed() bool {
	return len(c.Failures) == 0
}

// Result aggregates a scenario run.
type Result struct {
	Scenario string
	Cases    []CaseResult
}

// Pass reports whether every case passed.
func (r *Result) Pass() bool {
	for i := range r.Cases {
		if !r.Cases[i].Passed() {
			return false
		}
	}
	return true
}

// Failed returns the cases that did not pass.
func (r *Result) Failed() []CaseResult {
	var out []CaseResult
	for _, c := range r.Cases {
		if !c.Passed() {
			out = append(out, c)
		}
	}
	return out
}
