package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/hql/internal/ir"
)

// Snapshot renders a run as canonical JSON: per case the stage reached,
// the diagnostic codes and the ids found. Rendered SQL is left out so that
// formatting changes in querysql do not churn every golden file.
func Snapshot(r *Result) ([]byte, error) {
	cases := make([]any, len(r.Cases))
	for i, c := range r.Cases {
		m := map[string]any{
			"query":    c.Query,
			"dialect":  string(c.Dialect),
			"stage":    string(c.Stage),
			"warnings": stringList(c.Warnings),
			"errors":   stringList(c.Errors),
		}
		if c.FailedAt != "" {
			m["failed_at"] = string(c.FailedAt)
		}
		if c.Results != nil {
			ids := make([]any, len(c.Results))
			for j, id := range c.Results {
				ids[j] = id
			}
			m["results"] = ids
		}
		cases[i] = m
	}
	return ir.MarshalCanonical(map[string]any{
		"scenario": r.Scenario,
		"cases":    cases,
	})
}

func stringList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// RunWithGolden runs scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(context.Background(), scenario, nil)
	if err != nil {
		t.Fatalf("run %s: %v", scenario.Name, err)
	}
	AssertGolden(t, scenario.Name, result)
	return result
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	data, err := Snapshot(result)
	if err != nil {
		t.Fatalf("snapshot %s: %v", name, err)
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
