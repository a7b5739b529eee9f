package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/hql/internal/catalog"
	"github.com/roach88/hql/internal/compiler"
	"github.com/roach88/hql/internal/ir"
	"github.com/roach88/hql/internal/querysql"
	"github.com/roach88/hql/internal/store"
	"github.com/roach88/hql/internal/testutil"
)

// Harness runs scenarios against a throwaway store.
type Harness struct {
	store    *store.Store
	compiler *compiler.Compiler
	logger   *slog.Logger
}

// Run compiles every case of scenario, runs the ones that compile against
// a freshly seeded store, and checks each outcome against its expectation.
//
// Each scenario gets its own database so runs never see each other's
// writes. Request ids are deterministic.
func Run(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = testutil.QuietLogger()
	}
	dir, err := os.MkdirTemp("", "hql-harness-")
	if err != nil {
		return nil, fmt.Errorf("failed to create store dir: %w", err)
	}
	defer os.RemoveAll(dir)

	cat := &catalog.Catalog{}
	if scenario.Catalog != "" {
		if cat, err = catalog.Load(scenario.Catalog); err != nil {
			return nil, err
		}
	}

	var queryer *catalog.CachedQueryer
	st, err := store.Open(filepath.Join(dir, "harness.db"), store.WithOnChange(func(k catalog.Kind) {
		if queryer != nil {
			queryer.FlushCacheOf(k)
		}
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	defer st.Close()
	if err := st.Seed(ctx, cat); err != nil {
		return nil, fmt.Errorf("failed to seed catalog: %w", err)
	}
	queryer = catalog.NewCachedQueryer(catalog.NewResolver(st, nil), 256)

	h := &Harness{
		store: st,
		compiler: compiler.New(queryer, scenario.Opts(),
			compiler.WithRequestIDs(testutil.NewCountingIDs(scenario.Name)),
			compiler.WithLogger(logger),
		),
		logger: logger,
	}

	result := &Result{Scenario: scenario.Name}
	for _, c := range scenario.Cases {
		cr, err := h.runCase(ctx, scenario, c)
		if err != nil {
			return nil, fmt.Errorf("case %q: %w", c.Query, err)
		}
		result.Cases = append(result.Cases, *cr)
	}
	return result, nil
}

func (h *Harness) runCase(ctx context.Context, s *Scenario, c Case) (*CaseResult, error) {
	dialect := s.DialectOf(c)
	res, err := h.compiler.Compile(ctx, c.Query, dialect)
	if err != nil {
		return nil, err
	}
	cr := &CaseResult{
		Query:    c.Query,
		Dialect:  dialect,
		Stage:    res.Stage,
		FailedAt: res.FailedAt,
		Warnings: ir.Codes(res.Warnings),
		Errors:   ir.Codes(res.Errors),
	}
	if res.OK() {
		if cr.SQL, _, err = querysql.NewSQLCompiler().Compile(res.Plan); err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		if cr.Results, err = h.store.Search(ctx, res.Plan, store.Page{}); err != nil {
			return nil, err
		}
	}
	cr.Failures = check(cr, c.Expect)
	h.logger.Debug("scenario case", "query", c.Query, "stage", string(cr.Stage), "passed", cr.Passed())
	return cr, nil
}
