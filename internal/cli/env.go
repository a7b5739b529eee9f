package cli

import (
	"context"
	"fmt"

	"github.com/roach88/hql/internal/catalog"
	"github.com/roach88/hql/internal/compiler"
	"github.com/roach88/hql/internal/config"
	"github.com/roach88/hql/internal/semantic"
	"github.com/roach88/hql/internal/store"
)

// env is what a command needs to compile and, with a store, to search.
type env struct {
	compiler *compiler.Compiler
	queryer  *catalog.CachedQueryer
	store    *store.Store // nil without --db
	options  func() compiler.Options
	close    func()
}

// loadOptions reads --config, or returns the defaults without one.
func (o *RootOptions) loadOptions() (compiler.Options, error) {
	if o.Config == "" {
		return compiler.DefaultOptions(), nil
	}
	return config.Load(o.Config)
}

// openEnv wires the queryer to the store when --db is set, else to the
// --catalog fixture, else to an empty catalog. With watch set, --config
// is reloaded whenever it changes.
func (o *RootOptions) openEnv(ctx context.Context, watch bool) (*env, error) {
	e := &env{close: func() {}}
	closers := []func(){}
	e.close = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if watch && o.Config != "" {
		w, err := config.Watch(ctx, o.Config, config.WithWatchLogger(o.Logger()))
		if err != nil {
			return nil, err
		}
		closers = append(closers, func() { w.Close() })
		e.options = w.Snapshot
	} else {
		opts, err := o.loadOptions()
		if err != nil {
			return nil, err
		}
		e.options = func() compiler.Options { return opts }
	}

	var src catalog.Source
	switch {
	case o.DB != "":
		st, err := store.Open(o.DB, store.WithOnChange(func(k catalog.Kind) {
			if e.queryer != nil {
				e.queryer.FlushCacheOf(k)
			}
		}))
		if err != nil {
			e.close()
			return nil, fmt.Errorf("open store %s: %w", o.DB, err)
		}
		closers = append(closers, func() { st.Close() })
		e.store = st
		src = st
	case o.Catalog != "":
		c, err := catalog.Load(o.Catalog)
		if err != nil {
			e.close()
			return nil, err
		}
		src = c
	default:
		src = &catalog.Catalog{}
	}

	e.queryer = catalog.NewCachedQueryer(catalog.NewResolver(src, nil), 1024)
	e.compiler = compiler.New(e.queryer, e.options(),
		compiler.WithOptionsFunc(e.options),
		compiler.WithLogger(o.Logger()),
	)
	return e, nil
}

func parseDialect(s string) (semantic.DialectID, error) {
	id := semantic.DialectID(s)
	if _, ok := semantic.Lookup(id); !ok {
		return "", NewExitError(ExitCommandError, fmt.Sprintf("unknown dialect %q, see `hql dialects`", s))
	}
	return id, nil
}
