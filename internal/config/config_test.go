package config

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hql/internal/compiler"
)

func TestLoad_YAML(t *testing.T) {
	opts, err := Load("testdata/hql.yaml")
	require.NoError(t, err)

	want := compiler.DefaultOptions()
	want.ChineseSymbolReflect = false
	want.QueryLimitOfQueryItems = 5
	assert.Equal(t, want, opts)
}

func TestLoad_CUE(t *testing.T) {
	opts, err := Load("testdata/hql.cue")
	require.NoError(t, err)

	want := compiler.DefaultOptions()
	want.TranslateUnderscoreToSpace = true
	want.WarningLimitOfUnionItems = 30
	assert.Equal(t, want, opts)
}

func TestLoad_EmptyFileIsDefaults(t *testing.T) {
	path := writeFile(t, "empty.yaml", "")
	opts, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, compiler.DefaultOptions(), opts)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
		want string
	}{
		{"yaml unknown key", "a.yaml", "query:\n  bogus: 1\n", "field bogus not found"},
		{"yaml unknown section", "b.yaml", "server: {}\n", "field server not found"},
		{"yaml out of range", "c.yaml", "query:\n  query_limit_of_query_items: 0\n", "query_limit_of_query_items"},
		{"yaml wrong type", "d.yml", "query:\n  chinese_symbol_reflect: maybe\n", "cannot unmarshal"},
		{"cue out of range", "e.cue", "query: {\n\tquery_limit_of_query_items: 5000\n}\n", "query_limit_of_query_items"},
		{"cue closed", "f.cue", "query: bogus: 1\n", "bogus"},
		{"cue syntax", "g.cue", "query: {\n", "g.cue"},
		{"unknown format", "h.toml", "", "unknown config format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.body))
			require.Error(t, err)
			var cfgErr *Error
			require.True(t, errors.As(err, &cfgErr), "got %T", err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_CUEErrorIsPositioned(t *testing.T) {
	path := writeFile(t, "pos.cue", "query: {\n\tquery_limit_of_query_items: 0\n}\n")
	_, err := Load(path)
	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, path, cfgErr.Path)
	assert.Positive(t, cfgErr.Line)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestWatcher_Reloads(t *testing.T) {
	path := writeFile(t, "hql.yaml", "query:\n  query_limit_of_query_items: 5\n")
	reloaded := make(chan compiler.Options, 4)
	w, err := Watch(context.Background(), path,
		WithDebounce(10*time.Millisecond),
		WithWatchLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		OnReload(func(o compiler.Options) { reloaded <- o }),
	)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	assert.Equal(t, 5, w.Snapshot().QueryLimitOfQueryItems)

	require.NoError(t, os.WriteFile(path, []byte("query:\n  query_limit_of_query_items: 7\n"), 0o644))
	select {
	case o := <-reloaded:
		assert.Equal(t, 7, o.QueryLimitOfQueryItems)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload")
	}
	assert.Equal(t, 7, w.Snapshot().QueryLimitOfQueryItems)

	// A broken file leaves the last good options in force.
	require.NoError(t, os.WriteFile(path, []byte("query:\n  bogus: true\n"), 0o644))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 7, w.Snapshot().QueryLimitOfQueryItems)
}

func TestWatch_InitialLoadMustSucceed(t *testing.T) {
	_, err := Watch(context.Background(), writeFile(t, "bad.yaml", "query: [\n"))
	require.Error(t, err)
}

func TestWatcher_CloseTwice(t *testing.T) {
	w, err := Watch(context.Background(), writeFile(t, "hql.yaml", ""))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}
