package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenariosDir = "../harness/testdata/scenarios"

func TestTest_HarnessScenarios(t *testing.T) {
	out, err := execute(t, "test", scenariosDir, "--golden", "../harness/testdata/golden")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ illust-basics")
	assert.Contains(t, out, "✓ other-dialects")
	assert.Contains(t, out, "2 passed, 0 failed, 2 total")
}

func TestTest_Filter(t *testing.T) {
	out, err := execute(t, "test", scenariosDir, "--filter", "other-*", "--format", "json")
	require.NoError(t, err)
	_, data := decode(t, out)
	assert.Equal(t, float64(1), data["total"])
}

func TestTest_FailingScenario(t *testing.T) {
	dir := failingScenarioDir(t)
	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong-results")
	assert.Contains(t, out, "results of")
}

func TestTest_UpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	catalog, err := filepath.Abs(fixtureCatalog)
	require.NoError(t, err)
	scenario := "name: one\ndescription: d\ncatalog: " + catalog + "\ndialect: illust\ncases:\n  - query: \"@ali\"\n    expect: {stage: done, results: [1, 3]}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.yaml"), []byte(scenario), 0o644))

	_, err = execute(t, "test", dir, "--update")
	require.NoError(t, err)
	golden := filepath.Join(dir, "golden", "one.golden")
	require.FileExists(t, golden)

	_, err = execute(t, "test", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte(`{"cases":[],"scenario":"one"}`), 0o644))
	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "does not match golden file")
}

func TestTest_Errors(t *testing.T) {
	_, err := execute(t, "test", "no-such-dir")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func failingScenarioDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	catalog, err := filepath.Abs(fixtureCatalog)
	require.NoError(t, err)
	scenario := "name: wrong-results\ndescription: d\ncatalog: " + catalog + "\ndialect: illust\ncases:\n  - query: \"@ali\"\n    expect: {stage: done, results: [2]}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(scenario), 0o644))
	return dir
}
