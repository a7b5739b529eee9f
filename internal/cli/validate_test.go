package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	for _, path := range []string{"../config/testdata/hql.yaml", "../config/testdata/hql.cue"} {
		t.Run(path, func(t *testing.T) {
			out, err := execute(t, "validate", path)
			require.NoError(t, err)
			assert.Contains(t, out, "✓")
		})
	}
}

func TestValidate_JSONShowsOptions(t *testing.T) {
	out, err := execute(t, "validate", "../config/testdata/hql.yaml", "--format", "json")
	require.NoError(t, err)
	_, data := decode(t, out)
	assert.Equal(t, true, data["valid"])
	opts := data["options"].(map[string]any)
	assert.Equal(t, false, opts["chinese_symbol_reflect"])
	assert.Equal(t, float64(5), opts["query_limit_of_query_items"])
}

func TestValidate_Invalid(t *testing.T) {
	path := writeFile(t, "hql.cue", "query: {\n\tquery_limit_of_query_items: 5000\n}\n")
	out, err := execute(t, "validate", path, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp, data := decode(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeConfig, resp.Error.Code)
	assert.Equal(t, false, data["valid"])
	cfgErr := data["error"].(map[string]any)
	assert.Equal(t, path, cfgErr["path"])
}

func TestValidate_MissingFile(t *testing.T) {
	_, err := execute(t, "validate", "does-not-exist.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
