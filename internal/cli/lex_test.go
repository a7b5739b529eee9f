package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hql/internal/ir"
)

func TestLex(t *testing.T) {
	out, err := execute(t, "lex", "@alice score:>=8", "--format", "json")
	require.NoError(t, err)
	_, data := decode(t, out)
	tokens, ok := data["tokens"].([]any)
	require.True(t, ok)
	assert.NotEmpty(t, tokens)
	assert.Empty(t, data["errors"])
}

func TestLex_Text(t *testing.T) {
	out, err := execute(t, "lex", "cat")
	require.NoError(t, err)
	assert.Contains(t, out, "cat")
	assert.Contains(t, out, "0:3")
}

func TestLex_Error(t *testing.T) {
	out, err := execute(t, "lex", "`x")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, ir.ErrUnterminatedString)
}
