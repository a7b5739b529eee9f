package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"string", IRString("hello"), `"hello"`},
		{"int", IRInt(42), `42`},
		{"negative int", IRInt(-7), `-7`},
		{"bool", IRBool(true), `true`},
		{"no html escape", IRString("<a&b>"), `"<a&b>"`},
		{"sorted keys", map[string]any{"b": 1, "a": "x"}, `{"a":"x","b":1}`},
		{"nested", IRObject{"list": IRArray{IRInt(1), IRString("two")}}, `{"list":[1,"two"]}`},
		{"line separator kept literal", IRString("a\u2028b"), "\"a\u2028b\""},
		{"escaped backslash before u2028 text", IRString(`\u2028`), `"\\u2028"`},
		{"nfc", IRString("e\u0301"), "\"\u00e9\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonical_Rejects(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"score": 1.5})
	assert.ErrorContains(t, err, "floats are forbidden")

	_, err = MarshalCanonical(struct{}{})
	assert.ErrorContains(t, err, "unsupported type")
}

func TestSortedKeys_UTF16Order(t *testing.T) {
	// U+1F600 encodes as a surrogate pair (0xD83D...) which sorts before
	// U+FF61 in UTF-16 but after it in UTF-8.
	obj := IRObject{"\U0001F600": IRInt(1), "｡": IRInt(2)}
	assert.Equal(t, []string{"\U0001F600", "｡"}, obj.SortedKeys())
}

func TestFingerprint(t *testing.T) {
	a, err := Fingerprint(map[string]any{"x": 1, "y": "z"})
	require.NoError(t, err)
	b, err := Fingerprint(map[string]any{"y": "z", "x": 1})
	require.NoError(t, err)
	assert.Equal(t, a, b, "key order must not change the fingerprint")
	assert.Len(t, a, 64)

	c, err := Fingerprint(map[string]any{"x": 2, "y": "z"})
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
