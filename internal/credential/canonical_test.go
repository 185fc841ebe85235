package credential

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, raw string) map[string]json.RawMessage {
	t.Helper()
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func TestCanonicalize(t *testing.T) {
	t.Run("sorts top-level keys", func(t *testing.T) {
		got, err := Canonicalize(mustDecode(t, `{"role":"Developer","name":"John"}`))
		require.NoError(t, err)
		assert.Equal(t, `{"name":"John","role":"Developer"}`, got)
	})

	t.Run("is independent of input key order", func(t *testing.T) {
		a, err := Canonicalize(mustDecode(t, `{"name":"John","role":"Developer"}`))
		require.NoError(t, err)
		b, err := Canonicalize(mustDecode(t, `{"role":"Developer","name":"John"}`))
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("empty object canonicalizes to {}", func(t *testing.T) {
		got, err := Canonicalize(mustDecode(t, `{}`))
		require.NoError(t, err)
		assert.Equal(t, `{}`, got)
	})

	t.Run("compacts whitespace inside values", func(t *testing.T) {
		a, err := Canonicalize(mustDecode(t, `{"claims": {"degree": "BSc"}}`))
		require.NoError(t, err)
		b, err := Canonicalize(mustDecode(t, `{"claims":{"degree":"BSc"}}`))
		require.NoError(t, err)
		assert.Equal(t, a, b)
		assert.Equal(t, `{"claims":{"degree":"BSc"}}`, a)
	})

	t.Run("keeps nested key order as submitted", func(t *testing.T) {
		a, err := Canonicalize(mustDecode(t, `{"claims":{"a":1,"b":2}}`))
		require.NoError(t, err)
		b, err := Canonicalize(mustDecode(t, `{"claims":{"b":2,"a":1}}`))
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("keeps number representation as submitted", func(t *testing.T) {
		a, err := Canonicalize(mustDecode(t, `{"score":1}`))
		require.NoError(t, err)
		b, err := Canonicalize(mustDecode(t, `{"score":1.0}`))
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("preserves arrays and null values", func(t *testing.T) {
		got, err := Canonicalize(mustDecode(t, `{"tags":["b","a"],"ref":null}`))
		require.NoError(t, err)
		assert.Equal(t, `{"ref":null,"tags":["b","a"]}`, got)
	})

	t.Run("sorts keys bytewise", func(t *testing.T) {
		got, err := Canonicalize(mustDecode(t, `{"b":1,"B":2,"a":3}`))
		require.NoError(t, err)
		assert.Equal(t, `{"B":2,"a":3,"b":1}`, got)
	})
}
