package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	text := "Here is the analysis:\n```json\n{\"score\": 0.8,\n \"tags\": {\"a\": 1}}\n```\nThanks"
	got, ok := ExtractJSONObject(text)
	require.True(t, ok)
	assert.Equal(t, "{\"score\": 0.8,\n \"tags\": {\"a\": 1}}", got)

	_, ok = ExtractJSONObject("no braces here")
	assert.False(t, ok)
}

func TestExtractJSONArray(t *testing.T) {
	got, ok := ExtractJSONArray(`Results: [{"caseName":"A"},{"caseName":"B"}] end`)
	require.True(t, ok)
	assert.Equal(t, `[{"caseName":"A"},{"caseName":"B"}]`, got)
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		Score float64 `json:"score"`
	}
	require.NoError(t, DecodeJSON(`{"score":0.4}`, &out))
	assert.Equal(t, 0.4, out.Score)

	require.NoError(t, DecodeJSON("Sure! {\"score\": 0.9} hope that helps", &out))
	assert.Equal(t, 0.9, out.Score)

	var list []map[string]string
	require.NoError(t, DecodeJSON("```\n[{\"a\":\"b\"}]\n```", &list))
	assert.Len(t, list, 1)

	assert.ErrorIs(t, DecodeJSON("I cannot help with that.", &out), ErrNoJSON)
	assert.Error(t, DecodeJSON("{not json}", &out))
}

func TestTruncateIsRuneSafe(t *testing.T) {
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "", Truncate("abc", 0))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, Clamp(1.7, 0, 1))
	assert.Equal(t, 0.0, Clamp(-3, 0, 1))
	assert.Equal(t, 42.0, Clamp(42, 0, 100))
}
