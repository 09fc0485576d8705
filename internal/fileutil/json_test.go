package fileutil

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/lepinkainen/bookshelf/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testJSONData struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

func TestEncodeJSONKeepsUnicodeAndHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeJSON(&buf, []testJSONData{{ID: 1, Title: "Война и мир <1869> & more"}}))

	assert.Equal(t, "[\n  {\n    \"id\": 1,\n    \"title\": \"Война и мир <1869> & more\"\n  }\n]\n", buf.String())
}

func TestWriteJSONFile(t *testing.T) {
	env := testutil.NewTestEnv(t)
	path := env.Path("nested", "books.json")
	data := []testJSONData{{ID: 1, Title: "First"}, {ID: 2, Title: "Second"}}

	written, err := WriteJSONFile(data, path, false)
	require.NoError(t, err)
	assert.True(t, written)

	var result []testJSONData
	require.NoError(t, json.Unmarshal(env.ReadFile("nested/books.json"), &result))
	assert.Equal(t, data, result)

	written, err = WriteJSONFile([]testJSONData{}, path, false)
	require.NoError(t, err)
	assert.False(t, written, "existing file is kept without overwrite")

	written, err = WriteJSONFile([]testJSONData{}, path, true)
	require.NoError(t, err)
	assert.True(t, written)
	assert.Equal(t, "[]\n", env.ReadFileString("nested/books.json"))
}

func TestWriteJSONFileInvalidData(t *testing.T) {
	env := testutil.NewTestEnv(t)

	written, err := WriteJSONFile(make(chan int), env.Path("bad.json"), true)
	require.Error(t, err)
	assert.False(t, written)
	assert.False(t, env.FileExists("bad.json"))
}
