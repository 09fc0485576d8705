package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/lepinkainen/bookshelf/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportAllMatchesGolden(t *testing.T) {
	store, _ := newTestStore(t)
	mustInsert(t, store, warAndPeace())
	mustInsert(t, store, NewBook{Title: "Война и мир", Author: "Лев Толстой"})

	var buf bytes.Buffer
	exported, err := store.ExportAll(context.Background(), &buf)
	require.NoError(t, err)
	require.Len(t, exported, 2)

	golden := testutil.NewGoldenHelper(t, "testdata")
	golden.AssertGoldenJSON("export.golden.json", buf.Bytes())

	out := buf.String()
	assert.Contains(t, out, "Война и мир", "non-ASCII text is written unescaped")
	assert.True(t, strings.HasPrefix(out, "[\n  {\n    \"id\": 1,"), "two-space indentation")
}

func TestExportAllEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	var buf bytes.Buffer
	exported, err := store.ExportAll(context.Background(), &buf)
	require.NoError(t, err)
	assert.Empty(t, exported)
	assert.Equal(t, "[]\n", buf.String())
}

func TestExportFile(t *testing.T) {
	env := testutil.NewTestEnv(t)
	store, _ := openTestStore(t, env.Path("books.db"))
	mustInsert(t, store, warAndPeace())

	exported, err := store.ExportFile(context.Background(), env.Path("out", "parsed_books.json"))
	require.NoError(t, err)

	var fromDisk []ExportedBook
	require.NoError(t, json.Unmarshal(env.ReadFile("out/parsed_books.json"), &fromDisk))
	assert.Equal(t, exported, fromDisk)
}

type bookKey struct {
	title, author string
	year          int
}

func keyOf(b Book) bookKey {
	k := bookKey{title: b.Title, author: b.Author, year: -1}
	if b.PublishYear != nil {
		k.year = *b.PublishYear
	}
	return k
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	source, _ := newTestStore(t)
	seedQueryBooks(t, source)

	var buf bytes.Buffer
	_, err := source.ExportAll(ctx, &buf)
	require.NoError(t, err)

	target, _ := newTestStore(t)
	result, err := target.Import(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Inserted: 5}, result)

	sourceBooks, err := source.Query(ctx, Filter{})
	require.NoError(t, err)
	targetBooks, err := target.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, targetBooks, len(sourceBooks))

	byKey := make(map[bookKey]Book)
	for _, b := range sourceBooks {
		byKey[keyOf(b)] = b
	}
	for _, got := range targetBooks {
		want, ok := byKey[keyOf(got)]
		require.True(t, ok, "unexpected book %q", got.Title)
		assert.Equal(t, want.Genre, got.Genre)
		assert.Equal(t, want.Summary, got.Summary)
		assert.Equal(t, want.CoverURL, got.CoverURL)
		assert.Equal(t, want.Source, got.Source)
		assert.Equal(t, want.SourceURL, got.SourceURL)
		assert.True(t, want.ParsedAt.Equal(got.ParsedAt))
	}
}

func TestImportSourcesShape(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	payload := `[
		{
			"title": "Master and Margarita",
			"author": "Mikhail Bulgakov",
			"year": 1967,
			"genre": "Fantasy",
			"summary": "The devil visits Moscow.",
			"coverUrl": "https://example.com/mm.jpg",
			"parsedAt": "2024-01-02T03:04:05.678901",
			"sources": [
				{"source": "goodreads", "sourceUrl": "https://example.com/mm"},
				{"source": "ignored", "sourceUrl": "https://example.com/ignored"}
			]
		},
		{"title": "Doctor Zhivago", "author": "Boris Pasternak"},
		{"title": "Doctor Zhivago", "author": "Boris Pasternak"},
		{"title": "No author"},
		{"author": "No title"},
		"not an object"
	]`

	result, err := store.Import(ctx, strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Inserted: 2, Duplicates: 1, Skipped: 3}, result)
	assert.Equal(t, 6, result.Total())

	books, err := store.Query(ctx, Filter{Title: "margarita"})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "goodreads", books[0].Source)
	assert.Equal(t, "https://example.com/mm", *books[0].SourceURL)
	assert.Equal(t, 1967, *books[0].PublishYear)
	assert.Equal(t, 2024, books[0].ParsedAt.Year())

	zhivago, err := store.Query(ctx, Filter{Title: "zhivago"})
	require.NoError(t, err)
	require.Len(t, zhivago, 1)
	assert.Equal(t, DefaultSource, zhivago[0].Source)
	assert.Nil(t, zhivago[0].SourceURL)
	assert.True(t, zhivago[0].ParsedAt.Equal(baseTime))
}

func TestExportKeepsFractionalParsedAt(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	payload := `[{"title": "Idiot", "author": "Fyodor Dostoevsky", "parsedAt": "2024-05-01T12:00:00.123456"}]`
	_, err := store.Import(ctx, strings.NewReader(payload))
	require.NoError(t, err)

	var buf bytes.Buffer
	exported, err := store.ExportAll(ctx, &buf)
	require.NoError(t, err)
	require.Len(t, exported, 1)
	assert.Equal(t, "2024-05-01T12:00:00.123456Z", exported[0].ParsedAt)
	assert.Contains(t, buf.String(), `"parsedAt": "2024-05-01T12:00:00.123456Z"`)
}

func TestImportFirstWriteWins(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	mustInsert(t, store, warAndPeace())

	payload := `[{"title": "War and Peace", "author": "Leo Tolstoy", "year": 1867, "genre": "Romance"}]`
	result, err := store.Import(ctx, strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Duplicates)

	books, err := store.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Fiction", *books[0].Genre)
}

func TestImportMalformedDocument(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Import(context.Background(), strings.NewReader(`{"title": "not an array"}`))
	require.Error(t, err)
}

func TestImportFile(t *testing.T) {
	env := testutil.NewTestEnv(t)
	store, _ := openTestStore(t, env.Path("books.db"))
	ctx := context.Background()

	result, err := store.ImportFile(ctx, env.Path("books_data.json"))
	require.NoError(t, err)
	assert.Equal(t, ImportResult{}, result)

	env.WriteFileString("books_data.json", `[{"title": "Idiot", "author": "Fyodor Dostoevsky", "year": 1869}]`)
	result, err = store.ImportFile(ctx, env.Path("books_data.json"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
}
