package openlibrary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/lepinkainen/bookshelf/internal/cache"
	"github.com/lepinkainen/bookshelf/internal/config"
	"github.com/lepinkainen/bookshelf/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const threeDocs = `{
  "numFound": 3,
  "docs": [
    {"title": "War and Peace", "author_name": ["Leo Tolstoy", "Translator"], "first_publish_year": 1867, "key": "/works/OL267096W"},
    {"title": "Anna Karenina", "author_name": [], "key": "/works/OL267090W"},
    {"title": "Resurrection", "author_name": ["Leo Tolstoy"], "first_publish_year": 1899, "key": "/works/OL267097W"}
  ]
}`

func newSearchServer(t *testing.T, body string, hits *atomic.Int32) (*httptest.Server, *Client) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if r.URL.Path != "/search.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	testutil.WithOpenLibraryServer(cfg, server.URL)
	cfg.OpenLibrary.RequestsPerSecond = 1000

	return server, NewClient(cfg.OpenLibrary, WithHTTPClient(server.Client()))
}

func TestSearchTruncatesToLimitInOrder(t *testing.T) {
	_, client := newSearchServer(t, threeDocs, nil)

	results := client.Search(context.Background(), "tolstoy", 2)
	require.Len(t, results, 2)

	require.NotNil(t, results[0].Title)
	assert.Equal(t, "War and Peace", *results[0].Title)
	assert.Equal(t, "Leo Tolstoy", results[0].Author)
	require.NotNil(t, results[0].PublishYear)
	assert.Equal(t, 1867, *results[0].PublishYear)
	require.NotNil(t, results[0].Key)
	assert.Equal(t, "/works/OL267096W", *results[0].Key)

	require.NotNil(t, results[1].Title)
	assert.Equal(t, "Anna Karenina", *results[1].Title)
}

func TestSearchMissingFields(t *testing.T) {
	_, client := newSearchServer(t, `{"docs":[{"title":"Anna Karenina","author_name":[]},{}]}`, nil)

	results := client.Search(context.Background(), "anna", 5)
	require.Len(t, results, 2)

	assert.Equal(t, DefaultAuthor, results[0].Author)
	assert.Nil(t, results[0].PublishYear)
	assert.Nil(t, results[0].Key)

	assert.Nil(t, results[1].Title)
	assert.Equal(t, DefaultAuthor, results[1].Author)
}

func TestSearchSendsQueryAndLimit(t *testing.T) {
	var gotQuery, gotLimit string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotLimit = r.URL.Query().Get("limit")
		_, _ = w.Write([]byte(`{"docs":[]}`))
	}))
	defer server.Close()

	cfg := testutil.WithOpenLibraryServer(config.Default(), server.URL)
	client := NewClient(cfg.OpenLibrary, WithHTTPClient(server.Client()))

	results := client.Search(context.Background(), "crime & punishment", 3)
	assert.Empty(t, results)
	assert.Equal(t, "crime & punishment", gotQuery)
	assert.Equal(t, "3", gotLimit)
}

func TestSearchFailuresYieldEmpty(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		payload string
	}{
		{name: "server error", status: http.StatusInternalServerError, payload: "boom"},
		{name: "rate limited", status: http.StatusTooManyRequests, payload: ""},
		{name: "invalid json", status: http.StatusOK, payload: `{"docs": [`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.payload))
			}))
			defer server.Close()

			cfg := testutil.WithOpenLibraryServer(config.Default(), server.URL)
			client := NewClient(cfg.OpenLibrary, WithHTTPClient(server.Client()))

			results := client.Search(context.Background(), "anything", 2)
			assert.NotNil(t, results)
			assert.Empty(t, results)
		})
	}
}

func TestSearchUnreachableHost(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	cfg := testutil.WithOpenLibraryServer(config.Default(), url)
	client := NewClient(cfg.OpenLibrary)

	assert.Empty(t, client.Search(context.Background(), "anything", 2))
}

func TestSearchNonPositiveLimit(t *testing.T) {
	var hits atomic.Int32
	_, client := newSearchServer(t, threeDocs, &hits)

	assert.Empty(t, client.Search(context.Background(), "tolstoy", 0))
	assert.Zero(t, hits.Load())
}

func TestSearchUsesCache(t *testing.T) {
	env := testutil.NewTestEnv(t)
	cacheDB, err := cache.NewCacheDB(env.Path("cache.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cacheDB.Close() })

	var hits atomic.Int32
	server, _ := newSearchServer(t, threeDocs, &hits)
	cfg := testutil.WithOpenLibraryServer(config.Default(), server.URL)
	cfg.OpenLibrary.RequestsPerSecond = 1000
	client := NewClient(cfg.OpenLibrary, WithHTTPClient(server.Client()), WithCache(cacheDB))

	first := client.Search(context.Background(), "tolstoy", 2)
	second := client.Search(context.Background(), "tolstoy", 2)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load())

	client.Search(context.Background(), "tolstoy", 3)
	assert.Equal(t, int32(2), hits.Load(), "a different limit is a different cache entry")
}
