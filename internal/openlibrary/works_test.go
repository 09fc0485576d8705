package openlibrary

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/lepinkainen/bookshelf/internal/cache"
	"github.com/lepinkainen/bookshelf/internal/config"
	bserrors "github.com/lepinkainen/bookshelf/internal/errors"
	"github.com/lepinkainen/bookshelf/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const workURL = "https://openlibrary.org/works/OL123W.json"

func setupHTTPMock(t *testing.T, opts ...Option) *Client {
	t.Helper()

	httpClient := &http.Client{}
	httpmock.ActivateNonDefault(httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)

	cfg := config.Default().OpenLibrary
	cfg.RequestsPerSecond = 1000
	return NewClient(cfg, append([]Option{WithHTTPClient(httpClient)}, opts...)...)
}

func strPtr(s string) *string { return &s }

func TestWorkURLPrefixEquivalence(t *testing.T) {
	client := NewClient(config.Default().OpenLibrary)

	assert.Equal(t, client.WorkURL("OL123W"), client.WorkURL("/works/OL123W"))
	assert.Equal(t, workURL, client.WorkURL("/works/OL123W"))
	assert.Equal(t, "OL123W", NormalizeKey(" /works/OL123W "))
}

func TestFetchDetailsStringDescription(t *testing.T) {
	client := setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodGet, workURL, httpmock.NewStringResponder(http.StatusOK, `{
		"key": "/works/OL123W",
		"description": "A long novel.",
		"covers": [555, 556],
		"subjects": ["Fiction", "History"]
	}`))

	detail := client.FetchDetails(context.Background(), strPtr("/works/OL123W"))
	require.NotNil(t, detail)

	require.NotNil(t, detail.Summary)
	assert.Equal(t, "A long novel.", *detail.Summary)
	require.NotNil(t, detail.Genre)
	assert.Equal(t, "Fiction", *detail.Genre)
	require.NotNil(t, detail.CoverURL)
	assert.Equal(t, "https://covers.openlibrary.org/b/id/555-L.jpg", *detail.CoverURL)
	assert.Equal(t, Source, detail.Source)
	assert.Equal(t, "https://openlibrary.org/works/OL123W", detail.SourceURL)
}

func TestFetchDetailsTypedDescription(t *testing.T) {
	client := setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodGet, workURL, httpmock.NewStringResponder(http.StatusOK, `{
		"key": "/works/OL123W",
		"description": {"type": "/type/text", "value": "Typed text."}
	}`))

	detail := client.FetchDetails(context.Background(), strPtr("OL123W"))
	require.NotNil(t, detail)
	require.NotNil(t, detail.Summary)
	assert.Equal(t, "Typed text.", *detail.Summary)
	assert.Nil(t, detail.Genre)
	assert.Nil(t, detail.CoverURL)
}

func TestFetchDetailsNilOrEmptyKey(t *testing.T) {
	client := setupHTTPMock(t)

	assert.Nil(t, client.FetchDetails(context.Background(), nil))
	assert.Nil(t, client.FetchDetails(context.Background(), strPtr("")))
	assert.Nil(t, client.FetchDetails(context.Background(), strPtr("/works/")))
	assert.Zero(t, httpmock.GetTotalCallCount())
}

func TestFetchDetailsIncompleteRecord(t *testing.T) {
	client := setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodGet, workURL, httpmock.NewStringResponder(http.StatusOK, `{"description": "no key"}`))

	assert.Nil(t, client.FetchDetails(context.Background(), strPtr("OL123W")))
}

func TestFetchDetailsFailures(t *testing.T) {
	testCases := []struct {
		name      string
		responder httpmock.Responder
	}{
		{name: "not found", responder: httpmock.NewStringResponder(http.StatusNotFound, `{"error": "notfound"}`)},
		{name: "server error", responder: httpmock.NewStringResponder(http.StatusBadGateway, "bad gateway")},
		{name: "rate limited", responder: httpmock.NewStringResponder(http.StatusTooManyRequests, "")},
		{name: "invalid json", responder: httpmock.NewStringResponder(http.StatusOK, "<html>")},
		{name: "transport error", responder: httpmock.NewErrorResponder(context.DeadlineExceeded)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := setupHTTPMock(t)
			httpmock.RegisterResponder(http.MethodGet, workURL, tc.responder)

			assert.Nil(t, client.FetchDetails(context.Background(), strPtr("OL123W")))
			assert.Equal(t, 1, httpmock.GetTotalCallCount())
		})
	}
}

func TestFetchDetailsCachesNotFound(t *testing.T) {
	env := testutil.NewTestEnv(t)
	cacheDB, err := cache.NewCacheDB(env.Path("cache.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cacheDB.Close() })

	client := setupHTTPMock(t, WithCache(cacheDB))
	httpmock.RegisterResponder(http.MethodGet, workURL, httpmock.NewStringResponder(http.StatusNotFound, ""))

	assert.Nil(t, client.FetchDetails(context.Background(), strPtr("OL123W")))
	assert.Nil(t, client.FetchDetails(context.Background(), strPtr("/works/OL123W")))
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestFetchDetailsDoesNotCacheFailures(t *testing.T) {
	env := testutil.NewTestEnv(t)
	cacheDB, err := cache.NewCacheDB(env.Path("cache.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cacheDB.Close() })

	client := setupHTTPMock(t, WithCache(cacheDB))
	httpmock.RegisterResponder(http.MethodGet, workURL, httpmock.NewStringResponder(http.StatusInternalServerError, ""))
	assert.Nil(t, client.FetchDetails(context.Background(), strPtr("OL123W")))

	httpmock.RegisterResponder(http.MethodGet, workURL, httpmock.NewStringResponder(http.StatusOK, `{"key": "/works/OL123W"}`))
	detail := client.FetchDetails(context.Background(), strPtr("OL123W"))
	require.NotNil(t, detail)
	assert.Nil(t, detail.Summary)
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}

func TestCheckStatusRateLimit(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusTooManyRequests,
		Header:     http.Header{"Retry-After": []string{"30"}},
	}

	err := checkStatus(resp)
	require.Error(t, err)
	assert.True(t, bserrors.IsRateLimitError(err))

	var rateErr *bserrors.RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, 30*time.Second, rateErr.RetryAfter)
}

func TestCheckStatusRateLimitWithoutRetryAfter(t *testing.T) {
	resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{}}

	err := checkStatus(resp)
	var rateErr *bserrors.RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Zero(t, rateErr.RetryAfter)
	assert.Equal(t, "openlibrary rate limit exceeded", err.Error())
}

func TestParseDescription(t *testing.T) {
	assert.Nil(t, parseDescription(nil))
	assert.Nil(t, parseDescription([]byte("null")))
	assert.Nil(t, parseDescription([]byte(`{"type": "/type/text"}`)))
	assert.Nil(t, parseDescription([]byte(`42`)))

	got := parseDescription([]byte(`"plain"`))
	require.NotNil(t, got)
	assert.Equal(t, "plain", *got)
}

func TestCoverURL(t *testing.T) {
	client := NewClient(config.Default().OpenLibrary)

	assert.Equal(t, "https://covers.openlibrary.org/b/id/123-L.jpg", client.CoverURL(123))
	assert.Equal(t, "https://covers.openlibrary.org/b/id/-1-L.jpg", client.CoverURL(-1))
}

func TestFetchDetailsUsesFirstCoverEvenWhenNegative(t *testing.T) {
	client := setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodGet, workURL, httpmock.NewStringResponder(http.StatusOK, `{
		"key": "/works/OL123W",
		"covers": [-1, 555]
	}`))

	detail := client.FetchDetails(context.Background(), strPtr("OL123W"))
	require.NotNil(t, detail)
	require.NotNil(t, detail.CoverURL)
	assert.Equal(t, "https://covers.openlibrary.org/b/id/-1-L.jpg", *detail.CoverURL)
}
