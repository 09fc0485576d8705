package openlibrary

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/lepinkainen/bookshelf/internal/cache"
)

// Search queries the search endpoint and returns at most limit candidates in
// the order OpenLibrary ranked them. Failures are logged and produce an empty
// slice.
func (c *Client) Search(ctx context.Context, query string, limit int) []Candidate {
	if limit <= 0 {
		return []Candidate{}
	}

	cacheKey := fmt.Sprintf("%s|%d", query, limit)
	response, fromCache, err := cache.GetOrFetch(c.cache, cache.SearchTable, cacheKey, func() (searchResponse, error) {
		return c.fetchSearch(ctx, query, limit)
	})
	if err != nil {
		logFailure("OpenLibrary search failed", err, "query", query)
		return []Candidate{}
	}

	docs := response.Docs
	if len(docs) > limit {
		docs = docs[:limit]
	}

	candidates := make([]Candidate, 0, len(docs))
	for _, doc := range docs {
		candidates = append(candidates, toCandidate(doc))
	}

	slog.Debug("Search complete", "query", query, "results", len(candidates), "cached", fromCache)
	return candidates
}

func (c *Client) fetchSearch(ctx context.Context, query string, limit int) (searchResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	var response searchResponse
	if err := c.getJSON(ctx, c.searchURL+"?"+params.Encode(), &response); err != nil {
		return searchResponse{}, err
	}
	return response, nil
}

func toCandidate(doc searchDoc) Candidate {
	author := DefaultAuthor
	if len(doc.AuthorName) > 0 {
		author = doc.AuthorName[0]
	}
	return Candidate{
		Title:       doc.Title,
		Author:      author,
		PublishYear: doc.FirstPublishYear,
		Key:         doc.Key,
	}
}
