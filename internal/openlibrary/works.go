package openlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/lepinkainen/bookshelf/internal/cache"
)

const worksPrefix = "/works/"

// NormalizeKey strips the "/works/" prefix search results carry, so
// "/works/OL123W" and "OL123W" name the same work.
func NormalizeKey(key string) string {
	return strings.TrimPrefix(strings.TrimSpace(key), worksPrefix)
}

// WorkURL returns the JSON endpoint for a work key.
func (c *Client) WorkURL(key string) string {
	return fmt.Sprintf("%s/%s.json", c.worksURL, url.PathEscape(NormalizeKey(key)))
}

// FetchDetails loads the work record for key. It returns nil when key is nil
// or empty, when the work does not exist or lacks its own key, and on any
// transport or decoding failure.
func (c *Client) FetchDetails(ctx context.Context, key *string) *DetailRecord {
	if key == nil {
		return nil
	}
	id := NormalizeKey(*key)
	if id == "" {
		return nil
	}

	isNotFound := func(l workLookup) bool { return l.NotFound }
	lookup, fromCache, err := cache.GetOrFetchWithTTL(c.cache, cache.WorkTable, id, func() (workLookup, error) {
		return c.fetchWork(ctx, id)
	}, cache.SelectNegativeCacheTTL(c.cacheTTL(), isNotFound))
	if err != nil {
		logFailure("OpenLibrary work fetch failed", err, "key", id)
		return nil
	}
	if lookup.NotFound || lookup.Work == nil {
		slog.Info("Work not found", "key", id, "cached", fromCache)
		return nil
	}

	return c.toDetail(id, lookup.Work)
}

func (c *Client) fetchWork(ctx context.Context, id string) (workLookup, error) {
	var work workRecord
	err := c.getJSON(ctx, c.WorkURL(id), &work)
	if errors.Is(err, ErrNotFound) {
		return workLookup{NotFound: true}, nil
	}
	if err != nil {
		return workLookup{}, err
	}
	return workLookup{Work: &work}, nil
}

func (c *Client) toDetail(id string, work *workRecord) *DetailRecord {
	if work.Key == "" {
		slog.Warn("Incomplete work record", "key", id)
		return nil
	}

	detail := &DetailRecord{
		Summary:   parseDescription(work.Description),
		Source:    Source,
		SourceURL: c.siteURL + work.Key,
	}
	if len(work.Subjects) > 0 {
		genre := work.Subjects[0]
		detail.Genre = &genre
	}
	if len(work.Covers) > 0 {
		cover := c.CoverURL(work.Covers[0])
		detail.CoverURL = &cover
	}
	return detail
}

// parseDescription accepts both the plain string form and the typed
// {"type": "/type/text", "value": "..."} form.
func parseDescription(raw json.RawMessage) *string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return &text
	}

	var typed struct {
		Value *string `json:"value"`
	}
	if err := json.Unmarshal(raw, &typed); err == nil {
		return typed.Value
	}
	return nil
}
