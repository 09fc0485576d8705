// Package pipeline drives a fetch run: search each query, fetch the details
// of every candidate at a polite pace, and store what is new.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lepinkainen/bookshelf/internal/catalog"
	bserrors "github.com/lepinkainen/bookshelf/internal/errors"
	"github.com/lepinkainen/bookshelf/internal/openlibrary"
)

// DefaultQueries is the query list used when a run is given none.
var DefaultQueries = []string{
	"War and Peace",
	"Война и мир",
	"Crime and Punishment",
	"Master and Margarita",
	"Dead Souls Gogol",
	"Idiot Dostoevsky",
	"Fathers and Sons Turgenev",
	"Eugene Onegin",
	"Hero of Our Time Lermontov",
	"Doctor Zhivago",
}

// Searcher finds candidates for a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) []openlibrary.Candidate
}

// DetailFetcher loads the detail record for a candidate key.
type DetailFetcher interface {
	FetchDetails(ctx context.Context, key *string) *openlibrary.DetailRecord
}

// Inserter stores a book unless it already exists, returning nil for a
// duplicate.
type Inserter interface {
	Insert(ctx context.Context, book catalog.NewBook) (*catalog.Book, error)
}

// Pauser waits between detail fetches.
type Pauser interface {
	Pause(ctx context.Context) error
}

// Selector narrows the candidates of one query before details are fetched.
// Returning an empty slice skips the query; a StopProcessingError ends the
// run.
type Selector func(query string, candidates []openlibrary.Candidate) ([]openlibrary.Candidate, error)

// Pipeline wires a search client, a detail fetcher and a store together.
type Pipeline struct {
	searcher Searcher
	fetcher  DetailFetcher
	store    Inserter
	pacer    Pauser
	selector Selector
	now      func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPacer sets the pause taken before every detail fetch, usually a
// *ratelimit.Pacer.
func WithPacer(p Pauser) Option {
	return func(pl *Pipeline) {
		pl.pacer = p
	}
}

// WithSelector lets a caller pick candidates per query, e.g. interactively.
func WithSelector(s Selector) Option {
	return func(pl *Pipeline) {
		pl.selector = s
	}
}

// New creates a Pipeline. Without WithPacer it does not pause.
func New(searcher Searcher, fetcher DetailFetcher, store Inserter, opts ...Option) *Pipeline {
	p := &Pipeline{
		searcher: searcher,
		fetcher:  fetcher,
		store:    store,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes queries in order and returns the books that were inserted.
// Failures of a single candidate are logged and skipped. Cancelling ctx or a
// stop from the selector ends the run early with the books stored so far
// and the cause as error.
func (p *Pipeline) Run(ctx context.Context, queries []string, limitPerQuery int) ([]catalog.Book, error) {
	inserted := []catalog.Book{}

	for _, query := range queries {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}

		slog.Info("Processing query", "query", query)
		candidates := p.searcher.Search(ctx, query, limitPerQuery)
		slog.Info("Found candidates", "query", query, "count", len(candidates))

		if p.selector != nil && len(candidates) > 0 {
			selected, err := p.selector(query, candidates)
			if err != nil {
				if bserrors.IsStopProcessingError(err) {
					slog.Info("Run stopped by user", "inserted", len(inserted))
				}
				return inserted, err
			}
			candidates = selected
		}

		for _, candidate := range candidates {
			book, err := p.processCandidate(ctx, candidate)
			if err != nil {
				if ctx.Err() != nil {
					return inserted, ctx.Err()
				}
				slog.Error("Failed to process book", "query", query, "title", titleOf(candidate), "error", err)
				continue
			}
			if book != nil {
				inserted = append(inserted, *book)
			}
		}
	}

	slog.Info("Run complete", "inserted", len(inserted))
	return inserted, nil
}

// processCandidate handles a single candidate, converting a panic into an
// error so one bad record cannot end the run.
func (p *Pipeline) processCandidate(ctx context.Context, candidate openlibrary.Candidate) (book *catalog.Book, err error) {
	defer func() {
		if r := recover(); r != nil {
			book = nil
			err = fmt.Errorf("panic while processing candidate: %v", r)
		}
	}()

	if candidate.Title == nil || *candidate.Title == "" {
		slog.Warn("Skipping candidate without title", "key", keyOf(candidate))
		return nil, nil
	}

	if p.pacer != nil {
		if err := p.pacer.Pause(ctx); err != nil {
			return nil, err
		}
	}

	detail := p.fetcher.FetchDetails(ctx, candidate.Key)
	if detail == nil {
		slog.Debug("No details, skipping", "title", *candidate.Title, "key", keyOf(candidate))
		return nil, nil
	}

	stored, err := p.store.Insert(ctx, Merge(candidate, detail, p.now()))
	if err != nil {
		if errors.Is(err, catalog.ErrInvalidBook) {
			slog.Warn("Skipping invalid book", "title", *candidate.Title, "error", err)
			return nil, nil
		}
		return nil, err
	}
	if stored == nil {
		slog.Warn("Book was not added, already in catalog", "title", *candidate.Title, "author", candidate.Author)
		return nil, nil
	}

	slog.Info("Book added", "title", stored.Title, "author", stored.Author)
	return stored, nil
}

// Merge combines a search candidate with its detail record. The candidate
// supplies title, author and year; the detail supplies the rest.
func Merge(candidate openlibrary.Candidate, detail *openlibrary.DetailRecord, parsedAt time.Time) catalog.NewBook {
	nb := catalog.NewBook{
		Author:      candidate.Author,
		PublishYear: candidate.PublishYear,
		ParsedAt:    &parsedAt,
	}
	if candidate.Title != nil {
		nb.Title = *candidate.Title
	}
	if detail != nil {
		nb.Genre = detail.Genre
		nb.Summary = detail.Summary
		nb.CoverURL = detail.CoverURL
		nb.Source = detail.Source
		if detail.SourceURL != "" {
			sourceURL := detail.SourceURL
			nb.SourceURL = &sourceURL
		}
	}
	return nb
}

func titleOf(c openlibrary.Candidate) string {
	if c.Title == nil {
		return ""
	}
	return *c.Title
}

func keyOf(c openlibrary.Candidate) string {
	if c.Key == nil {
		return ""
	}
	return *c.Key
}
