package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lepinkainen/bookshelf/internal/fileutil"
)

// ExportedBook is the flat JSON shape written by ExportAll.
type ExportedBook struct {
	ID        int64   `json:"id" yaml:"id"`
	Title     string  `json:"title" yaml:"title"`
	Author    string  `json:"author" yaml:"author"`
	Year      *int    `json:"year" yaml:"year"`
	Genre     *string `json:"genre" yaml:"genre"`
	Summary   *string `json:"summary" yaml:"summary"`
	CoverURL  *string `json:"coverUrl" yaml:"coverUrl"`
	Source    string  `json:"source" yaml:"source"`
	SourceURL *string `json:"sourceUrl" yaml:"sourceUrl"`
	ParsedAt  string  `json:"parsedAt" yaml:"parsedAt"`
}

// ToExported projects a book onto the export shape.
func ToExported(b Book) ExportedBook {
	return ExportedBook{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		Year:      b.PublishYear,
		Genre:     b.Genre,
		Summary:   b.Summary,
		CoverURL:  b.CoverURL,
		Source:    b.Source,
		SourceURL: b.SourceURL,
		ParsedAt:  b.ParsedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (s *Store) exportBooks(ctx context.Context) ([]ExportedBook, error) {
	books, err := s.Query(ctx, Filter{})
	if err != nil {
		return nil, err
	}

	exported := make([]ExportedBook, 0, len(books))
	for _, b := range books {
		exported = append(exported, ToExported(b))
	}
	return exported, nil
}

// ExportAll writes every book to w as an indented JSON array and returns
// what it wrote.
func (s *Store) ExportAll(ctx context.Context, w io.Writer) ([]ExportedBook, error) {
	exported, err := s.exportBooks(ctx)
	if err != nil {
		return nil, err
	}

	if err := fileutil.EncodeJSON(w, exported); err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return exported, nil
}

// ExportFile writes the export to path, replacing any previous file.
func (s *Store) ExportFile(ctx context.Context, path string) ([]ExportedBook, error) {
	exported, err := s.exportBooks(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := fileutil.WriteJSONFile(exported, path, true); err != nil {
		return nil, fmt.Errorf("failed to write export file: %w", err)
	}

	slog.Info("Exported catalog", "path", path, "books", len(exported))
	return exported, nil
}

// ImportSource is one entry of an imported book's sources list.
type ImportSource struct {
	Source    string  `json:"source"`
	SourceURL *string `json:"sourceUrl"`
}

// ImportedBook is one element of an import file. Books may either carry a
// sources list or the flat source/sourceUrl fields of the export shape.
type ImportedBook struct {
	Title     *string        `json:"title"`
	Author    *string        `json:"author"`
	Year      *int           `json:"year"`
	Genre     *string        `json:"genre"`
	Summary   *string        `json:"summary"`
	CoverURL  *string        `json:"coverUrl"`
	ParsedAt  *string        `json:"parsedAt"`
	Sources   []ImportSource `json:"sources"`
	Source    *string        `json:"source"`
	SourceURL *string        `json:"sourceUrl"`
}

// ImportResult counts what happened to each element of an import.
type ImportResult struct {
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Skipped    int `json:"skipped"`
}

// Total is the number of elements read.
func (r ImportResult) Total() int {
	return r.Inserted + r.Duplicates + r.Skipped
}

func (ib ImportedBook) toNewBook() (NewBook, error) {
	nb := NewBook{
		PublishYear: ib.Year,
		Genre:       ib.Genre,
		Summary:     ib.Summary,
		CoverURL:    ib.CoverURL,
		Source:      DefaultSource,
	}
	if ib.Title != nil {
		nb.Title = *ib.Title
	}
	if ib.Author != nil {
		nb.Author = *ib.Author
	}

	switch {
	case len(ib.Sources) > 0:
		if ib.Sources[0].Source != "" {
			nb.Source = ib.Sources[0].Source
		}
		nb.SourceURL = ib.Sources[0].SourceURL
	case ib.Source != nil || ib.SourceURL != nil:
		if ib.Source != nil && *ib.Source != "" {
			nb.Source = *ib.Source
		}
		nb.SourceURL = ib.SourceURL
	}

	if ib.ParsedAt != nil && *ib.ParsedAt != "" {
		parsedAt, err := ParseTimestamp(*ib.ParsedAt)
		if err != nil {
			return NewBook{}, err
		}
		nb.ParsedAt = &parsedAt
	}

	return nb, nb.validate()
}

// Import reads a JSON array of books from r and inserts each one that is
// not already stored. Elements that cannot be inserted are logged and
// counted as skipped; only a malformed document or a store failure is an
// error.
func (s *Store) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	var result ImportResult

	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return result, fmt.Errorf("failed to decode import data: %w", err)
	}

	for i, item := range raw {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		var ib ImportedBook
		if err := json.Unmarshal(item, &ib); err != nil {
			slog.Warn("Skipping malformed import entry", "index", i, "error", err)
			result.Skipped++
			continue
		}

		nb, err := ib.toNewBook()
		if err != nil {
			slog.Warn("Skipping invalid import entry", "index", i, "error", err)
			result.Skipped++
			continue
		}

		book, err := s.Insert(ctx, nb)
		if err != nil {
			if errors.Is(err, ErrInvalidBook) {
				slog.Warn("Skipping invalid import entry", "index", i, "error", err)
				result.Skipped++
				continue
			}
			return result, err
		}
		if book == nil {
			result.Duplicates++
			continue
		}
		result.Inserted++
	}

	slog.Info("Import complete", "inserted", result.Inserted, "duplicates", result.Duplicates, "skipped", result.Skipped)
	return result, nil
}

// ImportFile imports path. A missing file is not an error and imports
// nothing.
func (s *Store) ImportFile(ctx context.Context, path string) (ImportResult, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("No import file, skipping", "path", path)
		return ImportResult{}, nil
	}
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to open import file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return s.Import(ctx, f)
}
