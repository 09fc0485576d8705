package api

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/lepinkainen/bookshelf/internal/catalog"
)

// CreateBookRequest is the body of POST /books, in the export field names.
type CreateBookRequest struct {
	Title     string  `json:"title"`
	Author    string  `json:"author"`
	Year      *int    `json:"year"`
	Genre     *string `json:"genre"`
	Summary   *string `json:"summary"`
	CoverURL  *string `json:"coverUrl"`
	Source    string  `json:"source"`
	SourceURL *string `json:"sourceUrl"`
	ParsedAt  *string `json:"parsedAt"`
}

// Validate checks the required fields.
func (r CreateBookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Author, validation.Required),
	)
}

func (r CreateBookRequest) toNewBook() (catalog.NewBook, error) {
	nb := catalog.NewBook{
		Title:       strings.TrimSpace(r.Title),
		Author:      strings.TrimSpace(r.Author),
		PublishYear: r.Year,
		Genre:       r.Genre,
		Summary:     r.Summary,
		CoverURL:    r.CoverURL,
		Source:      r.Source,
		SourceURL:   r.SourceURL,
	}
	if r.ParsedAt != nil && *r.ParsedAt != "" {
		parsedAt, err := catalog.ParseTimestamp(*r.ParsedAt)
		if err != nil {
			return catalog.NewBook{}, errors.New("parsedAt: " + err.Error())
		}
		nb.ParsedAt = &parsedAt
	}
	return nb, nil
}

// UpdateBookRequest is the body of PUT /books/{id}. Omitted fields are left
// unchanged and fields named in Clear are reset to null.
type UpdateBookRequest struct {
	Title     *string `json:"title"`
	Author    *string `json:"author"`
	Year      *int    `json:"year"`
	Genre     *string `json:"genre"`
	Summary   *string `json:"summary"`
	CoverURL  *string `json:"coverUrl"`
	Source    *string `json:"source"`
	SourceURL *string `json:"sourceUrl"`

	// Clear lists nullable fields to reset, e.g. ["genre", "cover-url"].
	Clear []catalog.Field `json:"clear"`
}

func (r UpdateBookRequest) toUpdate() catalog.BookUpdate {
	return catalog.BookUpdate{
		Title:       r.Title,
		Author:      r.Author,
		PublishYear: r.Year,
		Genre:       r.Genre,
		Summary:     r.Summary,
		CoverURL:    r.CoverURL,
		Source:      r.Source,
		SourceURL:   r.SourceURL,
		Clear:       r.Clear,
	}
}

// BookResponse is a book as returned by the API. It is the export shape
// plus the store-managed timestamps.
type BookResponse struct {
	catalog.ExportedBook
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toResponse(b catalog.Book) BookResponse {
	return BookResponse{
		ExportedBook: catalog.ToExported(b),
		CreatedAt:    b.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:    b.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toResponses(books []catalog.Book) []BookResponse {
	out := make([]BookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, toResponse(b))
	}
	return out
}
