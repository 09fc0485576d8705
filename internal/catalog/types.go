package catalog

import (
	"errors"
	"fmt"
	"time"
)

// DefaultSource is stored when a book does not say where it came from.
const DefaultSource = "unknown"

var (
	// ErrDuplicate is returned when an update would make a book collide with
	// another row on (title, author, publish_year).
	ErrDuplicate = errors.New("book with the same title, author and year already exists")
	// ErrInvalidBook is returned when a required field is missing.
	ErrInvalidBook = errors.New("invalid book")
)

// Book is a persisted catalog row.
type Book struct {
	ID          int64
	Title       string
	Author      string
	PublishYear *int
	Genre       *string
	Summary     *string
	CoverURL    *string
	Source      string
	SourceURL   *string
	ParsedAt    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewBook is the input to Insert. A nil ParsedAt means now and an empty
// Source means DefaultSource.
type NewBook struct {
	Title       string
	Author      string
	PublishYear *int
	Genre       *string
	Summary     *string
	CoverURL    *string
	Source      string
	SourceURL   *string
	ParsedAt    *time.Time
}

// Field names a nullable book column that an update can reset to NULL.
type Field string

const (
	FieldYear      Field = "year"
	FieldGenre     Field = "genre"
	FieldSummary   Field = "summary"
	FieldCoverURL  Field = "cover-url"
	FieldSourceURL Field = "source-url"
)

var fieldColumns = map[Field]string{
	FieldYear:      "publish_year",
	FieldGenre:     "genre",
	FieldSummary:   "summary",
	FieldCoverURL:  "cover_url",
	FieldSourceURL: "source_url",
}

// BookUpdate is a partial update; nil fields are left untouched and fields
// listed in Clear are set to NULL.
type BookUpdate struct {
	Title       *string
	Author      *string
	PublishYear *int
	Genre       *string
	Summary     *string
	CoverURL    *string
	Source      *string
	SourceURL   *string
	Clear       []Field
}

func (u BookUpdate) sets(f Field) bool {
	switch f {
	case FieldYear:
		return u.PublishYear != nil
	case FieldGenre:
		return u.Genre != nil
	case FieldSummary:
		return u.Summary != nil
	case FieldCoverURL:
		return u.CoverURL != nil
	case FieldSourceURL:
		return u.SourceURL != nil
	}
	return false
}

// Filter narrows Query. Title and Author match case-insensitive substrings,
// Genre matches exactly. Empty fields are ignored.
type Filter struct {
	Title  string
	Author string
	Genre  string
}

// IsEmpty reports whether the filter matches every book.
func (f Filter) IsEmpty() bool {
	return f.Title == "" && f.Author == "" && f.Genre == ""
}

func (b NewBook) validate() error {
	if b.Title == "" {
		return errors.Join(ErrInvalidBook, errors.New("title is required"))
	}
	if b.Author == "" {
		return errors.Join(ErrInvalidBook, errors.New("author is required"))
	}
	return nil
}

func (u BookUpdate) validate() error {
	if u.Title != nil && *u.Title == "" {
		return errors.Join(ErrInvalidBook, errors.New("title cannot be empty"))
	}
	if u.Author != nil && *u.Author == "" {
		return errors.Join(ErrInvalidBook, errors.New("author cannot be empty"))
	}
	for _, f := range u.Clear {
		if _, ok := fieldColumns[f]; !ok {
			return errors.Join(ErrInvalidBook, fmt.Errorf("field %q cannot be cleared", f))
		}
		if u.sets(f) {
			return errors.Join(ErrInvalidBook, fmt.Errorf("field %q is both set and cleared", f))
		}
	}
	return nil
}
