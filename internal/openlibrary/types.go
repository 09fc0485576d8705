package openlibrary

import "encoding/json"

const (
	// DefaultAuthor is used when a search result carries no author names.
	DefaultAuthor = "Unknown author"
	// Source tags every record fetched from OpenLibrary.
	Source = "openlibrary"
)

// Candidate is a single search hit. Optional fields are nil when the
// search document omitted them.
type Candidate struct {
	Title       *string `json:"title,omitempty"`
	Author      string  `json:"author"`
	PublishYear *int    `json:"publishYear,omitempty"`
	Key         *string `json:"key,omitempty"`
}

// DetailRecord holds the fields taken from a work record.
type DetailRecord struct {
	Summary   *string `json:"summary,omitempty"`
	Genre     *string `json:"genre,omitempty"`
	CoverURL  *string `json:"coverUrl,omitempty"`
	Source    string  `json:"source"`
	SourceURL string  `json:"sourceUrl"`
}

type searchResponse struct {
	Docs []searchDoc `json:"docs"`
}

type searchDoc struct {
	Title            *string  `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear *int     `json:"first_publish_year"`
	Key              *string  `json:"key"`
}

// workRecord is the subset of /works/<id>.json that bookshelf reads.
// Description is either a plain string or {"type": ..., "value": ...}.
type workRecord struct {
	Key         string          `json:"key"`
	Description json.RawMessage `json:"description,omitempty"`
	Covers      []int64         `json:"covers,omitempty"`
	Subjects    []string        `json:"subjects,omitempty"`
}

// workLookup is what gets cached per work id, so missing works can be
// remembered as well.
type workLookup struct {
	NotFound bool        `json:"not_found"`
	Work     *workRecord `json:"work,omitempty"`
}
