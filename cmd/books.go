package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/lepinkainen/bookshelf/internal/catalog"
	"github.com/lepinkainen/bookshelf/internal/config"
)

// ListCmd prints catalog books
type ListCmd struct {
	Title  string `help:"Case-insensitive title substring"`
	Author string `help:"Case-insensitive author substring"`
	Genre  string `help:"Exact genre"`
	Format string `help:"Output format" enum:"text,json,yaml" default:"text"`
}

func (l *ListCmd) Run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	books, err := store.Query(ctx, catalog.Filter{Title: l.Title, Author: l.Author, Genre: l.Genre})
	if err != nil {
		return err
	}
	return renderBooks(out, l.Format, books)
}

// ShowCmd prints one book
type ShowCmd struct {
	ID     int64  `arg:"" help:"Book ID"`
	Format string `help:"Output format" enum:"text,json,yaml" default:"text"`
}

func (s *ShowCmd) Run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	book, err := store.Get(ctx, s.ID)
	if err != nil {
		return err
	}
	if book == nil {
		return fmt.Errorf("book %d not found", s.ID)
	}
	return renderBook(out, s.Format, *book)
}

// GenresCmd prints the distinct genres
type GenresCmd struct {
	Format string `help:"Output format" enum:"text,json,yaml" default:"text"`
}

func (g *GenresCmd) Run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	genres, err := store.ListGenres(ctx)
	if err != nil {
		return err
	}
	return renderGenres(out, g.Format, genres)
}

// UpdateCmd changes the given fields of a book; omitted flags stay as they are
type UpdateCmd struct {
	ID        int64   `arg:"" help:"Book ID"`
	Title     *string `help:"New title"`
	Author    *string `help:"New author"`
	Year      *int    `help:"New publish year"`
	Genre     *string `help:"New genre"`
	Summary   *string `help:"New summary"`
	CoverURL  *string `name:"cover-url" help:"New cover image URL"`
	Source    *string `help:"New source name"`
	SourceURL *string `name:"source-url" help:"New source page URL"`

	Clear []catalog.Field `help:"Reset fields to empty: year, genre, summary, cover-url, source-url" placeholder:"FIELD"`
}

func (u *UpdateCmd) Run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	book, err := store.Update(ctx, u.ID, catalog.BookUpdate{
		Title:       u.Title,
		Author:      u.Author,
		PublishYear: u.Year,
		Genre:       u.Genre,
		Summary:     u.Summary,
		CoverURL:    u.CoverURL,
		Source:      u.Source,
		SourceURL:   u.SourceURL,
		Clear:       u.Clear,
	})
	if err != nil {
		return err
	}
	if book == nil {
		return fmt.Errorf("book %d not found", u.ID)
	}
	return renderBook(out, formatText, *book)
}

// DeleteCmd removes a book
type DeleteCmd struct {
	ID int64 `arg:"" help:"Book ID"`
}

func (d *DeleteCmd) Run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	deleted, err := store.Delete(ctx, d.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("book %d not found", d.ID)
	}
	_, err = fmt.Fprintf(out, "Deleted book %d\n", d.ID)
	return err
}
