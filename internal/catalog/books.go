package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*Book, error) {
	var (
		book      Book
		year      sql.NullInt64
		genre     sql.NullString
		summary   sql.NullString
		coverURL  sql.NullString
		source    sql.NullString
		sourceURL sql.NullString
		parsedAt  nullTime
		createdAt nullTime
		updatedAt nullTime
	)

	if err := row.Scan(
		&book.ID, &book.Title, &book.Author, &year, &genre, &summary, &coverURL,
		&source, &sourceURL, &parsedAt, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	if year.Valid {
		y := int(year.Int64)
		book.PublishYear = &y
	}
	book.Genre = nullableString(genre)
	book.Summary = nullableString(summary)
	book.CoverURL = nullableString(coverURL)
	book.SourceURL = nullableString(sourceURL)
	book.Source = DefaultSource
	if source.Valid {
		book.Source = source.String
	}
	book.ParsedAt = parsedAt.Time
	book.CreatedAt = createdAt.Time
	book.UpdatedAt = updatedAt.Time

	return &book, nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// nullable turns an optional field into a driver value, nil meaning NULL.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func getBook(ctx context.Context, conn *sql.Conn, id int64) (*Book, error) {
	row := conn.QueryRowContext(ctx, "SELECT "+bookColumns+" FROM books WHERE id = ?", id)
	book, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load book %d: %w", id, err)
	}
	return book, nil
}

// Insert adds a book unless one with the same title, author and year is
// already stored. A collision returns a nil book and no error.
func (s *Store) Insert(ctx context.Context, nb NewBook) (*Book, error) {
	if err := nb.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	parsedAt := now
	if nb.ParsedAt != nil && !nb.ParsedAt.IsZero() {
		parsedAt = *nb.ParsedAt
	}
	source := nb.Source
	if source == "" {
		source = DefaultSource
	}

	var inserted *Book
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, `
			INSERT OR IGNORE INTO books (
				title, author, publish_year, genre, summary,
				source_url, cover_url, parsed_at, source, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			nb.Title, nb.Author, nullable(nb.PublishYear), nullable(nb.Genre), nullable(nb.Summary),
			nullable(nb.SourceURL), nullable(nb.CoverURL), formatTimestamp(parsedAt), source,
			formatTimestamp(now), formatTimestamp(now),
		)
		if err != nil {
			return fmt.Errorf("failed to insert book: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return nil
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get inserted id: %w", err)
		}
		inserted, err = getBook(ctx, conn, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if inserted == nil {
		slog.Debug("Book already in catalog", "title", nb.Title, "author", nb.Author)
	}
	return inserted, nil
}

// Get returns the book with id, or nil when there is none.
func (s *Store) Get(ctx context.Context, id int64) (*Book, error) {
	var book *Book
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		var err error
		book, err = getBook(ctx, conn, id)
		return err
	})
	return book, err
}

// Update applies the non-nil fields of u to book id, nulls the fields in
// u.Clear and bumps updated_at.
// It returns the resulting row, nil when id does not exist, or ErrDuplicate
// when the change collides with another book.
func (s *Store) Update(ctx context.Context, id int64, u BookUpdate) (*Book, error) {
	if err := u.validate(); err != nil {
		return nil, err
	}

	var sets []string
	var args []any
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if u.Title != nil {
		set("title", *u.Title)
	}
	if u.Author != nil {
		set("author", *u.Author)
	}
	if u.PublishYear != nil {
		set("publish_year", *u.PublishYear)
	}
	if u.Genre != nil {
		set("genre", *u.Genre)
	}
	if u.Summary != nil {
		set("summary", *u.Summary)
	}
	if u.CoverURL != nil {
		set("cover_url", *u.CoverURL)
	}
	if u.Source != nil {
		set("source", *u.Source)
	}
	if u.SourceURL != nil {
		set("source_url", *u.SourceURL)
	}
	for _, f := range u.Clear {
		set(fieldColumns[f], nil)
	}
	set("updated_at", formatTimestamp(s.now()))
	args = append(args, id)

	var updated *Book
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, "UPDATE books SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("failed to update book %d: %w", id, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return nil
		}

		updated, err = getBook(ctx, conn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes book id. It reports false when there was no such book.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, "DELETE FROM books WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete book %d: %w", id, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		deleted = affected > 0
		return nil
	})
	return deleted, err
}

// Query returns the books matching f in insertion order. Title and author
// are compared case-insensitively in Go so non-ASCII titles fold correctly.
func (s *Store) Query(ctx context.Context, f Filter) ([]Book, error) {
	query := "SELECT " + bookColumns + " FROM books"
	var args []any
	if f.Genre != "" {
		query += " WHERE genre = ?"
		args = append(args, f.Genre)
	}
	query += " ORDER BY id"

	titleNeedle := strings.ToLower(f.Title)
	authorNeedle := strings.ToLower(f.Author)

	books := []Book{}
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to query books: %w", err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			book, err := scanBook(rows)
			if err != nil {
				return fmt.Errorf("failed to scan book: %w", err)
			}
			if !containsFold(book.Title, titleNeedle) || !containsFold(book.Author, authorNeedle) {
				continue
			}
			books = append(books, *book)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return books, nil
}

func containsFold(haystack, lowerNeedle string) bool {
	if lowerNeedle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack), lowerNeedle)
}

// ListGenres returns the distinct non-NULL genres in ascending order.
func (s *Store) ListGenres(ctx context.Context) ([]string, error) {
	genres := []string{}
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, "SELECT DISTINCT genre FROM books WHERE genre IS NOT NULL ORDER BY genre")
		if err != nil {
			return fmt.Errorf("failed to list genres: %w", err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var genre string
			if err := rows.Scan(&genre); err != nil {
				return fmt.Errorf("failed to scan genre: %w", err)
			}
			genres = append(genres, genre)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return genres, nil
}

// Count returns the number of stored books.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM books").Scan(&count); err != nil {
			return fmt.Errorf("failed to count books: %w", err)
		}
		return nil
	})
	return count, err
}
