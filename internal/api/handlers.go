package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/lepinkainen/bookshelf/internal/catalog"
)

// BookStore is the part of the catalog the API serves.
type BookStore interface {
	Insert(ctx context.Context, book catalog.NewBook) (*catalog.Book, error)
	Get(ctx context.Context, id int64) (*catalog.Book, error)
	Update(ctx context.Context, id int64, u catalog.BookUpdate) (*catalog.Book, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Query(ctx context.Context, f catalog.Filter) ([]catalog.Book, error)
	ListGenres(ctx context.Context) ([]string, error)
	ExportAll(ctx context.Context, w io.Writer) ([]catalog.ExportedBook, error)
}

// Runner executes a fetch run.
type Runner interface {
	Run(ctx context.Context, queries []string, limitPerQuery int) ([]catalog.Book, error)
}

// Handler holds API route handlers.
type Handler struct {
	store        BookStore
	runner       Runner
	defaultLimit int

	// runMu keeps fetch runs sequential so the catalog only ever has one
	// writer from a run at a time.
	runMu sync.Mutex
}

// NewHandler creates a new Handler. defaultLimit is the per-query result
// limit used when a parse request does not give one.
func NewHandler(store BookStore, runner Runner, defaultLimit int) *Handler {
	if defaultLimit <= 0 {
		defaultLimit = 1
	}
	return &Handler{store: store, runner: runner, defaultLimit: defaultLimit}
}

func bookID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func internalError(w http.ResponseWriter, msg string, err error, args ...any) {
	slog.Error(msg, append(args, "error", err)...)
	writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
}

// ListBooks handles GET /books?title=&author=&genre=.
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := catalog.Filter{
		Title:  strings.TrimSpace(q.Get("title")),
		Author: strings.TrimSpace(q.Get("author")),
		Genre:  q.Get("genre"),
	}

	books, err := h.store.Query(r.Context(), filter)
	if err != nil {
		internalError(w, "list books failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toResponses(books))
}

// GetBook handles GET /books/{id}.
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid book id"))
		return
	}

	book, err := h.store.Get(r.Context(), id)
	if err != nil {
		internalError(w, "get book failed", err, "id", id)
		return
	}
	if book == nil {
		writeJSON(w, http.StatusNotFound, errorBody("book not found"))
		return
	}
	writeJSON(w, http.StatusOK, toResponse(*book))
}

// CreateBook handles POST /books.
func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	nb, err := req.toNewBook()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	book, err := h.store.Insert(r.Context(), nb)
	if err != nil {
		if errors.Is(err, catalog.ErrInvalidBook) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		internalError(w, "create book failed", err, "title", nb.Title)
		return
	}
	if book == nil {
		writeJSON(w, http.StatusConflict, errorBody(catalog.ErrDuplicate.Error()))
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(*book))
}

// UpdateBook handles PUT /books/{id}. Only the fields present in the body
// change.
func (h *Handler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid book id"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req UpdateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	book, err := h.store.Update(r.Context(), id, req.toUpdate())
	switch {
	case errors.Is(err, catalog.ErrDuplicate):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
		return
	case errors.Is(err, catalog.ErrInvalidBook):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	case err != nil:
		internalError(w, "update book failed", err, "id", id)
		return
	}
	if book == nil {
		writeJSON(w, http.StatusNotFound, errorBody("book not found"))
		return
	}
	writeJSON(w, http.StatusOK, toResponse(*book))
}

// DeleteBook handles DELETE /books/{id}.
func (h *Handler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid book id"))
		return
	}

	deleted, err := h.store.Delete(r.Context(), id)
	if err != nil {
		internalError(w, "delete book failed", err, "id", id)
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, errorBody("book not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListGenres handles GET /genres.
func (h *Handler) ListGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.store.ListGenres(r.Context())
	if err != nil {
		internalError(w, "list genres failed", err)
		return
	}
	writeJSON(w, http.StatusOK, genres)
}

// ExportJSON handles GET /export/json.
func (h *Handler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if _, err := h.store.ExportAll(r.Context(), &buf); err != nil {
		internalError(w, "export failed", err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="parsed_books.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// Parse handles POST /parse?query=&limit=. Repeating query runs several
// queries; none at all is a bad request.
func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var queries []string
	for _, query := range q["query"] {
		if query = strings.TrimSpace(query); query != "" {
			queries = append(queries, query)
		}
	}
	if len(queries) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("query is required"))
		return
	}

	limit := h.defaultLimit
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	h.runMu.Lock()
	defer h.runMu.Unlock()

	books, err := h.runner.Run(r.Context(), queries, limit)
	if err != nil {
		// The books stored before the interruption are still reported.
		slog.Warn("parse run ended early", "queries", len(queries), "inserted", len(books), "error", err)
	}
	writeJSON(w, http.StatusOK, toResponses(books))
}
