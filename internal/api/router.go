// Package api implements the bookshelf REST API using chi.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a chi router with the health check and every API route
// mounted under /api/v1.
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/books", h.ListBooks)
		r.Post("/books", h.CreateBook)
		r.Get("/books/{id}", h.GetBook)
		r.Put("/books/{id}", h.UpdateBook)
		r.Delete("/books/{id}", h.DeleteBook)

		r.Get("/genres", h.ListGenres)
		r.Get("/export/json", h.ExportJSON)

		r.Post("/parse", h.Parse)
		r.Post("/books/parse/openlibrary", h.Parse)
	})

	return r
}
