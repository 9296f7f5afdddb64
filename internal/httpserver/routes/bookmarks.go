package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/handlers"
)

func init() { Register(registerBookmarks, identity) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	limited := r.With(writeLimit(d))

	r.Get("/api/bookmarks", handlers.ListBookmarks(d))
	r.Get("/api/favorites", handlers.ListFavorites(d))
	// Polled every few seconds, so kept off the write limiter.
	r.Post("/api/bookmarks/status", handlers.BookmarkStatuses(d))

	limited.Post("/api/bookmarks", handlers.CreateBookmark(d))
	limited.Post("/api/bookmarks/bulk", handlers.BulkCreateBookmarks(d))
	limited.Patch("/api/bookmarks/reorder", handlers.ReorderBookmarks(d))
	limited.Put("/api/bookmarks/{id}", handlers.UpdateBookmark(d))
	limited.Delete("/api/bookmarks/{id}", handlers.DeleteBookmark(d))
	limited.Patch("/api/bookmarks/{id}/favorite", handlers.ToggleFavorite(d))
}
