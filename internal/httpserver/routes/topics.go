package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/handlers"
)

func init() { Register(registerTopics, identity) }

func registerTopics(r chi.Router, d deps.Deps) {
	limited := r.With(writeLimit(d))

	r.Get("/api/topics", handlers.ListTopics(d))
	r.Get("/api/topics/{id}", handlers.GetTopic(d))
	limited.Post("/api/topics", handlers.CreateTopic(d))
	limited.Patch("/api/topics/reorder", handlers.ReorderTopics(d))
	limited.Put("/api/topics/{id}", handlers.UpdateTopic(d))
	limited.Delete("/api/topics/{id}", handlers.DeleteTopic(d))
}
