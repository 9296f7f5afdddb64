package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/handlers"
)

func init() {
	Register(registerProcessOGP, identity)
	Register(registerCron, allowCIDRS)
}

func registerProcessOGP(r chi.Router, d deps.Deps) {
	r.With(writeLimit(d)).Post("/api/ogp-process", handlers.ProcessOGP(d))
}

func registerCron(r chi.Router, d deps.Deps) {
	h := handlers.CronProcessOGP(d)
	r.Get("/api/cron/process-ogp", h)
	r.Post("/api/cron/process-ogp", h)
}
