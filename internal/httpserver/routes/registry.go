package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/mw"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
	// MiddlewareFactory builds a middleware once deps are known.
	MiddlewareFactory func(d deps.Deps) Middleware
)

type entry struct {
	reg Registrar
	mws []MiddlewareFactory
}

var registry []entry

// Register a registrar with optional per-route middlewares.
func Register(reg Registrar, mws ...MiddlewareFactory) {
	registry = append(registry, entry{reg: reg, mws: mws})
}

// Called once from server.New()
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, e := range registry {
		if len(e.mws) == 0 {
			e.reg(r, d)
			continue
		}
		built := make([]Middleware, 0, len(e.mws))
		for _, f := range e.mws {
			built = append(built, f(d))
		}
		e.reg(r.With(built...), d)
	}
}

// Common factories.

func identity(d deps.Deps) Middleware { return mw.Identity(d.UserHeader) }

func allowCIDRS(d deps.Deps) Middleware {
	return mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)
}

func enforceHost(d deps.Deps) Middleware { return mw.EnforceHost(d.AllowedHosts, d.Logger) }

// writeLimit falls back to a pass-through when the server did not build one.
func writeLimit(d deps.Deps) Middleware {
	if d.WriteLimit == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return d.WriteLimit
}
