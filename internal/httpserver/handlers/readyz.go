package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

type readyzResponse struct {
	Ready   bool   `json:"ready"`
	Pending int64  `json:"pending"`
	Error   string `json:"error,omitempty"`
}

// Readyz reports whether Redis answers, along with the pending queue length.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := d.Store.Ping(ctx); err != nil {
			d.Logger.Warn("readiness check failed", logger.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Ready: false, Error: "redis unavailable"})
			return
		}

		pending, err := d.Store.PendingCount(ctx)
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Ready: false, Error: "redis unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true, Pending: pending})
	}
}
