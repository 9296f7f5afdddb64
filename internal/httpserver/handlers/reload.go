package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

type reloadResponse struct {
	Import string `json:"import"`
	Sweep  string `json:"sweep"`
}

// trigger performs a non-blocking send and reports what happened.
func trigger(ch chan struct{}) string {
	if ch == nil {
		return "disabled"
	}
	select {
	case ch <- struct{}{}:
		return "triggered"
	default:
		return "busy"
	}
}

// Reload re-runs the bookmarks.yaml import and wakes the sweeper.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := reloadResponse{
			Import: trigger(d.ImportTrigger),
			Sweep:  trigger(d.SweepTrigger),
		}

		d.Logger.Info("manual reload requested",
			logger.String("remote_ip", r.RemoteAddr),
			logger.String("import", resp.Import),
			logger.String("sweep", resp.Sweep))

		if resp.Import == "triggered" || resp.Sweep == "triggered" {
			writeJSON(w, http.StatusAccepted, resp)
			return
		}
		writeJSON(w, http.StatusTooManyRequests, resp)
	}
}
