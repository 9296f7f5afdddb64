package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/shelf/internal/enrich"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/mw"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

type ogpProcessRequest struct {
	BookmarkID string `json:"bookmarkId" validate:"required"`
}

func writeResult(w http.ResponseWriter, res enrich.Result) {
	if res.Outcome == enrich.OutcomeError {
		writeError(w, http.StatusInternalServerError, "Failed to process OGP")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ProcessOGP enriches one bookmark synchronously. A bookmark that is not
// PENDING, or not the caller's, is reported as a no-op.
func ProcessOGP(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ogpProcessRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "bookmarkId is required")
			return
		}

		b, err := d.Store.GetBookmark(r.Context(), req.BookmarkID)
		if err != nil || b.AuthorID != mw.UserFrom(r.Context()) {
			writeJSON(w, http.StatusOK, enrich.Result{Outcome: enrich.OutcomeNotFound, BookmarkID: req.BookmarkID})
			return
		}

		writeResult(w, d.Enricher.EnrichByID(r.Context(), req.BookmarkID))
	}
}

// CronProcessOGP processes the oldest PENDING bookmark, if any.
func CronProcessOGP(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := d.Enricher.SweepOnce(r.Context())
		if res.Outcome != enrich.OutcomeNoPending {
			d.Logger.Info("cron sweep processed bookmark",
				logger.String("bookmark_id", res.BookmarkID),
				logger.String("outcome", string(res.Outcome)))
		}
		writeResult(w, res)
	}
}
