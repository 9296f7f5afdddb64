package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/mw"
)

type statusRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=500,dive,required"`
}

// BookmarkStatuses answers the poller: {id, processingStatus} for each of
// the caller's ids. Unknown ids are left out.
func BookmarkStatuses(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req statusRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "IDs array is required")
			return
		}
		entries, err := d.Store.GetOwnedStatuses(r.Context(), mw.UserFrom(r.Context()), req.IDs)
		if err != nil {
			writeStoreError(w, d.Logger, "statuses", err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}
