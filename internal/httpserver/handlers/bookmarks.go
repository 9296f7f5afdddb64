package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/mw"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	redisstore "github.com/MrSnakeDoc/shelf/internal/store/redis"
)

// bulkDescription is stored on bookmarks created through the bulk endpoint.
const bulkDescription = "Added via bulk import"

type bookmarkRequest struct {
	URL         string  `json:"url" validate:"required,max=2048"`
	TopicID     string  `json:"topicId" validate:"required"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

type bulkRequest struct {
	URLs    []string `json:"urls" validate:"required,min=1,max=500"`
	TopicID string   `json:"topicId" validate:"required"`
}

type bulkResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// ownedBookmark loads a bookmark and checks it belongs to user.
func ownedBookmark(ctx context.Context, d deps.Deps, id, user string) (*domain.Bookmark, error) {
	b, err := d.Store.GetBookmark(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.AuthorID != user {
		return nil, fmt.Errorf("bookmark %s: %w", id, domain.ErrForbidden)
	}
	return b, nil
}

// ListBookmarks returns the bookmarks of ?topicId.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topicID := r.URL.Query().Get("topicId")
		if topicID == "" {
			writeError(w, http.StatusBadRequest, "topicId is required")
			return
		}
		if _, err := ownedTopic(r.Context(), d, topicID, mw.UserFrom(r.Context())); err != nil {
			writeStoreError(w, d.Logger, "topic", err)
			return
		}
		bookmarks, err := d.Store.ListBookmarksByTopic(r.Context(), topicID)
		if err != nil {
			writeStoreError(w, d.Logger, "bookmarks", err)
			return
		}
		writeJSON(w, http.StatusOK, bookmarks)
	}
}

// CreateBookmark stores a PENDING bookmark and hands it to the dispatcher.
// Enrichment never delays or fails the response.
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bookmarkRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := domain.ValidateURL(req.URL); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid URL format")
			return
		}

		user := mw.UserFrom(r.Context())
		if _, err := ownedTopic(r.Context(), d, req.TopicID, user); err != nil {
			writeStoreError(w, d.Logger, "topic", err)
			return
		}

		b, err := d.Store.CreateBookmark(r.Context(), redisstore.CreateBookmarkInput{
			URL:         req.URL,
			TopicID:     req.TopicID,
			AuthorID:    user,
			Description: req.Description,
		})
		if err != nil {
			writeStoreError(w, d.Logger, "topic", err)
			return
		}

		d.Dispatcher.Dispatch(b.ID)
		d.Logger.Info("bookmark created",
			logger.String("bookmark_id", b.ID),
			logger.String("url", b.URL))
		writeJSON(w, http.StatusCreated, b)
	}
}

// BulkCreateBookmarks creates one bookmark per valid URL. Invalid URLs are
// skipped; if none is valid the request fails with 400.
func BulkCreateBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bulkRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		urls := domain.FilterValidURLs(req.URLs)
		if len(urls) == 0 {
			writeError(w, http.StatusBadRequest, "No valid URLs provided")
			return
		}

		user := mw.UserFrom(r.Context())
		if _, err := ownedTopic(r.Context(), d, req.TopicID, user); err != nil {
			writeStoreError(w, d.Logger, "topic", err)
			return
		}

		count := 0
		for _, u := range urls {
			b, err := d.Store.CreateBookmark(r.Context(), redisstore.CreateBookmarkInput{
				URL:         u,
				TopicID:     req.TopicID,
				AuthorID:    user,
				Description: domain.StringPtr(bulkDescription),
			})
			if err != nil {
				writeStoreError(w, d.Logger, "topic", err)
				return
			}
			d.Dispatcher.Dispatch(b.ID)
			count++
		}

		d.Logger.Info("bulk bookmarks created",
			logger.String("topic_id", req.TopicID),
			logger.Int("count", count),
			logger.Int("skipped", len(req.URLs)-count))
		writeJSON(w, http.StatusCreated, bulkResponse{
			Message: fmt.Sprintf("%d bookmarks created successfully", count),
			Count:   count,
		})
	}
}

// UpdateBookmark edits a bookmark. A new URL restarts enrichment.
func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bookmarkRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.URL = strings.TrimSpace(req.URL)
		if err := domain.ValidateURL(req.URL); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid URL format")
			return
		}

		id := chi.URLParam(r, "id")
		user := mw.UserFrom(r.Context())
		if _, err := ownedBookmark(r.Context(), d, id, user); err != nil {
			writeStoreError(w, d.Logger, "bookmark", err)
			return
		}
		if _, err := ownedTopic(r.Context(), d, req.TopicID, user); err != nil {
			writeStoreError(w, d.Logger, "topic", err)
			return
		}

		b, urlChanged, err := d.Store.UpdateBookmark(r.Context(), id, redisstore.UpdateBookmarkInput{
			URL:         req.URL,
			TopicID:     req.TopicID,
			Description: req.Description,
		})
		if err != nil {
			writeStoreError(w, d.Logger, "bookmark", err)
			return
		}
		if urlChanged {
			d.Dispatcher.Dispatch(b.ID)
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := ownedBookmark(r.Context(), d, id, mw.UserFrom(r.Context())); err != nil {
			writeStoreError(w, d.Logger, "bookmark", err)
			return
		}
		if err := d.Store.DeleteBookmark(r.Context(), id); err != nil {
			writeStoreError(w, d.Logger, "bookmark", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ToggleFavorite(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := ownedBookmark(r.Context(), d, id, mw.UserFrom(r.Context())); err != nil {
			writeStoreError(w, d.Logger, "bookmark", err)
			return
		}
		b, err := d.Store.ToggleFavorite(r.Context(), id)
		if err != nil {
			writeStoreError(w, d.Logger, "bookmark", err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func ReorderBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reorderRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := d.Store.ReorderBookmarks(r.Context(), mw.UserFrom(r.Context()), req.OrderedIDs); err != nil {
			writeStoreError(w, d.Logger, "bookmarks", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func ListFavorites(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		favorites, err := d.Store.ListFavorites(r.Context(), mw.UserFrom(r.Context()))
		if err != nil {
			writeStoreError(w, d.Logger, "favorites", err)
			return
		}
		writeJSON(w, http.StatusOK, favorites)
	}
}
