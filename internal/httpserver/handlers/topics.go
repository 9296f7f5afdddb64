package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/mw"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	redisstore "github.com/MrSnakeDoc/shelf/internal/store/redis"
)

type topicRequest struct {
	Title       string  `json:"title" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Emoji       string  `json:"emoji" validate:"omitempty,max=32"`
}

func (r topicRequest) input() redisstore.TopicInput {
	return redisstore.TopicInput{Title: r.Title, Description: r.Description, Emoji: r.Emoji}
}

type reorderRequest struct {
	OrderedIDs []string `json:"orderedIds" validate:"required,min=1,max=1000,dive,required"`
}

// ownedTopic loads a topic and checks it belongs to user.
func ownedTopic(ctx context.Context, d deps.Deps, id, user string) (*domain.Topic, error) {
	t, err := d.Store.GetTopic(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != user {
		return nil, fmt.Errorf("topic %s: %w", id, domain.ErrForbidden)
	}
	return t, nil
}

// ListTopics returns the caller's topics with bookmark counts.
func ListTopics(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topics, err := d.Store.ListTopics(r.Context(), mw.UserFrom(r.Context()))
		if err != nil {
			writeStoreError(w, d.Logger, "topics", err)
			return
		}
		writeJSON(w, http.StatusOK, topics)
	}
}

func CreateTopic(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req topicRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		user := mw.UserFrom(r.Context())
		t, err := d.Store.CreateTopic(r.Context(), user, req.input())
		if err != nil {
			writeStoreError(w, d.Logger, "topic", err)
			return
		}
		d.Logger.Info("topic created",
			logger.String("topic_id", t.ID),
			logger.String("user", user))
		writeJSON(w, http.StatusCreated, t)
	}
}

func GetTopic(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := ownedTopic(r.Context(), d, chi.URLParam(r, "id"), mw.UserFrom(r.Context()))
		if err != nil {
			writeStoreError(w, d.Logger, "topic", err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func UpdateTopic(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req topicRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		id := chi.URLParam(r, "id")
		if _, err := ownedTopic(r.Context(), d, id, mw.UserFrom(r.Context())); err != nil {
			writeStoreError(w, d.Logger, "topic", err)
			return
		}
		t, err := d.Store.UpdateTopic(r.Context(), id, req.input())
		if err != nil {
			writeStoreError(w, d.Logger, "topic", err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// DeleteTopic removes the topic and every bookmark in it.
func DeleteTopic(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := ownedTopic(r.Context(), d, id, mw.UserFrom(r.Context())); err != nil {
			writeStoreError(w, d.Logger, "topic", err)
			return
		}
		if err := d.Store.DeleteTopic(r.Context(), id); err != nil {
			writeStoreError(w, d.Logger, "topic", err)
			return
		}
		d.Logger.Info("topic deleted", logger.String("topic_id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

func ReorderTopics(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reorderRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := d.Store.ReorderTopics(r.Context(), mw.UserFrom(r.Context()), req.OrderedIDs); err != nil {
			writeStoreError(w, d.Logger, "topics", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}
