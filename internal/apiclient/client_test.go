package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

func TestStatuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/bookmarks/status" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("X-User"); got != "alice" {
			t.Errorf("user header = %q, want alice", got)
		}
		var body struct {
			IDs []string `json:"ids"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		entries := make([]domain.StatusEntry, 0, len(body.IDs))
		for _, id := range body.IDs {
			entries = append(entries, domain.StatusEntry{ID: id, ProcessingStatus: domain.StatusCompleted})
		}
		_ = json.NewEncoder(w).Encode(entries)
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "X-User", "alice", srv.Client())
	entries, err := c.Statuses(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Statuses() error = %v", err)
	}
	if len(entries) != 2 || entries[1].ID != "b" || entries[1].ProcessingStatus != domain.StatusCompleted {
		t.Errorf("entries = %+v", entries)
	}
}

func TestStatusesRejectsUnknownStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"a","processingStatus":"COMPLETED"},{"id":"b","processingStatus":"DONE"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", "alice", srv.Client())
	entries, err := c.Statuses(context.Background(), []string{"a", "b"})
	if err == nil {
		t.Fatalf("Statuses() = %+v, want error", entries)
	}
	if !strings.Contains(err.Error(), `bookmark b: unknown processing status "DONE"`) {
		t.Errorf("err = %v", err)
	}
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"topic not found"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", "alice", nil)
	_, err := c.CreateBookmark(context.Background(), "https://example.com", "missing", nil)
	if !IsNotFound(err) {
		t.Fatalf("err = %v, want 404", err)
	}
	if err.Error() != "server returned 404: topic not found" {
		t.Errorf("message = %q", err.Error())
	}
}
