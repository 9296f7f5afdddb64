package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/enrich"
)

// DefaultUserHeader matches the server's default identity header.
const DefaultUserHeader = "X-Forwarded-User"

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to the shelf JSON API on behalf of one user.
type Client struct {
	baseURL    string
	userHeader string
	user       string
	http       *http.Client
}

// New creates a client. A nil httpClient gets a 10s timeout.
func New(baseURL, userHeader, user string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if userHeader == "" {
		userHeader = DefaultUserHeader
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userHeader: userHeader,
		user:       user,
		http:       httpClient,
	}
}

// CreateBookmark saves url under topicID.
func (c *Client) CreateBookmark(ctx context.Context, url, topicID string, description *string) (*domain.Bookmark, error) {
	body := map[string]any{"url": url, "topicId": topicID}
	if description != nil {
		body["description"] = *description
	}
	var b domain.Bookmark
	if err := c.do(ctx, http.MethodPost, "/api/bookmarks", body, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListTopics returns the caller's topics.
func (c *Client) ListTopics(ctx context.Context) ([]domain.TopicWithCount, error) {
	var topics []domain.TopicWithCount
	if err := c.do(ctx, http.MethodGet, "/api/topics", nil, &topics); err != nil {
		return nil, err
	}
	return topics, nil
}

// Statuses asks for the processing status of ids. A status the client does
// not know is an error rather than something a poller would wait on forever.
func (c *Client) Statuses(ctx context.Context, ids []string) ([]domain.StatusEntry, error) {
	var raw []struct {
		ID               string `json:"id"`
		ProcessingStatus string `json:"processingStatus"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/bookmarks/status", map[string]any{"ids": ids}, &raw); err != nil {
		return nil, err
	}
	entries := make([]domain.StatusEntry, 0, len(raw))
	for _, r := range raw {
		st, err := domain.ParseStatus(r.ProcessingStatus)
		if err != nil {
			return nil, fmt.Errorf("bookmark %s: %w", r.ID, err)
		}
		entries = append(entries, domain.StatusEntry{ID: r.ID, ProcessingStatus: st})
	}
	return entries, nil
}

// Sweep asks the server to process one pending bookmark.
func (c *Client) Sweep(ctx context.Context) (enrich.Result, error) {
	var res enrich.Result
	if err := c.do(ctx, http.MethodPost, "/api/cron/process-ogp", nil, &res); err != nil {
		return enrich.Result{}, err
	}
	return res, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.user != "" {
		req.Header.Set(c.userHeader, c.user)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
