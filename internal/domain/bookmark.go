package domain

import "time"

// PlaceholderDescription is stored as ogDescription until enrichment finishes.
const PlaceholderDescription = "Loading preview..."

// Bookmark is a saved URL owned by one author and filed under one topic.
//
// The og* fields start as placeholders (ogTitle = URL) and are overwritten
// by the enrichment pipeline once the bookmark reaches a terminal status.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is an opaque unique identifier (UUID v4).
	ID string `json:"id"`

	// AuthorID is the user who created the bookmark.
	AuthorID string `json:"authorId"`

	// ─────────────────────────────
	// User-editable content
	// ─────────────────────────────

	// URL is never empty and always parses as an absolute URL.
	URL string `json:"url"`

	// Description is free text entered by the user.
	Description *string `json:"description"`

	// TopicID is the owning topic. Deleting the topic deletes the bookmark.
	TopicID string `json:"topicId"`

	// Order is the manual sort position (nil until the user reorders).
	Order *int `json:"order"`

	IsFavorite bool `json:"isFavorite"`

	// ─────────────────────────────
	// Enrichment
	// ─────────────────────────────

	OGTitle       *string `json:"ogTitle"`
	OGDescription *string `json:"ogDescription"`
	OGImage       *string `json:"ogImage"`

	// ProcessingStatus only moves forward, see CanTransition.
	ProcessingStatus ProcessingStatus `json:"processingStatus"`

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewBookmark builds a freshly created bookmark in PENDING state with
// placeholder preview data.
func NewBookmark(id, rawURL, topicID, authorID string, description *string, now time.Time) *Bookmark {
	b := &Bookmark{
		ID:          id,
		AuthorID:    authorID,
		URL:         rawURL,
		Description: description,
		TopicID:     topicID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.ResetPreview(rawURL, now)
	return b
}

// ResetPreview points the bookmark at rawURL and restarts enrichment:
// status goes back to PENDING with placeholder og fields.
// Only user edits may call this; the pipeline never moves a bookmark back.
func (b *Bookmark) ResetPreview(rawURL string, now time.Time) {
	b.URL = rawURL
	b.OGTitle = StringPtr(rawURL)
	b.OGDescription = StringPtr(PlaceholderDescription)
	b.OGImage = nil
	b.ProcessingStatus = StatusPending
	b.UpdatedAt = now
}

// ApplyPreview overwrites the og fields verbatim, nil values included.
func (b *Bookmark) ApplyPreview(p Preview, now time.Time) {
	b.OGTitle = p.Title
	b.OGDescription = p.Description
	b.OGImage = p.Image
	b.UpdatedAt = now
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// OptionalString returns nil for an empty string.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
