package domain

import (
	"testing"
	"time"
)

func TestNewBookmarkStartsPending(t *testing.T) {
	now := time.Now()
	b := NewBookmark("id-1", "https://ogp-test.invalid", "topic-1", "user-1", nil, now)

	if b.ProcessingStatus != StatusPending {
		t.Errorf("status = %s, want PENDING", b.ProcessingStatus)
	}
	if b.OGTitle == nil || *b.OGTitle != "https://ogp-test.invalid" {
		t.Errorf("ogTitle = %v, want the URL", b.OGTitle)
	}
	if b.OGDescription == nil || *b.OGDescription != PlaceholderDescription {
		t.Errorf("ogDescription = %v, want placeholder", b.OGDescription)
	}
	if b.OGImage != nil {
		t.Errorf("ogImage = %v, want nil", *b.OGImage)
	}
}

func TestPreviewFor(t *testing.T) {
	tests := []struct {
		name      string
		md        Metadata
		wantTitle string
		wantDesc  *string
		wantImage *string
	}{
		{
			name:      "empty metadata falls back to URL",
			md:        Metadata{},
			wantTitle: "https://example.com/a",
		},
		{
			name: "all fields",
			md: Metadata{
				Title:       StringPtr("Example"),
				Description: StringPtr("An example page"),
				Image:       StringPtr("https://example.com/a.png"),
			},
			wantTitle: "Example",
			wantDesc:  StringPtr("An example page"),
			wantImage: StringPtr("https://example.com/a.png"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBookmark("id", "https://example.com/a", "t", "u", nil, time.Now())
			b.ApplyPreview(PreviewFor(b.URL, tt.md), time.Now())

			if *b.OGTitle != tt.wantTitle {
				t.Errorf("ogTitle = %q, want %q", *b.OGTitle, tt.wantTitle)
			}
			if !equalPtr(b.OGDescription, tt.wantDesc) {
				t.Errorf("ogDescription = %v, want %v", b.OGDescription, tt.wantDesc)
			}
			if !equalPtr(b.OGImage, tt.wantImage) {
				t.Errorf("ogImage = %v, want %v", b.OGImage, tt.wantImage)
			}
		})
	}
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
