package domain

// Metadata is the Open Graph preview extracted from a page.
// Nil fields were not found; they are never empty strings.
type Metadata struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Image       *string `json:"image,omitempty"`
}

// IsEmpty reports whether no field was extracted.
func (m Metadata) IsEmpty() bool {
	return m.Title == nil && m.Description == nil && m.Image == nil
}

// Preview is the set of og fields written when enrichment completes.
type Preview struct {
	Title       *string
	Description *string
	Image       *string
}

// PreviewFor turns fetched metadata into the fields stored on a bookmark.
// A missing title falls back to the bookmark URL; description and image are
// taken as-is, so an empty fetch clears the loading placeholder.
func PreviewFor(bookmarkURL string, md Metadata) Preview {
	title := md.Title
	if title == nil {
		title = StringPtr(bookmarkURL)
	}
	return Preview{
		Title:       title,
		Description: md.Description,
		Image:       md.Image,
	}
}
