package domain

import "time"

// DefaultTopicEmoji is used when a topic is created without an emoji.
const DefaultTopicEmoji = "📁"

// Topic is a user-owned folder of bookmarks.
type Topic struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Emoji       string    `json:"emoji"`
	Order       int       `json:"order"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TopicWithCount is the listing shape returned to clients.
type TopicWithCount struct {
	*Topic
	BookmarkCount int `json:"bookmarkCount"`
}

// EmojiOrDefault returns emoji, or DefaultTopicEmoji when empty.
func EmojiOrDefault(emoji string) string {
	if emoji == "" {
		return DefaultTopicEmoji
	}
	return emoji
}
