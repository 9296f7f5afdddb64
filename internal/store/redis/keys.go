package redis

const (
	// KeyPrefixBookmark is the prefix for bookmark documents
	KeyPrefixBookmark = "shelf:bookmark:"
	// KeyPrefixTopic is the prefix for topic documents
	KeyPrefixTopic = "shelf:topic:"
	// KeyPrefixUser is the prefix for per-user index sets
	KeyPrefixUser = "shelf:user:"
	// KeyPendingBookmarks is the sorted set of PENDING bookmark IDs scored by creation time
	KeyPendingBookmarks = "shelf:bookmarks:pending"
)

// BookmarkKey returns the Redis key for a bookmark
func BookmarkKey(id string) string {
	return KeyPrefixBookmark + id
}

// TopicKey returns the Redis key for a topic
func TopicKey(id string) string {
	return KeyPrefixTopic + id
}

// TopicBookmarksKey returns the set of bookmark IDs filed under a topic
func TopicBookmarksKey(topicID string) string {
	return KeyPrefixTopic + topicID + ":bookmarks"
}

// UserTopicsKey returns the set of topic IDs owned by a user
func UserTopicsKey(userID string) string {
	return KeyPrefixUser + userID + ":topics"
}

// UserBookmarksKey returns the set of bookmark IDs authored by a user
func UserBookmarksKey(userID string) string {
	return KeyPrefixUser + userID + ":bookmarks"
}

// PendingBookmarksKey returns the key of the pending queue
func PendingBookmarksKey() string {
	return KeyPendingBookmarks
}
