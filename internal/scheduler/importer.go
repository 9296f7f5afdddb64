package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/sources/homepage"
	redisstore "github.com/MrSnakeDoc/shelf/internal/store/redis"
)

// ImportStore is the persistence the importer writes through.
type ImportStore interface {
	FindTopicByTitle(ctx context.Context, userID, title string) (*domain.Topic, error)
	CreateTopic(ctx context.Context, userID string, in redisstore.TopicInput) (*domain.Topic, error)
	TopicHasURL(ctx context.Context, topicID, rawURL string) (bool, error)
	CreateBookmark(ctx context.Context, in redisstore.CreateBookmarkInput) (*domain.Bookmark, error)
}

// Dispatcher hands a new bookmark to the enrichment pipeline.
type Dispatcher interface {
	Dispatch(id string)
}

// ImportStats summarizes one import pass.
type ImportStats struct {
	TopicsCreated    int `json:"topicsCreated"`
	BookmarksCreated int `json:"bookmarksCreated"`
	Skipped          int `json:"skipped"`
}

// Importer seeds topics and bookmarks from a Homepage bookmarks.yaml.
// Re-running it only adds what is missing.
type Importer struct {
	loader        *homepage.Loader
	mapper        *homepage.Mapper
	store         ImportStore
	dispatcher    Dispatcher
	userID        string
	logger        logger.Logger
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}
	mu            sync.Mutex
}

// NewImporter creates a new bookmark importer
func NewImporter(
	bookmarkFile string,
	userID string,
	store ImportStore,
	dispatcher Dispatcher,
	log logger.Logger,
	manualTrigger chan struct{},
) *Importer {
	return &Importer{
		loader:        homepage.NewLoader(bookmarkFile),
		mapper:        homepage.NewMapper(),
		store:         store,
		dispatcher:    dispatcher,
		userID:        userID,
		logger:        log,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start imports once, then re-imports on every manual trigger
func (im *Importer) Start(ctx context.Context) error {
	if _, err := im.Import(ctx); err != nil {
		return fmt.Errorf("initial bookmark import failed: %w", err)
	}

	go func() {
		for {
			select {
			case <-im.manualTrigger:
				im.logger.Info("manual bookmark import triggered")
				if _, err := im.Import(ctx); err != nil {
					im.logger.Error("failed to import bookmarks",
						logger.Error(err))
				}
			case <-im.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the importer
func (im *Importer) Stop() {
	im.stopOnce.Do(func() { close(im.stopCh) })
}

// Import loads the file and creates missing topics and bookmarks.
// New bookmarks are PENDING and dispatched for enrichment.
func (im *Importer) Import(ctx context.Context) (ImportStats, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	var stats ImportStats
	im.logger.Info("importing bookmarks from homepage",
		logger.String("file", im.loader.Path()))

	config, err := im.loader.Load()
	if err != nil {
		return stats, fmt.Errorf("failed to load bookmarks: %w", err)
	}

	categories, err := im.mapper.MapCategories(config)
	if err != nil {
		return stats, fmt.Errorf("failed to map bookmarks: %w", err)
	}

	for _, cat := range categories {
		topic, err := im.store.FindTopicByTitle(ctx, im.userID, cat.Title)
		if err != nil {
			return stats, fmt.Errorf("failed to look up topic %q: %w", cat.Title, err)
		}
		if topic == nil {
			topic, err = im.store.CreateTopic(ctx, im.userID, redisstore.TopicInput{Title: cat.Title})
			if err != nil {
				return stats, fmt.Errorf("failed to create topic %q: %w", cat.Title, err)
			}
			stats.TopicsCreated++
		}

		for _, entry := range cat.Entries {
			exists, err := im.store.TopicHasURL(ctx, topic.ID, entry.URL)
			if err != nil {
				return stats, fmt.Errorf("failed to check %s: %w", entry.URL, err)
			}
			if exists {
				stats.Skipped++
				continue
			}

			b, err := im.store.CreateBookmark(ctx, redisstore.CreateBookmarkInput{
				URL:         entry.URL,
				TopicID:     topic.ID,
				AuthorID:    im.userID,
				Description: entry.Description,
			})
			if err != nil {
				im.logger.Warn("failed to import bookmark",
					logger.String("url", entry.URL),
					logger.Error(err))
				stats.Skipped++
				continue
			}
			stats.BookmarksCreated++
			if im.dispatcher != nil {
				im.dispatcher.Dispatch(b.ID)
			}
		}
	}

	im.logger.Info("bookmark import completed",
		logger.Int("topics_created", stats.TopicsCreated),
		logger.Int("bookmarks_created", stats.BookmarksCreated),
		logger.Int("skipped", stats.Skipped))

	return stats, nil
}
