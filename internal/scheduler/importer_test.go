package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	redisstore "github.com/MrSnakeDoc/shelf/internal/store/redis"
)

type recordingDispatcher struct {
	mu  sync.Mutex
	ids []string
}

func (d *recordingDispatcher) Dispatch(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, id)
}

const bookmarksYAML = `---
- Developer:
    - Github:
        - abbr: GH
          href: https://github.com/
    - Go:
        - href: https://go.dev/
- Social:
    - Reddit:
        - href: https://reddit.com/
    - Broken:
        - href: {{HOMEPAGE_VAR_BROKEN}}
`

func TestImporter_Import(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := redisstore.NewStore(client)

	path := filepath.Join(t.TempDir(), "bookmarks.yaml")
	if err := os.WriteFile(path, []byte(bookmarksYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	// A topic that already exists is reused, and its URL is not duplicated.
	dev, err := store.CreateTopic(ctx, "alice", redisstore.TopicInput{Title: "Developer"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateBookmark(ctx, redisstore.CreateBookmarkInput{URL: "https://go.dev/", TopicID: dev.ID, AuthorID: "alice"}); err != nil {
		t.Fatal(err)
	}

	disp := &recordingDispatcher{}
	im := NewImporter(path, "alice", store, disp, logger.NewNop(), nil)

	stats, err := im.Import(ctx)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	want := ImportStats{TopicsCreated: 1, BookmarksCreated: 2, Skipped: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
	if len(disp.ids) != 2 {
		t.Errorf("dispatched %d bookmarks, want 2", len(disp.ids))
	}
	for _, id := range disp.ids {
		b, err := store.GetBookmark(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if b.ProcessingStatus != domain.StatusPending || b.AuthorID != "alice" {
			t.Errorf("imported bookmark = %+v", b)
		}
	}

	topics, _ := store.ListTopics(ctx, "alice")
	if len(topics) != 2 {
		t.Fatalf("topics = %d, want 2", len(topics))
	}

	// A second pass adds nothing.
	stats, err = im.Import(ctx)
	if err != nil {
		t.Fatalf("second Import() error = %v", err)
	}
	if stats.TopicsCreated != 0 || stats.BookmarksCreated != 0 || stats.Skipped != 3 {
		t.Errorf("second stats = %+v", stats)
	}
}

func TestImporter_MissingFile(t *testing.T) {
	im := NewImporter("/nonexistent/bookmarks.yaml", "alice", nil, nil, logger.NewNop(), nil)
	if err := im.Start(context.Background()); err == nil {
		t.Error("Start() with missing file should fail")
	}
}
