package enrich

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/metrics"
)

func TestEnrichByID(t *testing.T) {
	tests := []struct {
		name       string
		fetcher    *stubFetcher
		wantResult Outcome
		wantStatus domain.ProcessingStatus
		wantTitle  string
		wantDesc   *string
	}{
		{
			name: "completed with metadata",
			fetcher: &stubFetcher{md: domain.Metadata{
				Title:       domain.StringPtr("Example Domain"),
				Description: domain.StringPtr("An example"),
			}},
			wantResult: OutcomeCompleted,
			wantStatus: domain.StatusCompleted,
			wantTitle:  "Example Domain",
			wantDesc:   domain.StringPtr("An example"),
		},
		{
			name:       "empty metadata falls back to URL",
			fetcher:    &stubFetcher{},
			wantResult: OutcomeCompleted,
			wantStatus: domain.StatusCompleted,
			wantTitle:  "https://example.com",
		},
		{
			name:       "fetch error keeps placeholders",
			fetcher:    &stubFetcher{err: errors.New("connection refused")},
			wantResult: OutcomeFailed,
			wantStatus: domain.StatusFailed,
			wantTitle:  "https://example.com",
			wantDesc:   domain.StringPtr(domain.PlaceholderDescription),
		},
		{
			name:       "fetcher panic is a failure",
			fetcher:    &stubFetcher{panic: true},
			wantResult: OutcomeFailed,
			wantStatus: domain.StatusFailed,
			wantTitle:  "https://example.com",
			wantDesc:   domain.StringPtr(domain.PlaceholderDescription),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRepo()
			repo.add("b1", "https://example.com")
			e := New(repo, tt.fetcher, logger.NewNop(), metrics.New())

			res := e.EnrichByID(context.Background(), "b1")
			if res.Outcome != tt.wantResult {
				t.Fatalf("outcome = %s, want %s (err %v)", res.Outcome, tt.wantResult, res.Err)
			}

			b := repo.get("b1")
			if b.ProcessingStatus != tt.wantStatus {
				t.Errorf("status = %s, want %s", b.ProcessingStatus, tt.wantStatus)
			}
			if b.OGTitle == nil || *b.OGTitle != tt.wantTitle {
				t.Errorf("ogTitle = %v, want %q", b.OGTitle, tt.wantTitle)
			}
			if !equalPtr(b.OGDescription, tt.wantDesc) {
				t.Errorf("ogDescription = %v, want %v", b.OGDescription, tt.wantDesc)
			}
		})
	}
}

func TestEnrichByIDSkips(t *testing.T) {
	repo := newMemRepo()
	repo.add("done", "https://example.com")
	f := &stubFetcher{}
	e := New(repo, f, logger.NewNop(), nil)

	if res := e.EnrichByID(context.Background(), "done"); res.Outcome != OutcomeCompleted {
		t.Fatalf("first run outcome = %s", res.Outcome)
	}
	if res := e.EnrichByID(context.Background(), "done"); res.Outcome != OutcomeNotPending {
		t.Errorf("second run outcome = %s, want not_pending", res.Outcome)
	}
	if res := e.EnrichByID(context.Background(), "missing"); res.Outcome != OutcomeNotFound {
		t.Errorf("missing outcome = %s, want not_found", res.Outcome)
	}
	if f.Calls() != 1 {
		t.Errorf("fetch calls = %d, want 1", f.Calls())
	}
}

func TestConcurrentTriggersFetchOnce(t *testing.T) {
	repo := newMemRepo()
	repo.add("b1", "https://example.com")
	f := &stubFetcher{}
	e := New(repo, f, logger.NewNop(), nil)

	var wg sync.WaitGroup
	results := make(chan Outcome, 10)
	for i := 0; i < 5; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			results <- e.EnrichByID(context.Background(), "b1").Outcome
		}()
		go func() {
			defer wg.Done()
			results <- e.SweepOnce(context.Background()).Outcome
		}()
	}
	wg.Wait()
	close(results)

	completed := 0
	for o := range results {
		if o == OutcomeCompleted {
			completed++
		}
	}
	if completed != 1 {
		t.Errorf("completed outcomes = %d, want 1", completed)
	}
	if f.Calls() != 1 {
		t.Errorf("fetch calls = %d, want 1", f.Calls())
	}
}

func TestSweepOnce(t *testing.T) {
	repo := newMemRepo()
	f := &stubFetcher{}
	e := New(repo, f, logger.NewNop(), nil)

	if res := e.SweepOnce(context.Background()); res.Outcome != OutcomeNoPending {
		t.Fatalf("empty sweep outcome = %s, want no_pending", res.Outcome)
	}
	if f.Calls() != 0 {
		t.Errorf("empty sweep fetched %d times", f.Calls())
	}

	repo.add("a", "https://a.example.com")
	repo.add("b", "https://b.example.com")

	res := e.SweepOnce(context.Background())
	if res.Outcome != OutcomeCompleted || res.BookmarkID != "a" {
		t.Errorf("sweep = %+v, want completed a", res)
	}
	res = e.SweepOnce(context.Background())
	if res.BookmarkID != "b" {
		t.Errorf("sweep = %+v, want b", res)
	}
	if res := e.SweepOnce(context.Background()); res.Outcome != OutcomeNoPending {
		t.Errorf("drained sweep outcome = %s", res.Outcome)
	}
}

func TestFinalizeFailureReportsError(t *testing.T) {
	repo := newMemRepo()
	repo.add("b1", "https://example.com")
	repo.updateErr = errors.New("redis down")
	e := New(repo, &stubFetcher{}, logger.NewNop(), nil)

	res := e.EnrichByID(context.Background(), "b1")
	if res.Outcome != OutcomeError || res.Err == nil {
		t.Errorf("result = %+v, want error outcome", res)
	}
}

func TestCancelAfterClaimDoesNotCutFetch(t *testing.T) {
	repo := newMemRepo()
	repo.add("b1", "https://example.com")
	f := &stubFetcher{
		md:    domain.Metadata{Title: domain.StringPtr("Real"), Description: domain.StringPtr("Real description")},
		delay: 100 * time.Millisecond,
	}
	e := New(repo, f, logger.NewNop(), nil)

	// The caller goes away (client disconnect, shutdown) while the page is
	// still loading. memRepo ignores ctx, so the claim happens first.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(20*time.Millisecond, cancel)

	res := e.EnrichByID(ctx, "b1")
	if res.Outcome != OutcomeCompleted {
		t.Fatalf("outcome = %s, want completed", res.Outcome)
	}
	got := repo.get("b1")
	if got.ProcessingStatus != domain.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", got.ProcessingStatus)
	}
	if !equalPtr(got.OGTitle, domain.StringPtr("Real")) || !equalPtr(got.OGDescription, domain.StringPtr("Real description")) {
		t.Errorf("preview = %v / %v, want the fetched page", got.OGTitle, got.OGDescription)
	}
}

func TestURLEditDuringFetchDiscardsPreview(t *testing.T) {
	repo := newMemRepo()
	repo.add("b1", "https://old.example.com")
	f := &stubFetcher{md: domain.Metadata{Title: domain.StringPtr("Old page")}}
	f.onFetch = func() { repo.editURL("b1", "https://new.example.com") }
	e := New(repo, f, logger.NewNop(), nil)

	res := e.EnrichByID(context.Background(), "b1")
	if res.Outcome != OutcomeNotPending || res.Err != nil {
		t.Fatalf("result = %+v, want silent not_pending", res)
	}

	got := repo.get("b1")
	if got.ProcessingStatus != domain.StatusPending {
		t.Errorf("status = %s, want PENDING for the new URL", got.ProcessingStatus)
	}
	if !equalPtr(got.OGTitle, domain.StringPtr("https://new.example.com")) {
		t.Errorf("ogTitle = %v, want the new URL placeholder", got.OGTitle)
	}

	// The next attempt enriches the new URL.
	f.onFetch = nil
	f.md = domain.Metadata{Title: domain.StringPtr("New page")}
	if res := e.EnrichByID(context.Background(), "b1"); res.Outcome != OutcomeCompleted {
		t.Fatalf("second outcome = %s, want completed", res.Outcome)
	}
	if got := repo.get("b1"); !equalPtr(got.OGTitle, domain.StringPtr("New page")) {
		t.Errorf("ogTitle = %v, want New page", got.OGTitle)
	}
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
