package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

// fakeStatuses serves statuses from a mutable map and can fail on demand.
type fakeStatuses struct {
	mu       sync.Mutex
	statuses map[string]domain.ProcessingStatus
	fail     bool
	calls    int
	lastIDs  []string
}

func (f *fakeStatuses) set(id string, s domain.ProcessingStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = s
}

func (f *fakeStatuses) Statuses(_ context.Context, ids []string) ([]domain.StatusEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastIDs = append([]string(nil), ids...)
	if f.fail {
		return nil, errors.New("connection refused")
	}
	var out []domain.StatusEntry
	for _, id := range ids {
		if s, ok := f.statuses[id]; ok {
			out = append(out, domain.StatusEntry{ID: id, ProcessingStatus: s})
		}
	}
	return out, nil
}

func (f *fakeStatuses) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newFake() *fakeStatuses {
	return &fakeStatuses{statuses: make(map[string]domain.ProcessingStatus)}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestPollerConverges(t *testing.T) {
	fake := newFake()
	fake.set("a", domain.StatusPending)
	fake.set("b", domain.StatusInProgress)

	var mu sync.Mutex
	var refreshed []domain.StatusEntry
	p := New(fake, WithInterval(5*time.Millisecond), WithOnRefresh(func(e []domain.StatusEntry) {
		mu.Lock()
		refreshed = append(refreshed, e...)
		mu.Unlock()
	}))
	defer p.Close()

	p.Track("a", "b")
	waitFor(t, func() bool { return fake.Calls() >= 1 })

	fake.set("a", domain.StatusCompleted)
	waitFor(t, func() bool { return len(p.Tracked()) == 1 })
	if got := p.Tracked(); got[0] != "b" {
		t.Errorf("tracked = %v, want [b]", got)
	}

	fake.set("b", domain.StatusFailed)
	waitFor(t, func() bool { return !p.Running() })

	if len(p.Tracked()) != 0 {
		t.Errorf("tracked = %v, want empty", p.Tracked())
	}
	mu.Lock()
	defer mu.Unlock()
	if len(refreshed) != 2 || refreshed[0].ID != "a" || refreshed[1].ID != "b" {
		t.Errorf("refreshed = %+v", refreshed)
	}
}

func TestPollerPollsOnlyTrackedIDs(t *testing.T) {
	fake := newFake()
	fake.set("a", domain.StatusPending)
	fake.set("other", domain.StatusPending)

	p := New(fake, WithInterval(5*time.Millisecond))
	defer p.Close()
	p.Track("a")

	waitFor(t, func() bool { return fake.Calls() >= 1 })
	fake.mu.Lock()
	ids := fake.lastIDs
	fake.mu.Unlock()
	if len(ids) != 1 || ids[0] != "a" {
		t.Errorf("polled ids = %v, want [a]", ids)
	}
}

func TestPollerResumesAfterIdle(t *testing.T) {
	fake := newFake()
	fake.set("a", domain.StatusCompleted)

	p := New(fake, WithInterval(5*time.Millisecond))
	defer p.Close()

	p.Track("a")
	waitFor(t, func() bool { return !p.Running() && len(p.Tracked()) == 0 })
	calls := fake.Calls()

	time.Sleep(20 * time.Millisecond)
	if fake.Calls() != calls {
		t.Fatal("idle poller kept polling")
	}

	fake.set("b", domain.StatusCompleted)
	p.Track("b")
	waitFor(t, func() bool { return fake.Calls() > calls && !p.Running() })
}

func TestPollerRetriesOnError(t *testing.T) {
	fake := newFake()
	fake.fail = true
	fake.set("a", domain.StatusCompleted)

	p := New(fake, WithInterval(5*time.Millisecond))
	defer p.Close()
	p.Track("a")

	waitFor(t, func() bool { return fake.Calls() >= 3 })
	if got := p.Tracked(); len(got) != 1 {
		t.Fatalf("tracked = %v, want [a] while failing", got)
	}

	fake.mu.Lock()
	fake.fail = false
	fake.mu.Unlock()
	waitFor(t, func() bool { return len(p.Tracked()) == 0 })
}

func TestPollerDropsVanishedIDs(t *testing.T) {
	fake := newFake()
	p := New(fake, WithInterval(5*time.Millisecond))
	defer p.Close()

	p.Track("deleted")
	waitFor(t, func() bool { return !p.Running() })
	if len(p.Tracked()) != 0 {
		t.Errorf("tracked = %v, want empty", p.Tracked())
	}
}

func TestPollerClose(t *testing.T) {
	fake := newFake()
	fake.set("a", domain.StatusPending)

	p := New(fake, WithInterval(5*time.Millisecond))
	p.Track("a")
	waitFor(t, func() bool { return fake.Calls() >= 1 })

	p.Close()
	calls := fake.Calls()
	time.Sleep(20 * time.Millisecond)
	if fake.Calls() != calls {
		t.Error("poller polled after Close")
	}

	p.Track("a")
	if p.Running() || len(p.Tracked()) != 0 {
		t.Error("Track after Close restarted the poller")
	}
	p.Close()
}
