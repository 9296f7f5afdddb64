package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/utils"
)

// RateLimitConfig sizes the write budget of a single client. A client is the
// signed-in user, or the remote IP for requests that carry no user.
type RateLimitConfig struct {
	Burst        int           // writes allowed back to back
	RefillPerMin int           // writes regained per minute
	MaxClients   int           // evict idle clients early once this many are tracked; 0 = no cap
	IdleTTL      time.Duration // forget a client after this long without a write
	TrustProxy   bool          // key anonymous clients by forwarded IP

	now func() time.Time
}

func (c RateLimitConfig) withDefaults() RateLimitConfig {
	if c.Burst < 1 {
		c.Burst = 1
	}
	if c.RefillPerMin < 1 {
		c.RefillPerMin = 1
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = 15 * time.Minute
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// allowance is what is left of one client's budget.
type allowance struct {
	tokens  float64
	updated time.Time
}

// writeBudget tracks allowances per client. One mutex covers the map and
// every allowance: the critical section is a few float ops.
type writeBudget struct {
	cfg       RateLimitConfig
	perSecond float64

	mu        sync.Mutex
	clients   map[string]*allowance
	nextPrune time.Time
}

func newWriteBudget(cfg RateLimitConfig) *writeBudget {
	cfg = cfg.withDefaults()
	return &writeBudget{
		cfg:       cfg,
		perSecond: float64(cfg.RefillPerMin) / 60,
		clients:   make(map[string]*allowance),
		nextPrune: cfg.now().Add(cfg.IdleTTL),
	}
}

// spend takes one write from client. When the budget is exhausted it
// reports how many seconds until the next write is available.
func (w *writeBudget) spend(client string) (ok bool, left int, wait int) {
	now := w.cfg.now()

	w.mu.Lock()
	defer w.mu.Unlock()

	if !now.Before(w.nextPrune) || (w.cfg.MaxClients > 0 && len(w.clients) >= w.cfg.MaxClients) {
		w.prune(now)
	}

	a, seen := w.clients[client]
	if !seen {
		a = &allowance{tokens: float64(w.cfg.Burst), updated: now}
		w.clients[client] = a
	} else if dt := now.Sub(a.updated).Seconds(); dt > 0 {
		a.tokens = math.Min(float64(w.cfg.Burst), a.tokens+dt*w.perSecond)
		a.updated = now
	}

	if a.tokens < 1 {
		return false, 0, max(1, int(math.Ceil((1-a.tokens)/w.perSecond)))
	}
	a.tokens--
	return true, int(a.tokens), 0
}

// prune forgets clients that have not written for a whole IdleTTL.
func (w *writeBudget) prune(now time.Time) {
	for client, a := range w.clients {
		if now.Sub(a.updated) > w.cfg.IdleTTL {
			delete(w.clients, client)
		}
	}
	w.nextPrune = now.Add(w.cfg.IdleTTL)
}

// clientKey buckets signed-in users by id and everyone else by IP.
func clientKey(r *http.Request, trustProxy bool) string {
	if user := UserFrom(r.Context()); user != "" {
		return "user:" + user
	}
	return "ip:" + utils.ClientIP(r, trustProxy)
}

// RateLimit rejects writes with 429 once a client has spent its budget.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	budget := newWriteBudget(cfg)
	limit := strconv.Itoa(budget.cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, left, wait := budget.spend(clientKey(r, budget.cfg.TrustProxy))
			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(left))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(wait))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
