package deps

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/enrich"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/metrics"
	redisstore "github.com/MrSnakeDoc/shelf/internal/store/redis"
)

// Dispatcher starts an immediate enrichment without waiting for it.
type Dispatcher interface {
	Dispatch(id string)
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	AllowedHosts []string // Host headers allowed to access the server
	AllowedCIDRS []string // IPs allowed to reach ops and cron endpoints
	TrustProxy   bool     // true if running behind a trusted reverse proxy (e.g., cloudflared)
	UserHeader   string   // header carrying the signed-in user id
	CORSOrigins  []string // allowed CORS origins (empty = CORS disabled)
	RateBurst    int      // write endpoints: bucket size per client
	RatePerMin   int      // write endpoints: refill per minute per client

	Store      *redisstore.Store
	Enricher   *enrich.Enricher
	Dispatcher Dispatcher
	Metrics    *metrics.Collector // nil disables /metrics

	// WriteLimit is shared by every mutating route. Built by the server
	// from RateBurst/RatePerMin when nil.
	WriteLimit func(http.Handler) http.Handler

	SweepTrigger  chan struct{} // wakes the sweeper (nil if no sweeper runs)
	ImportTrigger chan struct{} // re-runs the bookmarks.yaml import (nil if import disabled)
}
