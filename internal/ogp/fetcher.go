package ogp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

const (
	// DefaultTimeout caps one page fetch, including reading the body.
	DefaultTimeout = 5 * time.Second
	// DefaultMaxBody is how much HTML is read before parsing stops.
	DefaultMaxBody int64 = 2 << 20
)

// ErrFetch wraps transport failures returned in strict mode.
var ErrFetch = errors.New("metadata fetch failed")

// Doer is the subset of *http.Client the fetcher needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Fetcher.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	// Strict makes transport errors and timeouts surface as ErrFetch
	// instead of empty metadata.
	Strict  bool
	MaxBody int64
}

// Fetcher downloads a page and extracts its Open Graph preview.
type Fetcher struct {
	client Doer
	opts   Options
	log    logger.Logger
}

// NewFetcher creates a fetcher. A nil client means http.DefaultClient.
func NewFetcher(client Doer, opts Options, log logger.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBody <= 0 {
		opts.MaxBody = DefaultMaxBody
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Fetcher{client: client, opts: opts, log: log}
}

// FetchMetadata returns whatever preview fields the page exposes.
//
// Title comes from og:title, else <title>. Description comes from
// og:description, else <meta name="description">. Image comes from og:image
// only, resolved against the page URL. Missing or blank values are nil.
//
// Non-2xx answers and unparsable pages yield empty metadata. Transport errors
// and timeouts also yield empty metadata unless Strict is set. The call never
// outlives Timeout.
func (f *Fetcher) FetchMetadata(ctx context.Context, rawURL string) (domain.Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		f.log.Warn("invalid url for metadata fetch",
			logger.String("url", rawURL),
			logger.Error(err))
		return f.failure(rawURL, err)
	}
	if f.opts.UserAgent != "" {
		req.Header.Set("User-Agent", f.opts.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logTransportError(rawURL, err)
		return f.failure(rawURL, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.log.Warn("metadata fetch got non-2xx status",
			logger.String("url", rawURL),
			logger.Int("status", resp.StatusCode))
		return domain.Metadata{}, nil
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, f.opts.MaxBody))
	if err != nil {
		if ctx.Err() != nil {
			f.logTransportError(rawURL, ctx.Err())
			return f.failure(rawURL, ctx.Err())
		}
		f.log.Warn("failed to parse page",
			logger.String("url", rawURL),
			logger.Error(err))
		return domain.Metadata{}, nil
	}

	base := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL
	}
	return Extract(doc, base), nil
}

// Extract reads the preview fields out of a parsed page.
func Extract(doc *goquery.Document, base *url.URL) domain.Metadata {
	var md domain.Metadata

	if v, ok := metaContent(doc, `meta[property='og:title']`); ok {
		md.Title = v
	} else {
		md.Title = clean(doc.Find("title").First().Text())
	}

	if v, ok := metaContent(doc, `meta[property='og:description']`); ok {
		md.Description = v
	} else if v, ok := metaContent(doc, `meta[name="description"]`); ok {
		md.Description = v
	}

	if v, ok := metaContent(doc, `meta[property='og:image']`); ok && v != nil {
		md.Image = resolve(base, *v)
	}

	return md
}

// metaContent reports the trimmed content attribute of the first match.
// ok is false only when no element with a content attribute exists.
func metaContent(doc *goquery.Document, selector string) (*string, bool) {
	content, ok := doc.Find(selector).First().Attr("content")
	if !ok {
		return nil, false
	}
	return clean(content), true
}

func clean(s string) *string {
	return domain.OptionalString(strings.TrimSpace(s))
}

// resolve makes a relative og:image absolute against the page URL. Anything
// else, including refs that do not parse, is returned as written.
func resolve(base *url.URL, ref string) *string {
	if base == nil {
		return domain.StringPtr(ref)
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return domain.StringPtr(ref)
	}
	return domain.StringPtr(base.ResolveReference(u).String())
}

func (f *Fetcher) failure(rawURL string, err error) (domain.Metadata, error) {
	if f.opts.Strict {
		return domain.Metadata{}, fmt.Errorf("%w: %s: %v", ErrFetch, rawURL, err)
	}
	return domain.Metadata{}, nil
}

func (f *Fetcher) logTransportError(rawURL string, err error) {
	if isTimeout(err) {
		f.log.Warn("timeout fetching metadata",
			logger.String("url", rawURL),
			logger.Duration("timeout", f.opts.Timeout))
		return
	}
	f.log.Warn("error fetching metadata",
		logger.String("url", rawURL),
		logger.Error(err))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
