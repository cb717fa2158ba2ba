// Package geocode resolves free-text place queries to coordinates via
// Nominatim, with request pacing, retries and an optional SQLite cache.
package geocode

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/ccs-atlas/internal/resilience"
)

// Client geocodes place queries.
type Client interface {
	// Geocode resolves a query such as "Hamburg, DE". An unknown place is
	// not an error: the result has Matched=false.
	Geocode(ctx context.Context, query string) (*Result, error)
}

// Result holds the geocoding output for a query.
type Result struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
	Source      string // provider name, or "cache"
	Matched     bool
}

// Defaults mirror Nominatim's usage policy of at most one request per second.
const (
	DefaultMinDelay   = 1100 * time.Millisecond
	DefaultMaxRetries = 3
	DefaultErrorWait  = 2 * time.Second
)

// Option configures the geocoder.
type Option func(*geocoder)

// WithProvider replaces the Nominatim backend.
func WithProvider(p Provider) Option {
	return func(g *geocoder) { g.provider = p }
}

// WithCache stores every provider answer, including misses.
func WithCache(c Cache) Option {
	return func(g *geocoder) { g.cache = c }
}

// WithMinDelay sets the minimum spacing between provider calls.
func WithMinDelay(d time.Duration) Option {
	return func(g *geocoder) {
		if d <= 0 {
			g.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		g.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithRetries sets how many times a failed call is retried and the pause
// before each retry.
func WithRetries(maxRetries int, wait time.Duration) Option {
	return func(g *geocoder) {
		if maxRetries < 0 {
			maxRetries = 0
		}
		g.retry = resilience.FixedRetry(maxRetries+1, wait)
	}
}

type geocoder struct {
	provider Provider
	cache    Cache
	limiter  *rate.Limiter
	retry    resilience.RetryConfig
}

// NewClient creates a geocoding Client. Without WithProvider it queries the
// public Nominatim endpoint with the given user agent.
func NewClient(userAgent string, opts ...Option) Client {
	g := &geocoder{
		limiter: rate.NewLimiter(rate.Every(DefaultMinDelay), 1),
		retry:   resilience.FixedRetry(DefaultMaxRetries+1, DefaultErrorWait),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.provider == nil {
		g.provider = NewNominatim(userAgent, &http.Client{Timeout: 30 * time.Second})
	}
	g.retry.OnRetry = resilience.RetryLogger("geocode", g.provider.Name())
	return g
}

func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

func (g *geocoder) Geocode(ctx context.Context, query string) (*Result, error) {
	key := normalizeQuery(query)
	if key == "" {
		return &Result{Matched: false}, nil
	}

	if g.cache != nil {
		cached, ok, err := g.cache.Get(ctx, key)
		if err != nil {
			zap.L().Warn("geocode: cache read failed", zap.String("query", query), zap.Error(err))
		} else if ok {
			cached.Source = "cache"
			return cached, nil
		}
	}

	result, err := resilience.DoVal(ctx, g.retry, func(ctx context.Context) (*Result, error) {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "geocode: rate limit")
		}
		return g.provider.Search(ctx, query)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: %q", query)
	}

	if g.cache != nil {
		if err := g.cache.Put(ctx, key, result); err != nil {
			zap.L().Warn("geocode: cache write failed", zap.String("query", query), zap.Error(err))
		}
	}
	return result, nil
}

// FirstMatch tries each query in order and returns the first match along
// with the query that produced it. Errors count as misses and are logged.
// It returns nil when no query matches.
func FirstMatch(ctx context.Context, c Client, queries ...string) (*Result, string) {
	for _, q := range queries {
		if ctx.Err() != nil {
			return nil, ""
		}
		r, err := c.Geocode(ctx, q)
		if err != nil {
			zap.L().Debug("geocode: query failed", zap.String("query", q), zap.Error(err))
			continue
		}
		if r.Matched {
			return r, q
		}
	}
	return nil, ""
}
