// Package ocm provides a client for the OpenChargeMap POI API.
package ocm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/ccs-atlas/internal/fetcher"
	"github.com/sells-group/ccs-atlas/internal/resilience"
)

// Defaults match the public API and the CCS (Type 2 combo) connection type.
const (
	DefaultBaseURL          = "https://api.openchargemap.io/v3/poi/"
	DefaultConnectionTypeID = 32
	DefaultMinPowerKW       = 50
	DefaultPageSize         = 1000
	DefaultInterval         = 1200 * time.Millisecond
)

// Client fetches charging points from OpenChargeMap.
type Client interface {
	// FetchCountry pages through every POI for an ISO country code. On a
	// non-200 response it returns the POIs fetched so far and a *StatusError.
	FetchCountry(ctx context.Context, countryCode string) ([]POI, error)

	// FetchAll runs FetchCountry for each code in order and tags every POI
	// with the code it was queried under. A failing country is logged; POIs
	// fetched before a status error are kept.
	FetchAll(ctx context.Context, countryCodes []string) ([]CountryPOI, error)
}

// StatusError reports a non-200 response for one country.
type StatusError struct {
	Country    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ocm: %s request failed: %d %s", e.Country, e.StatusCode, e.Body)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithPageSize sets maxresults per request.
func WithPageSize(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithConnectionTypeID filters POIs by OCM connection type.
func WithConnectionTypeID(id int) Option {
	return func(c *httpClient) { c.connectionTypeID = id }
}

// WithMinPowerKW filters POIs by minimum connector power.
func WithMinPowerKW(kw int) Option {
	return func(c *httpClient) { c.minPowerKW = kw }
}

// WithInterval sets the minimum spacing between requests. Zero disables it.
func WithInterval(d time.Duration) Option {
	return func(c *httpClient) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithRetry overrides retries for network failures. Status errors are never retried.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) { c.retry = cfg }
}

type httpClient struct {
	apiKey           string
	baseURL          string
	http             *http.Client
	pageSize         int
	connectionTypeID int
	minPowerKW       int
	limiter          *rate.Limiter
	retry            resilience.RetryConfig
}

// NewClient creates an OpenChargeMap client. apiKey may be empty.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:           apiKey,
		baseURL:          DefaultBaseURL,
		http:             &http.Client{Timeout: 60 * time.Second},
		pageSize:         DefaultPageSize,
		connectionTypeID: DefaultConnectionTypeID,
		minPowerKW:       DefaultMinPowerKW,
		limiter:          rate.NewLimiter(rate.Every(DefaultInterval), 1),
		retry:            resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger("ocm", "fetch page")
	}
	shouldRetry := c.retry.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = resilience.IsTransient
	}
	c.retry.ShouldRetry = func(err error) bool {
		var se *StatusError
		return !errors.As(err, &se) && shouldRetry(err)
	}
	return c
}

func (c *httpClient) pageURL(countryCode string, offset int) string {
	q := url.Values{}
	q.Set("output", "json")
	q.Set("countrycode", countryCode)
	q.Set("connectiontypeid", strconv.Itoa(c.connectionTypeID))
	q.Set("minpowerkw", strconv.Itoa(c.minPowerKW))
	q.Set("maxresults", strconv.Itoa(c.pageSize))
	q.Set("compact", "true")
	q.Set("verbose", "false")
	q.Set("offset", strconv.Itoa(offset))
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	return c.baseURL + "?" + q.Encode()
}

func (c *httpClient) FetchCountry(ctx context.Context, countryCode string) ([]POI, error) {
	log := zap.L().With(zap.String("component", "ocm"), zap.String("country", countryCode))

	var all []POI
	for offset := 0; ; offset += c.pageSize {
		page, err := c.fetchPage(ctx, countryCode, offset)
		if err != nil {
			var se *StatusError
			if errors.As(err, &se) {
				return all, err
			}
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		all = append(all, page...)
		log.Info("fetched page", zap.Int("count", len(page)), zap.Int("total", len(all)))
		if len(page) < c.pageSize {
			break
		}
	}
	return all, nil
}

func (c *httpClient) fetchPage(ctx context.Context, countryCode string, offset int) ([]POI, error) {
	reqURL := c.pageURL(countryCode, offset)

	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]POI, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "ocm: rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "ocm: create request")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "ocm: request")
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
			return nil, &StatusError{Country: countryCode, StatusCode: resp.StatusCode, Body: string(body)}
		}

		page, err := fetcher.CollectJSONArray[POI](ctx, resp.Body)
		if err != nil {
			return nil, eris.Wrapf(err, "ocm: decode %s page at offset %d", countryCode, offset)
		}
		return page, nil
	})
}

func (c *httpClient) FetchAll(ctx context.Context, countryCodes []string) ([]CountryPOI, error) {
	log := zap.L().With(zap.String("component", "ocm"))

	var all []CountryPOI
	for _, cc := range countryCodes {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "ocm: cancelled")
		}

		items, err := c.FetchCountry(ctx, cc)
		var se *StatusError
		switch {
		case errors.As(err, &se):
			log.Warn("country request failed",
				zap.String("country", cc),
				zap.Int("status", se.StatusCode),
				zap.String("body", se.Body),
			)
		case err != nil:
			if ctx.Err() != nil {
				return nil, eris.Wrap(ctx.Err(), "ocm: cancelled")
			}
			log.Error("country fetch failed", zap.String("country", cc), zap.Error(err))
			continue
		}

		for _, p := range items {
			all = append(all, CountryPOI{Country: cc, POI: p})
		}
	}
	return all, nil
}
