package geocode

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/stretchr/testify/mock"
)

// mockProvider is a testify double for Provider.
type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Search(ctx context.Context, query string) (*Result, error) {
	args := m.Called(ctx, query)
	r, _ := args.Get(0).(*Result)
	return r, args.Error(1)
}

// newTestClient builds a geocoder with no pacing and millisecond retry waits.
func newTestClient(p Provider, opts ...Option) Client {
	base := []Option{WithProvider(p), WithMinDelay(0), WithRetries(2, time.Millisecond)}
	return NewClient("test-agent", append(base, opts...)...)
}

func matched(lat, lon float64) *Result {
	return &Result{Latitude: lat, Longitude: lon, Source: "mock", Matched: true}
}

// newRewriteClient creates an HTTP client that redirects requests matching
// targetPrefix to the test server.
func newRewriteClient(testServerURL, targetPrefix string) *http.Client {
	return &http.Client{
		Transport: &rewriteTransport{
			base:         http.DefaultTransport,
			testServer:   testServerURL,
			targetPrefix: targetPrefix,
		},
	}
}

type rewriteTransport struct {
	base         http.RoundTripper
	testServer   string
	targetPrefix string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	origURL := req.URL.String()
	if !strings.HasPrefix(origURL, t.targetPrefix) {
		return t.base.RoundTrip(req)
	}
	parsed, err := req.URL.Parse(t.testServer + origURL[len(t.targetPrefix):])
	if err != nil {
		return nil, err
	}
	newReq := req.Clone(req.Context())
	newReq.URL = parsed
	newReq.Host = parsed.Host
	return t.base.RoundTrip(newReq)
}
