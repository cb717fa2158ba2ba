package ocm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ccs-atlas/internal/resilience"
)

func fptr(v float64) *float64 { return &v }

func makePOIs(start, n int) []POI {
	out := make([]POI, n)
	for i := range out {
		out[i] = POI{
			ID:          start + i,
			AddressInfo: &AddressInfo{Title: "Site " + strconv.Itoa(start+i), Latitude: fptr(50), Longitude: fptr(10)},
		}
	}
	return out
}

func newTestClient(srvURL string, opts ...Option) Client {
	base := []Option{
		WithBaseURL(srvURL + "/v3/poi/"),
		WithPageSize(2),
		WithInterval(0),
		WithRetry(resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond}),
	}
	return NewClient("test-key", append(base, opts...)...)
}

func TestFetchCountry_Pages(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var offsets []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/v3/poi/", r.URL.Path)
		assert.Equal(t, "json", q.Get("output"))
		assert.Equal(t, "DE", q.Get("countrycode"))
		assert.Equal(t, "32", q.Get("connectiontypeid"))
		assert.Equal(t, "50", q.Get("minpowerkw"))
		assert.Equal(t, "2", q.Get("maxresults"))
		assert.Equal(t, "true", q.Get("compact"))
		assert.Equal(t, "false", q.Get("verbose"))
		assert.Equal(t, "test-key", q.Get("key"))
		mu.Lock()
		offsets = append(offsets, q.Get("offset"))
		mu.Unlock()

		var page []POI
		switch q.Get("offset") {
		case "0":
			page = makePOIs(1, 2)
		case "2":
			page = makePOIs(3, 2)
		case "4":
			page = makePOIs(5, 1)
		}
		_ = json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()

	items, err := newTestClient(srv.URL).FetchCountry(context.Background(), "DE")
	require.NoError(t, err)
	assert.Len(t, items, 5)
	mu.Lock()
	assert.Equal(t, []string{"0", "2", "4"}, offsets)
	mu.Unlock()
	assert.Equal(t, 5, items[4].ID)
}

func TestFetchCountry_EmptyPageStops(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("offset") == "0" {
			_ = json.NewEncoder(w).Encode(makePOIs(1, 2))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	items, err := newTestClient(srv.URL).FetchCountry(context.Background(), "NL")
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchCountry_NoKeyOmitsParam(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasKey := r.URL.Query()["key"]
		assert.False(t, hasKey)
		_, _ = w.Write([]byte(`null`))
	}))
	defer srv.Close()

	c := NewClient("", WithBaseURL(srv.URL), WithInterval(0))
	items, err := c.FetchCountry(context.Background(), "AT")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFetchCountry_StatusErrorKeepsFetched(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("offset") == "0" {
			_ = json.NewEncoder(w).Encode(makePOIs(1, 2))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance"))
	}))
	defer srv.Close()

	items, err := newTestClient(srv.URL).FetchCountry(context.Background(), "FR")
	require.Error(t, err)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 503, se.StatusCode)
	assert.Equal(t, "maintenance", se.Body)
	assert.Len(t, items, 2)
	assert.Equal(t, int32(2), calls.Load(), "status errors are not retried")
}

func TestFetchCountry_BadJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	items, err := newTestClient(srv.URL).FetchCountry(context.Background(), "BE")
	require.Error(t, err)
	assert.Nil(t, items)
	assert.Contains(t, err.Error(), "ocm: decode BE page")
}

func TestFetchCountry_TruncatedPageDropped(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{}, {}, {"ID":`))
	}))
	defer srv.Close()

	items, err := newTestClient(srv.URL).FetchCountry(context.Background(), "NL")
	require.Error(t, err)
	assert.Empty(t, items)
	assert.Contains(t, err.Error(), "ocm: decode NL page at offset 0")
}

func TestFetchAll_IsolatesFailingCountry(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("countrycode") {
		case "DE":
			_ = json.NewEncoder(w).Encode(makePOIs(1, 1))
		case "XK":
			w.WriteHeader(http.StatusForbidden)
		case "PL":
			_, _ = w.Write([]byte(`garbage`))
		case "CH":
			_ = json.NewEncoder(w).Encode(makePOIs(10, 1))
		}
	}))
	defer srv.Close()

	items, err := newTestClient(srv.URL).FetchAll(context.Background(), []string{"DE", "XK", "PL", "CH"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "DE", items[0].Country)
	assert.Equal(t, "CH", items[1].Country)
	assert.Equal(t, 10, items[1].POI.ID)
}

func TestFetchAll_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient("").FetchAll(ctx, []string{"DE"})
	require.Error(t, err)
}

func TestWithInterval_SpacesRequests(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var stamps []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		stamps = append(stamps, time.Now())
		mu.Unlock()
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, WithInterval(50*time.Millisecond))
	_, err := c.FetchAll(context.Background(), []string{"DE", "AT", "CH"})
	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[0]), 90*time.Millisecond)
}
