package geocode

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ccs-atlas/internal/fetcher"
	"github.com/sells-group/ccs-atlas/internal/resilience"
)

// Provider is a single geocoding backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) (*Result, error)
}

// NominatimURL is the public OpenStreetMap search endpoint.
const NominatimURL = "https://nominatim.openstreetmap.org/search"

// Nominatim queries an OpenStreetMap Nominatim instance.
type Nominatim struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewNominatim creates a provider for the public endpoint. Nominatim
// rejects requests without an identifying User-Agent.
func NewNominatim(userAgent string, hc *http.Client) *Nominatim {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Nominatim{baseURL: NominatimURL, userAgent: userAgent, httpClient: hc}
}

// WithBaseURL points the provider at another Nominatim instance.
func (n *Nominatim) WithBaseURL(u string) *Nominatim {
	if u != "" {
		n.baseURL = u
	}
	return n
}

// Name implements Provider.
func (n *Nominatim) Name() string { return "nominatim" }

// nominatimPlace is one element of the search response. Coordinates are strings.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Search implements Provider.
func (n *Nominatim) Search(ctx context.Context, query string) (*Result, error) {
	params := url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim build request")
	}
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		statusErr := eris.Errorf("geocode: nominatim returned status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}

	places, err := fetcher.CollectJSONArray[nominatimPlace](ctx, resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim parse response")
	}
	if len(places) == 0 {
		return &Result{Matched: false, Source: n.Name()}, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: nominatim latitude %q", places[0].Lat)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: nominatim longitude %q", places[0].Lon)
	}

	return &Result{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: places[0].DisplayName,
		Source:      n.Name(),
		Matched:     true,
	}, nil
}
