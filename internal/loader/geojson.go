package loader

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/ccs-atlas/internal/normalize"
)

// rawFeature defers geometry decoding so one bad geometry skips only its
// feature, not the file.
type rawFeature struct {
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

type rawCollection struct {
	Features []rawFeature `json:"features"`
}

// LoadGeoJSON reads a FeatureCollection. Point features become one record
// each: the feature's properties plus lat/lon taken from the geometry.
// Properties already named lat or lon are kept as-is. Features without a
// Point geometry carrying two non-null coordinates are skipped.
func LoadGeoJSON(_ context.Context, path string, _ Options) ([]normalize.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: read geojson %s", path)
	}

	var fc rawCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "loader: decode geojson %s", path)
	}

	records := make([]normalize.Record, 0, len(fc.Features))
	for _, feat := range fc.Features {
		lon, lat, ok := pointCoords(feat.Geometry)
		if !ok {
			continue
		}
		rec := make(normalize.Record, len(feat.Properties)+2)
		for k, v := range feat.Properties {
			rec[k] = v
		}
		setDefault(rec, "lat", lat)
		setDefault(rec, "lon", lon)
		records = append(records, rec)
	}
	return records, nil
}

type rawGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// pointCoords returns the first two components of a Point geometry. Numeric
// pairs go through go-geom; a pair holding numeric strings is passed through
// unchanged for the normalizer to parse. A null, missing or non-scalar
// component skips the feature.
func pointCoords(raw json.RawMessage) (lon, lat any, ok bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil, false
	}
	var g rawGeometry
	if err := json.Unmarshal(raw, &g); err != nil || g.Type != "Point" {
		return nil, nil, false
	}
	var comps []any
	if err := json.Unmarshal(g.Coordinates, &comps); err != nil || len(comps) < 2 {
		return nil, nil, false
	}

	numeric := true
	for _, c := range comps[:2] {
		switch c.(type) {
		case float64:
		case string:
			numeric = false
		default:
			return nil, nil, false
		}
	}
	if !numeric {
		return comps[0], comps[1], true
	}

	var t geom.T
	if err := geojson.Unmarshal(raw, &t); err == nil {
		if p, isPoint := t.(*geom.Point); isPoint && len(p.FlatCoords()) >= 2 {
			return p.X(), p.Y(), true
		}
	}
	return comps[0], comps[1], true
}

func setDefault(rec normalize.Record, key string, v any) {
	if _, exists := rec[key]; !exists {
		rec[key] = v
	}
}
