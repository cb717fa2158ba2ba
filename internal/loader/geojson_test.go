package loader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ccs-atlas/internal/normalize"
)

func TestLoadGeoJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sites.geojson", `{
		"type": "FeatureCollection",
		"features": [
			{"type":"Feature","geometry":{"type":"Point","coordinates":[13.4,52.5]},"properties":{"name":"Site A","plug":"CCS"}},
			{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]},"properties":{"name":"Line"}},
			{"type":"Feature","geometry":null,"properties":{"name":"No geometry"}},
			{"type":"Feature","properties":{"name":"Missing geometry"}},
			{"type":"Feature","geometry":{"type":"Point","coordinates":[11.5,48.1,520]},"properties":{"name":"With altitude"}}
		]
	}`)

	recs, err := LoadGeoJSON(context.Background(), path, Options{})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "Site A", recs[0]["name"])
	assert.Equal(t, 52.5, recs[0]["lat"])
	assert.Equal(t, 13.4, recs[0]["lon"])
	assert.Equal(t, "With altitude", recs[1]["name"])
	assert.Equal(t, 48.1, recs[1]["lat"])
}

func TestLoadGeoJSON_ExistingLatLonKept(t *testing.T) {
	path := writeFile(t, t.TempDir(), "own.geojson", `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Point","coordinates":[13.4,52.5]},"properties":{"lat":"50.0","lon":null}}
	]}`)

	recs, err := LoadGeoJSON(context.Background(), path, Options{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "50.0", recs[0]["lat"])
	v, ok := recs[0]["lon"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestLoadGeoJSON_BadCoordinatesSkipFeature(t *testing.T) {
	path := writeFile(t, t.TempDir(), "coords.geojson", `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Point","coordinates":[13.4]},"properties":{}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[null,52.5]},"properties":{}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[13.4,null]},"properties":{}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[true,{}]},"properties":{}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":null},"properties":{}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]},"properties":null}
	]}`)

	recs, err := LoadGeoJSON(context.Background(), path, Options{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 2.0, recs[0]["lat"])
	assert.Equal(t, 1.0, recs[0]["lon"])
}

func TestLoadGeoJSON_NullCoordinateNotEmitted(t *testing.T) {
	path := writeFile(t, t.TempDir(), "null.geojson", `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Point","coordinates":[null,52.5]},"properties":{"connector":"CCS","power":150}}
	]}`)

	recs, err := LoadGeoJSON(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestLoadGeoJSON_StringCoordinates(t *testing.T) {
	path := writeFile(t, t.TempDir(), "strings.geojson", `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Point","coordinates":["13.4","52.5"]},"properties":{"connector":"CCS2","power":"150 kW"}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[13.4,"52.5"]},"properties":{"connector":"CCS2","power":"150 kW"}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":["a","b"]},"properties":{"connector":"CCS2","power":"150 kW"}}
	]}`)

	recs, err := LoadGeoJSON(context.Background(), path, Options{})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "13.4", recs[0]["lon"])
	assert.Equal(t, "52.5", recs[0]["lat"])

	site, ok := normalize.Normalize(recs[0])
	require.True(t, ok)
	assert.InDelta(t, 13.4, site.Longitude, 1e-9)
	assert.InDelta(t, 52.5, site.Latitude, 1e-9)

	_, ok = normalize.Normalize(recs[1])
	assert.True(t, ok)

	_, ok = normalize.Normalize(recs[2])
	assert.False(t, ok)
}

func TestLoadGeoJSON_NoFeatures(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.json", `{"type":"FeatureCollection"}`)

	recs, err := LoadGeoJSON(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestLoadGeoJSON_Corrupt(t *testing.T) {
	for name, body := range map[string]string{
		"truncated.json": `{"type":"FeatureCollection","features":[`,
		"array.json":     `[1,2,3]`,
	} {
		path := writeFile(t, t.TempDir(), name, body)
		_, err := LoadGeoJSON(context.Background(), path, Options{})
		require.Error(t, err, name)
		assert.Contains(t, err.Error(), "loader: decode geojson", name)
	}
}
