package loader

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.shp")
	w, err := shp.Create(path, shp.POINT)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("NAME", 32),
		shp.StringField("CONNECTOR", 16),
		shp.StringField("POWER_KW", 8),
	}))

	rows := []struct {
		pt    shp.Point
		attrs []string
	}{
		{shp.Point{X: 13.4, Y: 52.5}, []string{"Site A", "CCS", "150"}},
		{shp.Point{X: 11.5, Y: 48.1}, []string{"Site B", "", "22"}},
	}
	for _, r := range rows {
		pt := r.pt
		n := w.Write(&pt)
		for i, a := range r.attrs {
			require.NoError(t, w.WriteAttribute(int(n), i, a))
		}
	}
	w.Close()

	recs, err := LoadShapefile(context.Background(), path, Options{})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "Site A", recs[0]["NAME"])
	assert.Equal(t, "150", recs[0]["POWER_KW"])
	assert.Equal(t, 52.5, recs[0]["lat"])
	assert.Equal(t, 13.4, recs[0]["lon"])

	_, ok := recs[1]["CONNECTOR"]
	assert.False(t, ok)
}

func TestLoadShapefile_SkipsNonPoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.shp")
	w, err := shp.Create(path, shp.POLYLINE)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("NAME", 16)}))
	n := w.Write(shp.NewPolyLine([][]shp.Point{{{X: 0, Y: 0}, {X: 1, Y: 1}}}))
	require.NoError(t, w.WriteAttribute(int(n), 0, "road"))
	w.Close()

	recs, err := LoadShapefile(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestLoadShapefile_Missing(t *testing.T) {
	_, err := LoadShapefile(context.Background(), filepath.Join(t.TempDir(), "none.shp"), Options{})
	require.Error(t, err)
}
