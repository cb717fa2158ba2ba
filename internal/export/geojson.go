// Package export writes sites to disk as GeoJSON documents and Leaflet maps.
package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ccs-atlas/internal/model"
)

// MarshalGeoJSON encodes sites as an indented FeatureCollection. Names are
// written literally, without HTML escaping of &, < or >.
func MarshalGeoJSON(sites []model.Site) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(model.Collection(sites)); err != nil {
		return nil, eris.Wrap(err, "export: marshal geojson")
	}
	return buf.Bytes(), nil
}

// WriteGeoJSON writes sites to path as a single UTF-8 document, creating
// parent directories as needed.
func WriteGeoJSON(path string, sites []model.Site) error {
	data, err := MarshalGeoJSON(sites)
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

// writeAtomic replaces path with data via a temp file in the same directory.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "export: create output dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return eris.Wrap(err, "export: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return eris.Wrapf(err, "export: write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "export: close %s", path)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return eris.Wrapf(err, "export: chmod %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "export: rename %s", path)
	}
	return nil
}
