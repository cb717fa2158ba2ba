// Package loader turns raw NAP export files into flat records for the
// normalizer. Files are dispatched by extension; unknown extensions are
// ignored by the caller.
package loader

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ccs-atlas/internal/normalize"
)

// Options configures format-specific loading.
type Options struct {
	CSVCharset string // WHATWG label for CSV files, "" = utf-8
	TempDir    string // parent for archive extraction, "" = OS temp dir
}

// Func loads every record in the file at path.
type Func func(ctx context.Context, path string, opts Options) ([]normalize.Record, error)

// ErrUnsupported is returned by Load for extensions without a loader.
var ErrUnsupported = eris.New("loader: unsupported file type")

// loaders is filled in init because LoadZIP dispatches through it.
var loaders map[string]Func

func init() {
	loaders = map[string]Func{
		".csv":     LoadCSV,
		".geojson": LoadGeoJSON,
		".json":    LoadGeoJSON,
		".xlsx":    LoadXLSX,
		".shp":     LoadShapefile,
		".zip":     LoadZIP,
	}
}

func lookup(path string) (Func, bool) {
	fn, ok := loaders[strings.ToLower(filepath.Ext(path))]
	return fn, ok
}

// Supported reports whether path has a registered loader.
func Supported(path string) bool {
	_, ok := lookup(path)
	return ok
}

// Load dispatches path to its loader.
func Load(ctx context.Context, path string, opts Options) ([]normalize.Record, error) {
	fn, ok := lookup(path)
	if !ok {
		return nil, eris.Wrapf(ErrUnsupported, "loader: %s", path)
	}
	return fn(ctx, path, opts)
}
