package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ccs-atlas/internal/fetcher"
	"github.com/sells-group/ccs-atlas/internal/normalize"
)

// LoadZIP extracts the archive to a temp dir and loads every supported file
// inside it in path order. Nested archives are ignored. A member that fails
// to load is logged and skipped.
func LoadZIP(ctx context.Context, path string, opts Options) ([]normalize.Record, error) {
	dir, err := os.MkdirTemp(opts.TempDir, "nap-zip-*")
	if err != nil {
		return nil, eris.Wrap(err, "loader: create extract dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	members, err := fetcher.ExtractZIP(path, dir)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: extract zip %s", path)
	}

	log := zap.L().With(zap.String("component", "loader"), zap.String("archive", path))
	var records []normalize.Record
	for _, member := range members {
		if strings.EqualFold(filepath.Ext(member), ".zip") || !Supported(member) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "loader: zip cancelled")
		}
		recs, err := Load(ctx, member, opts)
		if err != nil {
			rel, _ := filepath.Rel(dir, member)
			log.Warn("skipping archive member", zap.String("member", rel), zap.Error(err))
			continue
		}
		records = append(records, recs...)
	}
	return records, nil
}
